package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Backend string            `json:"backend,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db         *gorm.DB
	version    string
	apiBaseURL string
}

func NewHealthController(db *gorm.DB, version, apiBaseURL string) *HealthController {
	return &HealthController{db: db, version: version, apiBaseURL: apiBaseURL}
}

// Status reports whether the session database answers. The backend is only
// named, not probed: its outages show up on the pages that call it.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			checks["sessions"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["sessions"] = "ok"
		}
	} else {
		checks["sessions"] = "not configured"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.IndentedJSON(code, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Backend: h.apiBaseURL,
		Checks:  checks,
	})
}
