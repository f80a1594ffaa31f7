package http

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/auth"
	"github.com/mrlokans/hotsearch-web/internal/router"
	"github.com/mrlokans/hotsearch-web/internal/session"
)

// ErrorResponse is the JSON body for failures on non-HTML endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PageData is what every page template receives.
type PageData struct {
	Title         string
	Route         router.Route
	Params        router.Params
	Authenticated bool
	Profile       *auth.Profile
	CSRFField     template.HTML

	Error  string
	Notice string

	// Form state
	Next     string
	Username string
	Email    string
}

// DisplayName is shown in the header bar.
func (d PageData) DisplayName() string {
	if d.Profile != nil {
		return d.Profile.DisplayName()
	}
	return "user"
}

func respondInternalError(c *gin.Context, err error, context string) {
	log.Ctx(c.Request.Context()).Error().Err(err).Str("context", context).Msg("http: internal error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// backendMessage turns a backend failure into something fit for a form.
func backendMessage(err error, fallback string) string {
	var apiErr *session.APIError
	if errors.As(err, &apiErr) {
		if detail := apiErr.Detail(); detail != "" {
			return detail
		}
		return fallback
	}
	return "The server is unreachable. Please try again."
}

// backendStatus picks the response status for a failed backend call.
func backendStatus(err error) int {
	var apiErr *session.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
	}
	return http.StatusBadGateway
}
