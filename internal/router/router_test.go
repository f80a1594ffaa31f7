package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRoutes_BuiltIn(t *testing.T) {
	table, err := NewTable(Routes())
	require.NoError(t, err)

	routes := table.Routes()
	require.Len(t, routes, 4)
	assert.Equal(t, []string{"/", "/detail/:id", "/login", "/register"},
		[]string{routes[0].Path, routes[1].Path, routes[2].Path, routes[3].Path})

	detail, ok := table.Lookup("/detail/:id")
	require.True(t, ok)
	assert.True(t, detail.Lazy)
	assert.Equal(t, Meta{}, detail.Meta)

	for _, path := range []string{"/login", "/register"} {
		r, ok := table.Lookup(path)
		require.True(t, ok)
		assert.True(t, r.Meta.Guest, path)
		assert.False(t, r.Meta.RequiresAuth, path)
	}

	for _, r := range routes {
		assert.False(t, r.Meta.RequiresAuth, "no built-in route requires auth")
	}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route
		err    error
	}{
		{"both flags", []Route{{Path: "/x", Name: "X", Meta: Meta{RequiresAuth: true, Guest: true}}}, ErrConflictingMeta},
		{"duplicate path", []Route{{Path: "/x", Name: "A"}, {Path: "/x", Name: "B"}}, ErrDuplicateRoute},
		{"duplicate name", []Route{{Path: "/a", Name: "X"}, {Path: "/b", Name: "X"}}, ErrDuplicateRoute},
		{"relative path", []Route{{Path: "x", Name: "X"}}, ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.routes)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewTable_DefaultsViewToName(t *testing.T) {
	table, err := NewTable([]Route{{Path: "/profile", Name: "Profile"}})
	require.NoError(t, err)
	r, _ := table.Lookup("/profile")
	assert.Equal(t, "profile", r.View)
}

func TestTable_Match(t *testing.T) {
	table, err := NewTable(Routes())
	require.NoError(t, err)

	r, params, ok := table.Match("/detail/42")
	require.True(t, ok)
	assert.Equal(t, "Detail", r.Name)
	assert.Equal(t, Params{"id": "42"}, params)

	r, _, ok = table.Match("/")
	require.True(t, ok)
	assert.Equal(t, "Home", r.Name)

	r, _, ok = table.Match("/login/")
	require.True(t, ok)
	assert.Equal(t, "Login", r.Name)

	for _, miss := range []string{"/detail", "/detail/1/2", "/nope", "/api/auth/me"} {
		_, _, ok := table.Match(miss)
		assert.False(t, ok, miss)
	}
}

func TestDecide(t *testing.T) {
	guest := Route{Path: "/login", Meta: Meta{Guest: true}}
	private := Route{Path: "/favourites", Meta: Meta{RequiresAuth: true}}
	open := Route{Path: "/"}

	tests := []struct {
		name          string
		route         Route
		authenticated bool
		redirect      string
	}{
		{"guest route while authenticated", guest, true, HomePath},
		{"guest route while anonymous", guest, false, ""},
		{"private route while anonymous", private, false, LoginPath},
		{"private route while authenticated", private, true, ""},
		{"open route anonymous", open, false, ""},
		{"open route authenticated", open, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.route, tt.authenticated)
			assert.Equal(t, tt.redirect, d.Redirect)
			assert.Equal(t, tt.redirect == "", d.Proceed())
		})
	}
}

func guardedEngine(t *testing.T, table *Table, authenticated bool) *gin.Engine {
	t.Helper()
	guard := NewGuard(table)
	engine := gin.New()
	views := engine.Group("/", guard.Handler(func(*gin.Context) bool { return authenticated }))
	for _, r := range table.Routes() {
		views.GET(r.Path, func(c *gin.Context) {
			route, _ := CurrentRoute(c)
			c.String(http.StatusOK, route.Name)
		})
	}
	return engine
}

func TestGuard_Handler(t *testing.T) {
	table, err := LoadTable(writeRoutesFile(t))
	require.NoError(t, err)

	tests := []struct {
		path          string
		authenticated bool
		code          int
		location      string
		body          string
	}{
		{"/login", true, http.StatusFound, "/", ""},
		{"/register", true, http.StatusFound, "/", ""},
		{"/login", false, http.StatusOK, "", "Login"},
		{"/favourites", false, http.StatusFound, "/login", ""},
		{"/favourites", true, http.StatusOK, "", "Favourites"},
		{"/detail/7", false, http.StatusOK, "", "Detail"},
		{"/", true, http.StatusOK, "", "Home"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			guardedEngine(t, table, tt.authenticated).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
		})
	}
}

func writeRoutesFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.yaml")
	content := `routes:
  - path: /favourites
    name: Favourites
    meta:
      requiresAuth: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTable(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	assert.Len(t, table.Routes(), 4)

	table, err = LoadTable(writeRoutesFile(t))
	require.NoError(t, err)
	r, ok := table.Lookup("/favourites")
	require.True(t, ok)
	assert.True(t, r.Meta.RequiresAuth)
	assert.Equal(t, "favourites", r.View)
}

func TestLoadTable_Errors(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("routes: [path: /x"), 0o644))
	_, err = LoadTable(bad)
	assert.Error(t, err)

	conflict := filepath.Join(t.TempDir(), "conflict.yaml")
	require.NoError(t, os.WriteFile(conflict, []byte(`routes:
  - path: /login
    name: Again
`), 0o644))
	_, err = LoadTable(conflict)
	assert.ErrorIs(t, err, ErrDuplicateRoute)
}
