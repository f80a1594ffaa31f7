package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/hotsearch-web/internal/router"
)

func TestViews_LazyParsing(t *testing.T) {
	table, err := router.NewTable(router.Routes())
	require.NoError(t, err)

	v, err := newViews(table)
	require.NoError(t, err)

	assert.NotNil(t, v.eager.Lookup("home.html"))
	assert.Nil(t, v.eager.Lookup("detail.html"), "lazy views are not parsed up front")
	assert.Empty(t, v.lazy)

	first, err := v.lookup("detail")
	require.NoError(t, err)
	assert.Contains(t, v.lazy, "detail")

	second, err := v.lookup("detail")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestViews_FallbackForUnknownView(t *testing.T) {
	table, err := router.NewTable(router.Routes())
	require.NoError(t, err)
	v, err := newViews(table)
	require.NoError(t, err)

	tmpl, err := v.lookup("favourites")
	require.NoError(t, err)
	assert.Equal(t, "view.html", tmpl.Name())
	assert.Empty(t, v.lazy)
}

func TestViews_Render(t *testing.T) {
	table, err := router.NewTable(router.Routes())
	require.NoError(t, err)
	v, err := newViews(table)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/detail/9", nil)

	v.render(c, http.StatusOK, "detail", PageData{Title: "Detail", Params: router.Params{"id": "9"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Item 9")
	assert.Contains(t, rr.Body.String(), "<title>Detail · Hot Search</title>")
}
