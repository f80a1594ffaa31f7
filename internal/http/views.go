package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/auth"
	"github.com/mrlokans/hotsearch-web/internal/router"
	"github.com/mrlokans/hotsearch-web/internal/session"
)

// ViewsController renders the routed placeholder pages.
type ViewsController struct {
	service *auth.Service
	views   *views
	table   *router.Table
}

func NewViewsController(service *auth.Service, v *views, table *router.Table) *ViewsController {
	return &ViewsController{service: service, views: v, table: table}
}

// routeFor resolves the current request to its table route. fallback is a
// declared path used when the request was not routed through the guard.
func routeFor(c *gin.Context, fallback string) (router.Route, router.Params, bool) {
	params := router.Params{}
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}
	if r, ok := router.CurrentRoute(c); ok {
		return r, params, true
	}
	return router.Route{Path: fallback, Name: fallback}, params, false
}

// Render serves the view of the matched route. When a token is stored but no
// profile is cached the current user is fetched for the header bar; a 401
// from that call ends in a redirect to the login page.
func (vc *ViewsController) Render(c *gin.Context) {
	ctx := c.Request.Context()
	route, params, _ := routeFor(c, c.FullPath())

	data := PageData{
		Title:         route.Name,
		Route:         route,
		Params:        params,
		Authenticated: vc.service.IsAuthenticated(ctx),
		CSRFField:     auth.CSRFField(c),
		Error:         c.Query("error"),
	}

	if data.Authenticated {
		profile, err := vc.service.CachedUser(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("http: ignoring unreadable cached profile")
		}
		if profile == nil {
			profile, err = vc.fetchProfile(c)
			if followPending(c) {
				return
			}
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("http: profile unavailable")
			}
		}
		data.Profile = profile
		data.Authenticated = vc.service.IsAuthenticated(ctx)
	}

	vc.views.render(c, http.StatusOK, route.View, data)
}

func (vc *ViewsController) fetchProfile(c *gin.Context) (*auth.Profile, error) {
	raw, err := vc.service.CurrentUser(c.Request.Context())
	if err != nil {
		if errors.Is(err, session.ErrUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return auth.DecodeProfile(raw)
}
