package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Decision is the outcome of a guard check. An empty Redirect means proceed.
type Decision struct {
	Redirect string
}

func (d Decision) Proceed() bool { return d.Redirect == "" }

// Decide applies the access rule for navigating to route. The first matching
// rule wins:
//
//  1. requiresAuth and not authenticated: go to /login
//  2. guest and authenticated: go to /
//  3. otherwise proceed
func Decide(to Route, authenticated bool) Decision {
	switch {
	case to.Meta.RequiresAuth && !authenticated:
		return Decision{Redirect: LoginPath}
	case to.Meta.Guest && authenticated:
		return Decision{Redirect: HomePath}
	default:
		return Decision{}
	}
}

// Guard runs Decide for requests that hit a view route.
type Guard struct {
	table *Table
}

func NewGuard(table *Table) *Guard {
	return &Guard{table: table}
}

// Handler returns middleware for view routes. authenticated reports whether
// the current visitor holds a token; it is evaluated on every request. Paths
// that are not in the table pass through untouched.
func (g *Guard) Handler(authenticated func(*gin.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route, ok := g.table.Lookup(c.FullPath())
		if !ok {
			route, _, ok = g.table.Match(c.Request.URL.Path)
		}
		if !ok {
			c.Next()
			return
		}

		d := Decide(route, authenticated(c))
		if d.Proceed() {
			c.Set(RouteContextKey, route)
			c.Next()
			return
		}

		log.Ctx(c.Request.Context()).Debug().
			Str("route", route.Name).
			Str("redirect", d.Redirect).
			Msg("router: navigation redirected")
		c.Redirect(http.StatusFound, d.Redirect)
		c.Abort()
	}
}

// RouteContextKey holds the matched Route once the guard lets a request through.
const RouteContextKey = "router_route"

// CurrentRoute returns the route the guard matched for this request.
func CurrentRoute(c *gin.Context) (Route, bool) {
	v, ok := c.Get(RouteContextKey)
	if !ok {
		return Route{}, false
	}
	r, ok := v.(Route)
	return r, ok
}
