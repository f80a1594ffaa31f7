package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/hotsearch-web/internal/navigation"
	"github.com/mrlokans/hotsearch-web/internal/router"
	"github.com/mrlokans/hotsearch-web/internal/session"
)

// PendingNavigationMiddleware gives each request a slot in which the auth
// facade and the session-invalidated subscriber can request a redirect.
func PendingNavigationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(navigation.WithPending(c.Request.Context()))
		c.Next()
	}
}

// SubscribeLoginRedirect sends the browser to the login page whenever the
// backend rejects its token. The returned func removes the subscription.
func SubscribeLoginRedirect(events *session.Events) (unsubscribe func()) {
	return events.Subscribe(func(ctx context.Context, evt session.Event) {
		if evt.Type == session.EventSessionInvalidated {
			navigation.Recorder{}.Navigate(ctx, router.LoginPath)
		}
	})
}

// followPending answers with a redirect when one was requested during this
// request. A redirect to the page being served is ignored so forms can show
// their own error.
func followPending(c *gin.Context) bool {
	target, ok := navigation.PendingTarget(c.Request.Context())
	if !ok || target == c.Request.URL.Path {
		return false
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
	return true
}
