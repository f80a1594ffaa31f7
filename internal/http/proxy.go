package http

import (
	"net/http"
	"strings"

	"github.com/mrlokans/hotsearch-web/internal/navigation"
	"github.com/mrlokans/hotsearch-web/internal/proxy"
	"github.com/mrlokans/hotsearch-web/internal/session"
)

// ProxyOptions sends the visitor's session along with proxied backend calls.
// A 401 from the backend clears the session through the client; page
// navigations are then redirected to the login page, API calls get the 401.
func ProxyOptions(client *session.Client) []proxy.Option {
	return []proxy.Option{
		proxy.WithTransport(client.Interceptor),
		proxy.WithModifyResponse(redirectRejectedNavigation),
	}
}

func redirectRejectedNavigation(resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized || !isNavigation(resp.Request) {
		return nil
	}
	target, ok := navigation.PendingTarget(resp.Request.Context())
	if !ok {
		return nil
	}

	_ = resp.Body.Close()
	resp.StatusCode = http.StatusFound
	resp.Status = "302 Found"
	resp.Header = http.Header{}
	resp.Header.Set("Location", target)
	resp.Header.Set("Cache-Control", "no-store")
	resp.Body = http.NoBody
	resp.ContentLength = 0
	return nil
}

// isNavigation reports whether r is the browser loading a page rather than a
// script fetching data.
func isNavigation(r *http.Request) bool {
	if r == nil || r.Method != http.MethodGet {
		return false
	}
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
