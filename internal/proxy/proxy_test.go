package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/hotsearch-web/internal/config"
)

type seen struct {
	host, path, query, forwardedHost string
}

func upstream(t *testing.T, tls bool, name string) (*httptest.Server, *seen) {
	t.Helper()
	s := &seen{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.host = r.Host
		s.path = r.URL.Path
		s.query = r.URL.RawQuery
		s.forwardedHost = r.Header.Get("X-Forwarded-Host")
		_, _ = io.WriteString(w, name)
	})
	var srv *httptest.Server
	if tls {
		srv = httptest.NewTLSServer(handler)
	} else {
		srv = httptest.NewServer(handler)
	}
	t.Cleanup(srv.Close)
	return srv, s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = "localhost:3000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestProxy_ForwardsPrefixWithChangeOrigin(t *testing.T) {
	srv, s := upstream(t, false, "backend")
	p, err := New([]Rule{{Prefix: "/api", Target: srv.URL, ChangeOrigin: true}})
	require.NoError(t, err)

	rr := get(t, p, "/api/hot-search?category=tech")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "backend", rr.Body.String())
	assert.Equal(t, "/api/hot-search", s.path)
	assert.Equal(t, "category=tech", s.query)

	u, _ := url.Parse(srv.URL)
	assert.Equal(t, u.Host, s.host)
	assert.Equal(t, "localhost:3000", s.forwardedHost)
}

func TestProxy_KeepsHostWithoutChangeOrigin(t *testing.T) {
	srv, s := upstream(t, false, "backend")
	p, err := New([]Rule{{Prefix: "/api", Target: srv.URL}})
	require.NoError(t, err)

	get(t, p, "/api/x")
	assert.Equal(t, "localhost:3000", s.host)
}

func TestProxy_InsecureTarget(t *testing.T) {
	srv, _ := upstream(t, true, "tls-backend")

	insecure, err := New([]Rule{{Prefix: "/api", Target: srv.URL, Secure: false}})
	require.NoError(t, err)
	rr := get(t, insecure, "/api/x")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tls-backend", rr.Body.String())

	// The test server's certificate is self-signed, so verification fails.
	secure, err := New([]Rule{{Prefix: "/api", Target: srv.URL, Secure: true}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, get(t, secure, "/api/x").Code)
}

type headerTransport struct {
	base  http.RoundTripper
	value string
}

func (h headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("X-Test", h.value)
	return h.base.RoundTrip(r)
}

func TestProxy_Options(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Test")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	var modified int
	p, err := New([]Rule{{Prefix: "/api", Target: srv.URL, ChangeOrigin: true}},
		WithTransport(func(base http.RoundTripper) http.RoundTripper {
			return headerTransport{base: base, value: "wrapped"}
		}),
		WithModifyResponse(func(resp *http.Response) error {
			modified = resp.StatusCode
			resp.Header.Set("X-Modified", "yes")
			return nil
		}),
	)
	require.NoError(t, err)

	rr := get(t, p, "/api/auth/me")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "wrapped", gotHeader)
	assert.Equal(t, http.StatusUnauthorized, modified)
	assert.Equal(t, "yes", rr.Header().Get("X-Modified"))
}

func TestProxy_LongestPrefixWins(t *testing.T) {
	general, _ := upstream(t, false, "general")
	specific, _ := upstream(t, false, "specific")

	p, err := New([]Rule{
		{Prefix: "/api", Target: general.URL},
		{Prefix: "/api/auth", Target: specific.URL},
	})
	require.NoError(t, err)

	assert.Equal(t, "specific", get(t, p, "/api/auth/me").Body.String())
	assert.Equal(t, "general", get(t, p, "/api/items").Body.String())
	assert.Equal(t, "general", get(t, p, "/api").Body.String())
}

func TestProxy_UnmatchedPaths(t *testing.T) {
	srv, _ := upstream(t, false, "backend")
	p, err := New([]Rule{{Prefix: "/api", Target: srv.URL}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, get(t, p, "/apidocs").Code)
	assert.Equal(t, http.StatusNotFound, get(t, p, "/login").Code)

	_, ok := p.Match("/detail/1")
	assert.False(t, ok)
}

func TestProxy_UpstreamDown(t *testing.T) {
	srv, _ := upstream(t, false, "backend")
	target := srv.URL
	srv.Close()

	p, err := New([]Rule{{Prefix: "/api", Target: target}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, get(t, p, "/api/x").Code)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoRules)

	_, err = New([]Rule{{Prefix: "api", Target: "http://localhost:8002"}})
	assert.Error(t, err)

	_, err = New([]Rule{{Prefix: "/api", Target: "localhost:8002"}})
	assert.Error(t, err)
}

func TestRulesFromConfig(t *testing.T) {
	cfg := &config.Config{
		API:   config.API{BaseURL: "http://localhost:8002"},
		Proxy: config.Proxy{ChangeOrigin: true, Insecure: true},
	}

	rules := RulesFromConfig(cfg)
	require.Len(t, rules, 1)
	assert.Equal(t, Rule{Prefix: "/api", Target: "http://localhost:8002", ChangeOrigin: true, Secure: false}, rules[0])

	cfg.Proxy.AuthPrefix = true
	rules = RulesFromConfig(cfg)
	require.Len(t, rules, 2)
	assert.Equal(t, "/auth", rules[1].Prefix)
	assert.Equal(t, "http://localhost:8002", rules[1].Target)
}
