// Package proxy forwards backend path prefixes from the frontend server to
// the hot-search API, the way a dev server proxy does.
package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/config"
)

var ErrNoRules = errors.New("proxy: no rules configured")

// Rule forwards every request whose path starts with Prefix to Target.
// ChangeOrigin rewrites the Host header to the target's host. Secure=false
// skips TLS certificate verification towards the target.
type Rule struct {
	Prefix       string
	Target       string
	ChangeOrigin bool
	Secure       bool
}

// RulesFromConfig returns the /api rule and, when enabled, the /auth rule.
func RulesFromConfig(cfg *config.Config) []Rule {
	rule := func(prefix string) Rule {
		return Rule{
			Prefix:       prefix,
			Target:       cfg.API.BaseURL,
			ChangeOrigin: cfg.Proxy.ChangeOrigin,
			Secure:       !cfg.Proxy.Insecure,
		}
	}

	rules := []Rule{rule("/api")}
	if cfg.Proxy.AuthPrefix {
		rules = append(rules, rule("/auth"))
	}
	return rules
}

type route struct {
	rule  Rule
	proxy *httputil.ReverseProxy
}

// Proxy dispatches requests to the rule with the longest matching prefix.
type Proxy struct {
	routes []route
}

// Option customises every rule's reverse proxy.
type Option func(*options)

type options struct {
	wrap           func(http.RoundTripper) http.RoundTripper
	modifyResponse func(*http.Response) error
}

// WithTransport wraps the upstream transport of each rule, e.g. to attach the
// visitor's credentials.
func WithTransport(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(o *options) { o.wrap = wrap }
}

// WithModifyResponse sees every upstream response before it is copied to the
// client.
func WithModifyResponse(fn func(*http.Response) error) Option {
	return func(o *options) { o.modifyResponse = fn }
}

// New builds one reverse proxy per rule.
func New(rules []Rule, opts ...Option) (*Proxy, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Proxy{}
	for _, r := range rules {
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("proxy: prefix %q must start with /", r.Prefix)
		}
		target, err := url.Parse(r.Target)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("proxy: invalid target %q for %s", r.Target, r.Prefix)
		}
		p.routes = append(p.routes, route{rule: r, proxy: newReverseProxy(r, target, o)})
	}

	sort.SliceStable(p.routes, func(i, j int) bool {
		return len(p.routes[i].rule.Prefix) > len(p.routes[j].rule.Prefix)
	})
	return p, nil
}

func newReverseProxy(rule Rule, target *url.URL, o options) *httputil.ReverseProxy {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if !rule.Secure {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // dev proxy, opt-in
	}
	var transport http.RoundTripper = base
	if o.wrap != nil {
		transport = o.wrap(base)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if !rule.ChangeOrigin {
				pr.Out.Host = pr.In.Host
			}
		},
		Transport:      transport,
		ModifyResponse: o.modifyResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, context.Canceled) {
				log.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("proxy: client went away")
			} else {
				log.Ctx(r.Context()).Error().Err(err).
					Str("path", r.URL.Path).
					Str("target", target.String()).
					Msg("proxy: upstream request failed")
			}
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

// Match returns the rule that would serve path.
func (p *Proxy) Match(path string) (Rule, bool) {
	if rt, ok := p.match(path); ok {
		return rt.rule, true
	}
	return Rule{}, false
}

func (p *Proxy) match(path string) (route, bool) {
	for _, rt := range p.routes {
		if hasPathPrefix(path, rt.rule.Prefix) {
			return rt, true
		}
	}
	return route{}, false
}

// hasPathPrefix matches whole segments so /api does not claim /apidocs.
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || strings.HasSuffix(prefix, "/") || path[len(prefix)] == '/'
}

var _ http.Handler = (*Proxy)(nil)

// ServeHTTP forwards r, or answers 404 when no rule matches.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, ok := p.match(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	rt.proxy.ServeHTTP(w, r)
}
