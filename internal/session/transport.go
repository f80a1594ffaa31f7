package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/mrlokans/hotsearch-web/internal/storage"
)

// RequestIDHeader correlates client log lines with backend logs.
const RequestIDHeader = "X-Request-ID"

// bearerTransport reads the stored token on every request and, when one is
// present, attaches it as a bearer credential. Without a token the request
// goes out unauthenticated. A caller-supplied Authorization header is kept.
type bearerTransport struct {
	base  http.RoundTripper
	store storage.Store
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())

	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}

	token, ok, err := t.store.Get(req.Context(), storage.KeyToken)
	if err != nil {
		log.Ctx(req.Context()).Warn().Err(err).Msg("session: could not read token, sending request unauthenticated")
	} else if ok && token != "" && out.Header.Get("Authorization") == "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	}

	return t.base.RoundTrip(out)
}

// unauthorizedTransport invalidates the session when a response built outside
// Do comes back 401. The response itself is passed on untouched.
type unauthorizedTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.client.invalidate(req.Context(), &APIError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
		})
	}
	return resp, nil
}
