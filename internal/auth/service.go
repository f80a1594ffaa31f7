package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/navigation"
	"github.com/mrlokans/hotsearch-web/internal/session"
	"github.com/mrlokans/hotsearch-web/internal/storage"
)

// Backend endpoints
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathMe       = "/api/auth/me"
	PathGitee    = "/api/auth/gitee"
)

// LoginTypeGitee tags profiles created by the external login callback.
const LoginTypeGitee = "gitee"

var (
	ErrMissingAccessToken = errors.New("login response did not contain an access token")
	ErrProfileFetch       = errors.New("failed to fetch profile after login")
)

// Service is the login/registration/session surface used by views and CLI
// commands. Network calls go through the session client, so a 401 from any
// of them clears the stored session before the error is returned here.
type Service struct {
	client    *session.Client
	store     storage.Store
	navigator navigation.Navigator
}

// NewService wires the facade to a session client. navigator receives the
// external provider's authorization URL; nil disables that navigation.
func NewService(client *session.Client, navigator navigation.Navigator) *Service {
	return &Service{
		client:    client,
		store:     client.Store(),
		navigator: navigator,
	}
}

// Login posts form-encoded credentials, stores the returned token and then
// fetches and caches the current user. The token is stored before the profile
// request goes out; if that request fails the token stays stored with no
// cached profile and an error wrapping ErrProfileFetch is returned.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var raw json.RawMessage
	if err := s.client.Post(ctx, PathLogin, session.Form(form), &raw); err != nil {
		return nil, err
	}

	resp, err := decodeLoginResponse(raw)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	if err := s.SetToken(ctx, resp.AccessToken); err != nil {
		return nil, err
	}

	var profile json.RawMessage
	if err := s.client.Get(ctx, PathMe, &profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileFetch, err)
	}
	if err := s.store.Set(ctx, storage.KeyUser, string(profile)); err != nil {
		return nil, fmt.Errorf("failed to cache profile: %w", err)
	}

	log.Ctx(ctx).Info().Str("username", username).Msg("auth: logged in")
	return resp, nil
}

// Register creates an account. Stored session state is never touched.
func (s *Service) Register(ctx context.Context, username, email, password string) (json.RawMessage, error) {
	req := RegisterRequest{Username: username, Email: email, Password: password}

	var raw json.RawMessage
	if err := s.client.Post(ctx, PathRegister, session.JSON(req), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CurrentUser fetches the authenticated user. Nothing is cached.
func (s *Service) CurrentUser(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, PathMe, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Logout forgets the token and cached profile without calling the backend.
func (s *Service) Logout(ctx context.Context) error {
	return storage.Clear(ctx, s.store)
}

func (s *Service) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, storage.KeyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Token returns the stored token, or "" when there is none.
func (s *Service) Token(ctx context.Context) (string, error) {
	token, _, err := s.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// IsAuthenticated reports whether a non-empty token is stored right now.
// The token is not validated against the backend.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("auth: treating unreadable session as unauthenticated")
		return false
	}
	return token != ""
}

// GiteeLogin asks the backend where to send the user for the external login
// and navigates there when an auth_url is present. The response is returned
// either way.
func (s *Service) GiteeLogin(ctx context.Context) (*GiteeAuthResponse, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, PathGitee, &raw); err != nil {
		return nil, err
	}

	resp := &GiteeAuthResponse{Raw: raw}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("failed to decode gitee response: %w", err)
	}

	if resp.AuthURL != "" && s.navigator != nil {
		s.navigator.Navigate(ctx, resp.AuthURL)
	}
	return resp, nil
}

// HandleGiteeCallback stores the token handed back by the external login and
// a placeholder profile. An empty token writes nothing and reports false. If
// either write fails both keys are cleared, so false always means logged out.
func (s *Service) HandleGiteeCallback(ctx context.Context, token, avatarURL string) bool {
	if token == "" {
		return false
	}

	placeholder, err := json.Marshal(externalProfile{LoginType: LoginTypeGitee, AvatarURL: avatarURL})
	if err != nil {
		return false
	}

	if err := s.SetToken(ctx, token); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("auth: gitee callback could not store token")
		return false
	}
	if err := s.store.Set(ctx, storage.KeyUser, string(placeholder)); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("auth: gitee callback could not store profile")
		if err := storage.Clear(ctx, s.store); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("auth: gitee callback could not roll back token")
		}
		return false
	}
	return true
}

// CachedUser decodes the cached profile, or returns nil when none is stored.
func (s *Service) CachedUser(ctx context.Context) (*Profile, error) {
	raw, ok, err := s.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached profile: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	return DecodeProfile(json.RawMessage(raw))
}

func decodeLoginResponse(raw json.RawMessage) (*LoginResponse, error) {
	resp := &LoginResponse{Raw: raw}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return resp, nil
}
