package auth

import (
	"encoding/json"
	"fmt"
)

// LoginResponse is the login endpoint's body. Raw keeps it verbatim.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GiteeAuthResponse carries the external provider's authorization URL, when
// the backend has one configured.
type GiteeAuthResponse struct {
	AuthURL string          `json:"auth_url,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Profile is the cached user. Only the fields views care about are decoded;
// Raw holds everything the backend sent.
type Profile struct {
	Username  string          `json:"username,omitempty"`
	Email     string          `json:"email,omitempty"`
	LoginType string          `json:"login_type,omitempty"`
	AvatarURL string          `json:"avatar_url,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// DisplayName picks something readable for the header bar.
func (p *Profile) DisplayName() string {
	switch {
	case p == nil:
		return ""
	case p.Username != "":
		return p.Username
	case p.LoginType != "":
		return p.LoginType + " user"
	default:
		return "user"
	}
}

// externalProfile is written by the external login callback. Both fields are
// always present, even when the avatar is empty.
type externalProfile struct {
	LoginType string `json:"login_type"`
	AvatarURL string `json:"avatar_url"`
}

// DecodeProfile reads a user body as returned by the backend or cached in
// storage.
func DecodeProfile(raw json.RawMessage) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.Raw = raw
	return &p, nil
}
