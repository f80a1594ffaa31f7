// Package storage persists the client-side session: the bearer token and the
// cached user profile. It replaces ambient browser storage with an explicit
// Store handed to whoever needs it.
package storage

import (
	"context"
	"errors"
)

// Keys used by the session layer.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrNoSession is returned by SessionStore when the request context carries no
// loaded session.
var ErrNoSession = errors.New("no session loaded in context")

// Store is a string key/value store scoped by whatever the context carries
// (a browser session, a CLI profile, or nothing at all).
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}

// Clear deletes the token and the cached profile, returning the first error.
func Clear(ctx context.Context, s Store) error {
	errToken := s.Delete(ctx, KeyToken)
	errUser := s.Delete(ctx, KeyUser)
	return errors.Join(errToken, errUser)
}
