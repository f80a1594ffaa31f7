package storage

import (
	"context"

	"github.com/alexedwards/scs/v2"
)

// SessionStore keeps values in the caller's scs session, giving each browser
// its own token and profile. The context must come from a request that went
// through the session manager's load step.
type SessionStore struct {
	sm *scs.SessionManager
}

var _ Store = (*SessionStore)(nil)

func NewSessionStore(sm *scs.SessionManager) *SessionStore {
	return &SessionStore{sm: sm}
}

func (s *SessionStore) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	defer recoverNoSession(&err)
	if !s.sm.Exists(ctx, key) {
		return "", false, nil
	}
	return s.sm.GetString(ctx, key), true, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) (err error) {
	defer recoverNoSession(&err)
	s.sm.Put(ctx, key, value)
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) (err error) {
	defer recoverNoSession(&err)
	s.sm.Remove(ctx, key)
	return nil
}

// scs panics when the context has no session data.
func recoverNoSession(err *error) {
	if r := recover(); r != nil {
		*err = ErrNoSession
	}
}
