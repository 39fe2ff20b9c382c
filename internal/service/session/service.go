// Package session issues the opaque bearer tokens that identify a browsing session.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

type Service struct {
	tokens *tokenManager
	ttl    time.Duration
}

func New(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Service{tokens: newTokenManager(), ttl: ttl}
}

// Issue starts a session and returns its token and id.
func (s *Service) Issue(_ context.Context) (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	token, err = s.tokens.Issue(sessionID, s.ttl)
	if err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

func (s *Service) Lookup(_ context.Context, token string) (string, error) {
	meta, ok := s.tokens.Validate(token)
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.SessionID, nil
}

// End revokes the token and returns the session it belonged to.
func (s *Service) End(_ context.Context, token string) (string, error) {
	meta, ok := s.tokens.Revoke(token)
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.SessionID, nil
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
