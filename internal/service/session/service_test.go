package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndLookup(t *testing.T) {
	svc := New(time.Hour)
	token, sid, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(sid); err != nil {
		t.Fatalf("session id is not a uuid: %q", sid)
	}
	got, err := svc.Lookup(context.Background(), token)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != sid {
		t.Fatalf("expected %s, got %s", sid, got)
	}
}

func TestLookupUnknownToken(t *testing.T) {
	svc := New(time.Hour)
	if _, err := svc.Lookup(context.Background(), "nope"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	svc := New(time.Minute)
	now := time.Now()
	svc.tokens.now = func() time.Time { return now }

	token, _, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := svc.Lookup(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestEndRevokesToken(t *testing.T) {
	svc := New(time.Hour)
	token, sid, _ := svc.Issue(context.Background())

	ended, err := svc.End(context.Background(), token)
	if err != nil || ended != sid {
		t.Fatalf("unexpected end result %q, %v", ended, err)
	}
	if _, err := svc.Lookup(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
	if _, err := svc.End(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected second end to fail, got %v", err)
	}
}

func TestTokensAreDistinct(t *testing.T) {
	svc := New(0)
	a, sa, _ := svc.Issue(context.Background())
	b, sb, _ := svc.Issue(context.Background())
	if a == b || sa == sb {
		t.Fatalf("expected distinct tokens and sessions")
	}
	if svc.TTLSeconds() != int((72 * time.Hour).Seconds()) {
		t.Fatalf("unexpected default ttl %d", svc.TTLSeconds())
	}
}
