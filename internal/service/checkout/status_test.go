package checkout

import (
	"errors"
	"testing"

	"storefront/internal/domain"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := [][2]Status{
		{StatusIdle, StatusValidating},
		{StatusValidating, StatusAwaitingPayment},
		{StatusValidating, StatusFailed},
		{StatusAwaitingPayment, StatusPersistingOrder},
		{StatusAwaitingPayment, StatusFailed},
		{StatusPersistingOrder, StatusCompleted},
		{StatusPersistingOrder, StatusFailed},
	}
	for _, tr := range allowed {
		if !CanTransitionTo(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]Status{
		{StatusIdle, StatusFailed},
		{StatusIdle, StatusPersistingOrder},
		{StatusValidating, StatusPersistingOrder},
		{StatusAwaitingPayment, StatusCompleted},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusValidating},
	}
	for _, tr := range denied {
		if CanTransitionTo(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be rejected", tr[0], tr[1])
		}
	}
}

func TestMachineRejectsSkippedStep(t *testing.T) {
	m := &machine{status: StatusValidating}
	err := m.moveTo(StatusPersistingOrder)
	var terr *domain.InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if m.status != StatusValidating {
		t.Fatalf("status changed on rejected transition: %s", m.status)
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if StatusAwaitingPayment.IsTerminal() {
		t.Fatalf("AWAITING_PAYMENT should not be terminal")
	}
}
