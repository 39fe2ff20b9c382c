package checkout

import "storefront/internal/domain"

type Status string

const (
	StatusIdle            Status = "IDLE"
	StatusValidating      Status = "VALIDATING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPersistingOrder Status = "PERSISTING_ORDER"
	StatusCompleted       Status = "COMPLETED"
	StatusFailed          Status = "FAILED"
)

var transitions = map[Status][]Status{
	StatusIdle:            {StatusValidating},
	StatusValidating:      {StatusAwaitingPayment, StatusFailed},
	StatusAwaitingPayment: {StatusPersistingOrder, StatusFailed},
	StatusPersistingOrder: {StatusCompleted, StatusFailed},
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

func CanTransitionTo(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type machine struct {
	status Status
}

func (m *machine) moveTo(to Status) error {
	if !CanTransitionTo(m.status, to) {
		return &domain.InvalidTransitionError{From: m.status.String(), To: to.String()}
	}
	m.status = to
	return nil
}
