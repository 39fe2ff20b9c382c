package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrCheckoutInProgress is returned while a session already has a checkout awaiting payment or persistence.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// ValidationError covers an empty cart or missing form fields.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, ", "))
	}
	return msg
}

// PaymentError is a wallet connect or send failure. It is never retried automatically.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	if e.Err == nil {
		return "payment failed"
	}
	return "payment failed: " + e.Err.Error()
}

func (e *PaymentError) Unwrap() error { return e.Err }

// PersistenceError means the payment went through but the order record was not saved.
type PersistenceError struct {
	TxHash string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("payment succeeded (tx %s), order record failed to save: %v", e.TxHash, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError is returned when the confirmation step finds no pending order.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "not found"
	}
	return e.Message
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid checkout transition from %s to %s", e.From, e.To)
}

type Kind string

const (
	KindValidation  Kind = "validation"
	KindPayment     Kind = "payment"
	KindPersistence Kind = "persistence"
	KindNotFound    Kind = "not_found"
	KindInternal    Kind = "internal"
)

// KindOf maps err onto the user-facing error taxonomy.
func KindOf(err error) Kind {
	var (
		validation  *ValidationError
		payment     *PaymentError
		persistence *PersistenceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &persistence):
		return KindPersistence
	case errors.As(err, &payment):
		return KindPayment
	case errors.As(err, &validation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
