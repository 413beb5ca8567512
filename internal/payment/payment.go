package payment

import (
	"context"
	"errors"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrMalformedPayload = errors.New("malformed payment payload")
	// ErrIgnoredEvent marks provider events that carry no payment outcome.
	ErrIgnoredEvent = errors.New("event ignored")
)

type SessionRequest struct {
	// Reference is echoed back on notifications; the purchase id.
	Reference     string
	AmountCents   int64
	Currency      string
	Quantity      int64
	UnitCents     int64
	Description   string
	CustomerEmail string
	Metadata      map[string]string
}

type Session struct {
	ID          string
	RedirectURL string
}

// Notification is a verified payment outcome. Amount and currency are as
// reported by the provider and must be checked against the purchase.
type Notification struct {
	EventID     string
	SessionID   string
	Reference   string
	Outcome     Outcome
	AmountCents int64
	Currency    string
}

// Provider creates hosted payment sessions and authenticates the provider's
// asynchronous notifications.
type Provider interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseNotification(payload []byte, signatureHeader string) (*Notification, error)
	SignatureHeader() string
}
