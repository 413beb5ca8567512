package purchase

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateCreated         State = "created"
	StateReserving       State = "reserving"
	StateReserved        State = "reserved"
	StateAwaitingPayment State = "awaiting_payment"
	StateConfirmed       State = "confirmed"
	StateFailed          State = "failed"
)

var transitions = map[State][]State{
	StateCreated:         {StateReserving, StateFailed},
	StateReserving:       {StateReserved, StateFailed},
	StateReserved:        {StateAwaitingPayment, StateFailed},
	StateAwaitingPayment: {StateConfirmed, StateFailed},
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// Attempt is the outcome of a purchase submission as seen by the buyer.
type Attempt struct {
	State       State     `json:"state"`
	RaffleID    uuid.UUID `json:"raffle_id"`
	Numbers     []int     `json:"numbers"`
	PurchaseID  uuid.UUID `json:"purchase_id,omitempty"`
	Token       uuid.UUID `json:"reservation_token,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	TotalCents  int64     `json:"total_cents,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Conflict    []int     `json:"conflict,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

func newAttempt(raffleID uuid.UUID, numbers []int) *Attempt {
	return &Attempt{
		State:    StateCreated,
		RaffleID: raffleID,
		Numbers:  append([]int(nil), numbers...),
	}
}

func (a *Attempt) advance(to State) error {
	if !a.State.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, a.State, to)
	}
	a.State = to
	return nil
}

func (a *Attempt) fail(reason string) {
	if a.State.Terminal() {
		return
	}
	a.State = StateFailed
	a.Reason = reason
}
