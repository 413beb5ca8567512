package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
)

type ReserveParams struct {
	Token     uuid.UUID
	RaffleID  uuid.UUID
	Numbers   []int
	Buyer     domain.Buyer
	Now       time.Time
	ExpiresAt time.Time
}

// RaffleUpdate carries the mutable raffle fields. Nil means unchanged.
type RaffleUpdate struct {
	Title       *string
	Description *string
	Prize       *string
	PriceCents  *int64
	ImageURL    *string
	DrawDate    *time.Time
}

type NumberFilter struct {
	Status domain.NumberStatus
	Limit  int
	Offset int
}

// PickFunc chooses the winner from the sold numbers, given in ascending
// order, and returns the audit digest recorded with the draw.
type PickFunc func(sold []int) (winner int, digest string, err error)

type DrawOutcome struct {
	Raffle domain.Raffle
	Number domain.RaffleNumber
	Sold   []int
}

// Resolution is the result of confirming or releasing a reservation.
// Purchase is set when a purchase was bound to the reservation token.
type Resolution struct {
	Reservation domain.Reservation
	Purchase    *domain.Purchase
}
