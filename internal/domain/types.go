package domain

import (
	"time"

	"github.com/google/uuid"
)

type RaffleStatus string

const (
	RaffleActive    RaffleStatus = "active"
	RaffleCompleted RaffleStatus = "completed"
	RaffleCancelled RaffleStatus = "cancelled"
)

func (s RaffleStatus) Valid() bool {
	switch s {
	case RaffleActive, RaffleCompleted, RaffleCancelled:
		return true
	}
	return false
}

type NumberStatus string

const (
	NumberAvailable NumberStatus = "available"
	NumberReserved  NumberStatus = "reserved"
	NumberSold      NumberStatus = "sold"
)

func (s NumberStatus) Valid() bool {
	switch s {
	case NumberAvailable, NumberReserved, NumberSold:
		return true
	}
	return false
}

// CanTransition reports whether a number may move from s to next.
// Sold is terminal.
func (s NumberStatus) CanTransition(next NumberStatus) bool {
	switch s {
	case NumberAvailable:
		return next == NumberReserved || next == NumberSold
	case NumberReserved:
		return next == NumberSold || next == NumberAvailable
	}
	return false
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationReleased  ReservationStatus = "released"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseConfirmed PurchaseStatus = "confirmed"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

type Buyer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// MaxPriceCents is the highest ticket price accepted, one billion in the
// major unit.
const MaxPriceCents int64 = 100_000_000_000

type Raffle struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Prize        string       `json:"prize"`
	PriceCents   int64        `json:"price_cents"`
	TotalNumbers int          `json:"total_numbers"`
	ImageURL     string       `json:"image_url,omitempty"`
	DrawDate     time.Time    `json:"draw_date"`
	Status       RaffleStatus `json:"status"`
	WinnerNumber *int         `json:"winner_number,omitempty"`
	DrawnAt      *time.Time   `json:"drawn_at,omitempty"`
	DrawDigest   string       `json:"draw_digest,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Drawable reports whether the raffle still accepts a draw.
func (r *Raffle) Drawable() bool {
	return r.Status == RaffleActive && r.WinnerNumber == nil
}

// InRange reports whether n is a valid number for the raffle.
func (r *Raffle) InRange(n int) bool {
	return n >= 1 && n <= r.TotalNumbers
}

type RaffleNumber struct {
	RaffleID         uuid.UUID    `json:"raffle_id"`
	Number           int          `json:"number"`
	Status           NumberStatus `json:"status"`
	Buyer            *Buyer       `json:"buyer,omitempty"`
	ReservationToken *uuid.UUID   `json:"-"`
	PurchaseID       *uuid.UUID   `json:"purchase_id,omitempty"`
	ReservedAt       *time.Time   `json:"reserved_at,omitempty"`
	SoldAt           *time.Time   `json:"sold_at,omitempty"`
}

type Reservation struct {
	Token      uuid.UUID         `json:"token"`
	RaffleID   uuid.UUID         `json:"raffle_id"`
	Numbers    []int             `json:"numbers"`
	Buyer      Buyer             `json:"buyer"`
	Status     ReservationStatus `json:"status"`
	ExpiresAt  time.Time         `json:"expires_at"`
	CreatedAt  time.Time         `json:"created_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

type Purchase struct {
	ID               uuid.UUID      `json:"id"`
	RaffleID         uuid.UUID      `json:"raffle_id"`
	Numbers          []int          `json:"numbers"`
	Buyer            Buyer          `json:"buyer"`
	TotalCents       int64          `json:"total_cents"`
	Currency         string         `json:"currency"`
	Status           PurchaseStatus `json:"status"`
	ReservationToken uuid.UUID      `json:"reservation_token"`
	SessionID        string         `json:"session_id,omitempty"`
	CheckoutURL      string         `json:"checkout_url,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type NumberCounts struct {
	Available int64 `json:"available"`
	Reserved  int64 `json:"reserved"`
	Sold      int64 `json:"sold"`
	Total     int64 `json:"total"`
}

// Consistent reports whether the three buckets partition the total.
func (c NumberCounts) Consistent() bool {
	return c.Available >= 0 && c.Reserved >= 0 && c.Sold >= 0 &&
		c.Available+c.Reserved+c.Sold == c.Total
}

type RaffleStats struct {
	RaffleID           uuid.UUID `json:"raffle_id"`
	NumberCounts       `json:"numbers"`
	RevenueCents       int64   `json:"revenue_cents"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

type AdminStats struct {
	TotalRaffles     int64 `json:"total_raffles"`
	ActiveRaffles    int64 `json:"active_raffles"`
	CompletedRaffles int64 `json:"completed_raffles"`
	TotalPurchases   int64 `json:"total_purchases"`
	NumbersSold      int64 `json:"numbers_sold"`
	RevenueCents     int64 `json:"revenue_cents"`
}

type DrawResult struct {
	RaffleID     uuid.UUID `json:"raffle_id"`
	WinnerNumber int       `json:"winner_number"`
	Winner       Buyer     `json:"winner"`
	SoldCount    int       `json:"sold_count"`
	Digest       string    `json:"digest"`
	DrawnAt      time.Time `json:"drawn_at"`
}
