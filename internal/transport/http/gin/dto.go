package httpgin

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/service/purchase"
	"github.com/kirinyoku/raffle-go/internal/service/raffles"
	"github.com/shopspring/decimal"
)

var (
	errPriceFormat   = errors.New("must be positive with at most two decimal places")
	errPriceTooLarge = errors.New("exceeds the maximum ticket price")

	maxPrice = fromCents(domain.MaxPriceCents)
)

type CreateRaffleRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Prize        string          `json:"prize"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"10.50"`
	TotalNumbers int             `json:"total_numbers"`
	DrawDate     time.Time       `json:"draw_date"`
	ImageURL     string          `json:"image_url"`
}

func (r CreateRaffleRequest) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Prize, validation.Required),
		validation.Field(&r.Price, validation.By(validPrice)),
		validation.Field(&r.TotalNumbers, validation.Required),
		validation.Field(&r.DrawDate, validation.Required),
	)
}

func (r CreateRaffleRequest) toInput() raffles.CreateInput {
	return raffles.CreateInput{
		Title:        r.Title,
		Description:  r.Description,
		Prize:        r.Prize,
		PriceCents:   toCents(r.Price),
		TotalNumbers: r.TotalNumbers,
		DrawDate:     r.DrawDate,
		ImageURL:     r.ImageURL,
	}
}

// UpdateRaffleRequest changes only the fields present in the body.
type UpdateRaffleRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Prize       *string          `json:"prize"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string" example:"12.00"`
	DrawDate    *time.Time       `json:"draw_date"`
	ImageURL    *string          `json:"image_url"`
}

func (r UpdateRaffleRequest) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.Price, validation.By(func(v interface{}) error {
			p, _ := v.(*decimal.Decimal)
			if p == nil {
				return nil
			}
			return validPrice(*p)
		})),
	)
}

func (r UpdateRaffleRequest) toInput() raffles.UpdateInput {
	in := raffles.UpdateInput{
		Title:       r.Title,
		Description: r.Description,
		Prize:       r.Prize,
		DrawDate:    r.DrawDate,
		ImageURL:    r.ImageURL,
	}
	if r.Price != nil {
		cents := toCents(*r.Price)
		in.PriceCents = &cents
	}
	return in
}

type BuyerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type PurchaseRequest struct {
	RaffleID string       `json:"raffle_id"`
	Numbers  []int        `json:"numbers"`
	Buyer    BuyerRequest `json:"buyer"`
	TTLSec   int          `json:"ttl_sec"`
}

func (r PurchaseRequest) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.RaffleID, validation.Required, is.UUID),
		validation.Field(&r.Numbers, validation.Required),
		validation.Field(&r.TTLSec, validation.Min(0)),
	)
}

func (r PurchaseRequest) toSubmit(clientKey string) purchase.SubmitRequest {
	return purchase.SubmitRequest{
		RaffleID: uuid.MustParse(r.RaffleID),
		Numbers:  r.Numbers,
		Buyer: domain.Buyer{
			Name:  r.Buyer.Name,
			Phone: r.Buyer.Phone,
			Email: r.Buyer.Email,
		},
		ClientKey: clientKey,
		TTL:       time.Duration(r.TTLSec) * time.Second,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(
		&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MeResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ConflictResponse lists the numbers that blocked a purchase.
type ConflictResponse struct {
	Error   string `json:"error"`
	Numbers []int  `json:"numbers"`
}

// UpstreamResponse echoes the selection back so the buyer can retry it.
type UpstreamResponse struct {
	Error    string    `json:"error"`
	RaffleID uuid.UUID `json:"raffle_id"`
	Numbers  []int     `json:"numbers"`
}

type RaffleResponse struct {
	domain.Raffle
	Price decimal.Decimal `json:"price" swaggertype:"string" example:"10.50"`
}

func toRaffleResponse(r *domain.Raffle) RaffleResponse {
	return RaffleResponse{Raffle: *r, Price: fromCents(r.PriceCents)}
}

func toRaffleResponses(rs []domain.Raffle) []RaffleResponse {
	out := make([]RaffleResponse, len(rs))
	for i := range rs {
		out[i] = toRaffleResponse(&rs[i])
	}
	return out
}

// NumberResponse is the public view of a number. Only the buyer's name is
// shown; contact details stay on the admin purchase listing.
type NumberResponse struct {
	RaffleID   uuid.UUID           `json:"raffle_id"`
	Number     int                 `json:"number"`
	Status     domain.NumberStatus `json:"status"`
	BuyerName  string              `json:"buyer_name,omitempty"`
	ReservedAt *time.Time          `json:"reserved_at,omitempty"`
	SoldAt     *time.Time          `json:"sold_at,omitempty"`
}

func toNumberResponses(nums []domain.RaffleNumber) []NumberResponse {
	out := make([]NumberResponse, len(nums))
	for i, n := range nums {
		out[i] = NumberResponse{
			RaffleID:   n.RaffleID,
			Number:     n.Number,
			Status:     n.Status,
			ReservedAt: n.ReservedAt,
			SoldAt:     n.SoldAt,
		}
		if n.Buyer != nil {
			out[i].BuyerName = n.Buyer.Name
		}
	}
	return out
}

type PurchaseResponse struct {
	*purchase.Attempt
	Total decimal.Decimal `json:"total" swaggertype:"string" example:"21.00"`
}

type ReleaseResponse struct {
	Token    uuid.UUID `json:"token"`
	Released []int     `json:"released"`
}

type WebhookResponse struct {
	Status string `json:"status"`
}

func validPrice(v interface{}) error {
	p, _ := v.(decimal.Decimal)
	if !p.IsPositive() || !p.Shift(2).IsInteger() {
		return errPriceFormat
	}
	if p.GreaterThan(maxPrice) {
		return errPriceTooLarge
	}
	return nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
