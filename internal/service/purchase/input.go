package purchase

import (
	"errors"
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
)

var errTotalTooLarge = errors.New("total price is too large")

type SubmitRequest struct {
	RaffleID uuid.UUID
	Numbers  []int
	Buyer    domain.Buyer
	// ClientKey identifies the caller for rate limiting, usually the IP.
	ClientKey string
	// TTL overrides the reservation lifetime; zero uses the configured one.
	TTL time.Duration
}

func validateBuyer(b *domain.Buyer) error {
	return validation.ValidateStruct(
		b,
		validation.Field(&b.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&b.Phone, validation.Required, validation.Length(3, 40)),
		validation.Field(&b.Email, validation.Required, is.Email),
	)
}

// totalCents returns price times count, failing instead of wrapping.
func totalCents(price int64, count int) (int64, error) {
	if price < 0 || count < 0 {
		return 0, errTotalTooLarge
	}
	if count > 0 && price > math.MaxInt64/int64(count) {
		return 0, errTotalTooLarge
	}
	return price * int64(count), nil
}
