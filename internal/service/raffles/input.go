package raffles

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/kirinyoku/raffle-go/internal/domain"
)

var errDrawDateInPast = errors.New("must be in the future")

type CreateInput struct {
	Title        string
	Description  string
	Prize        string
	PriceCents   int64
	TotalNumbers int
	DrawDate     time.Time
	ImageURL     string
}

func (in *CreateInput) Validate(now time.Time, maxTotal int) error {
	return validation.ValidateStruct(
		in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Description, validation.Length(0, 5000)),
		validation.Field(&in.Prize, validation.Required, validation.Length(1, 500)),
		validation.Field(&in.PriceCents, validation.Required, validation.Min(1), validation.Max(domain.MaxPriceCents)),
		validation.Field(&in.TotalNumbers, validation.Required, validation.Min(1), validation.Max(maxTotal)),
		validation.Field(&in.DrawDate, validation.Required, validation.By(future(now))),
		validation.Field(&in.ImageURL, is.URL),
	)
}

// UpdateInput holds optional changes. The number of tickets cannot change
// once a raffle exists.
type UpdateInput struct {
	Title       *string
	Description *string
	Prize       *string
	PriceCents  *int64
	DrawDate    *time.Time
	ImageURL    *string
}

func (in *UpdateInput) Validate(now time.Time) error {
	return validation.ValidateStruct(
		in,
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&in.Description, validation.Length(0, 5000)),
		validation.Field(&in.Prize, validation.NilOrNotEmpty, validation.Length(1, 500)),
		validation.Field(&in.PriceCents, validation.NilOrNotEmpty, validation.Min(1), validation.Max(domain.MaxPriceCents)),
		validation.Field(&in.DrawDate, validation.By(future(now))),
		validation.Field(&in.ImageURL, is.URL),
	)
}

func future(now time.Time) validation.RuleFunc {
	return func(value interface{}) error {
		var t time.Time
		switch v := value.(type) {
		case time.Time:
			t = v
		case *time.Time:
			if v == nil {
				return nil
			}
			t = *v
		default:
			return nil
		}

		if !t.After(now) {
			return errDrawDateInPast
		}

		return nil
	}
}
