package raffles

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/kirinyoku/raffle-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() CreateInput {
	return CreateInput{
		Title:        "Motorbike",
		Description:  "Brand new",
		Prize:        "125cc motorbike",
		PriceCents:   2500,
		TotalNumbers: 100,
		DrawDate:     time.Now().Add(7 * 24 * time.Hour),
		ImageURL:     "https://cdn.example.com/bike.png",
	}
}

func TestCreate(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, nil, Config{MaxTotalNumbers: 1000})
	ctx := context.Background()

	r, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.RaffleActive, r.Status)

	c, err := store.CountNumbers(ctx, r.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, c.Available)
	assert.EqualValues(t, 100, c.Total)
}

func TestCreate_Validation(t *testing.T) {
	svc := New(memory.NewStore(), nil, nil, Config{MaxTotalNumbers: 1000})

	tests := map[string]func(in *CreateInput){
		"no title":       func(in *CreateInput) { in.Title = "" },
		"no prize":       func(in *CreateInput) { in.Prize = "" },
		"zero price":     func(in *CreateInput) { in.PriceCents = 0 },
		"negative price": func(in *CreateInput) { in.PriceCents = -1 },
		"price too high": func(in *CreateInput) { in.PriceCents = domain.MaxPriceCents + 1 },
		"zero numbers":   func(in *CreateInput) { in.TotalNumbers = 0 },
		"too many":       func(in *CreateInput) { in.TotalNumbers = 1001 },
		"past draw":      func(in *CreateInput) { in.DrawDate = time.Now().Add(-time.Hour) },
		"bad image":      func(in *CreateInput) { in.ImageURL = "not a url" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)

			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUpdate(t *testing.T) {
	svc := New(memory.NewStore(), nil, nil, Config{})
	ctx := context.Background()

	r, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	price := int64(3000)
	title := "Motorbike 2"
	updated, err := svc.Update(ctx, r.ID, UpdateInput{PriceCents: &price, Title: &title})
	require.NoError(t, err)
	assert.EqualValues(t, 3000, updated.PriceCents)
	assert.Equal(t, "Motorbike 2", updated.Title)
	assert.Equal(t, r.Prize, updated.Prize)

	zero := int64(0)
	_, err = svc.Update(ctx, r.ID, UpdateInput{PriceCents: &zero})
	assert.ErrorIs(t, err, domain.ErrValidation)

	huge := int64(math.MaxInt64/2 + 1)
	_, err = svc.Update(ctx, r.ID, UpdateInput{PriceCents: &huge})
	assert.ErrorIs(t, err, domain.ErrValidation)

	past := time.Now().Add(-time.Minute)
	_, err = svc.Update(ctx, r.ID, UpdateInput{DrawDate: &past})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCancelAndDelete(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, nil, Config{})
	ctx := context.Background()

	r, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = store.Reserve(ctx, repository.ReserveParams{
		Token:     uuid.New(),
		RaffleID:  r.ID,
		Numbers:   []int{1},
		Buyer:     domain.Buyer{Name: "Ana"},
		Now:       time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRaffleInUse)

	cancelled, err := svc.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RaffleCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRaffleNotActive)

	require.NoError(t, svc.Delete(ctx, r.ID))

	_, err = svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrRaffleNotFound)
}

func TestList(t *testing.T) {
	svc := New(memory.NewStore(), nil, nil, Config{})
	ctx := context.Background()

	a, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	b, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, a.ID)
	require.NoError(t, err)

	active, err := svc.List(ctx, domain.RaffleActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, "bogus")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
