package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/kirinyoku/raffle-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*memory.Store, domain.Raffle) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	r := domain.Raffle{
		ID:           uuid.New(),
		Title:        "Car",
		Prize:        "A car",
		PriceCents:   1000,
		TotalNumbers: 20,
		DrawDate:     time.Now().Add(time.Hour),
		Status:       domain.RaffleActive,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateRaffle(ctx, r))

	sold, err := store.Reserve(ctx, repository.ReserveParams{
		Token:     uuid.New(),
		RaffleID:  r.ID,
		Numbers:   []int{1, 2},
		Buyer:     domain.Buyer{Name: "Ana", Phone: "1", Email: "ana@example.com"},
		Now:       time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	})
	require.NoError(t, err)
	_, err = store.Confirm(ctx, sold.Token, time.Now())
	require.NoError(t, err)

	_, err = store.Reserve(ctx, repository.ReserveParams{
		Token:     uuid.New(),
		RaffleID:  r.ID,
		Numbers:   []int{5},
		Buyer:     domain.Buyer{Name: "Bruno", Phone: "2", Email: "bruno@example.com"},
		Now:       time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	})
	require.NoError(t, err)

	return store, r
}

func TestReads(t *testing.T) {
	store, r := seed(t)
	svc := New(store, nil, Config{DefaultNumberPage: 5, MaxNumberPage: 10})
	ctx := context.Background()

	got, err := svc.GetRaffle(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Title, got.Title)

	_, err = svc.GetRaffle(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRaffleNotFound)

	c, err := svc.Counts(ctx, r.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.Sold)
	assert.EqualValues(t, 1, c.Reserved)
	assert.EqualValues(t, 17, c.Available)
	assert.True(t, c.Consistent())

	st, err := svc.Stats(ctx, r.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, st.ProgressPercentage, 0.001)

	list, err := svc.ListRaffles(ctx, domain.RaffleActive)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListRaffles(ctx, "drawn")
	assert.ErrorIs(t, err, domain.ErrValidation)

	admin, err := svc.AdminStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, admin.ActiveRaffles)
	assert.EqualValues(t, 2, admin.NumbersSold)
}

func TestListNumbers_Paging(t *testing.T) {
	store, r := seed(t)
	svc := New(store, nil, Config{DefaultNumberPage: 5, MaxNumberPage: 10})
	ctx := context.Background()

	page, err := svc.ListNumbers(ctx, r.ID, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, 1, page[0].Number)
	assert.Equal(t, domain.NumberSold, page[0].Status)

	page, err = svc.ListNumbers(ctx, r.ID, "", 100, 15)
	require.NoError(t, err)
	assert.Len(t, page, 5)
	assert.Equal(t, 16, page[0].Number)

	avail, err := svc.ListNumbers(ctx, r.ID, domain.NumberAvailable, 3, 1)
	require.NoError(t, err)
	require.Len(t, avail, 3)
	assert.Equal(t, []int{4, 6, 7}, []int{avail[0].Number, avail[1].Number, avail[2].Number})

	_, err = svc.ListNumbers(ctx, r.ID, "gone", 0, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ListNumbers(ctx, uuid.New(), "", 0, 0)
	assert.ErrorIs(t, err, ErrRaffleNotFound)
}
