package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	pgsetup "github.com/kirinyoku/raffle-go/internal/postgres"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=raffle",
			"POSTGRES_PASSWORD=raffle",
			"POSTGRES_DB=raffle",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("postgres://raffle:raffle@%s/raffle?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var store *Store
	require.NoError(t, pool.Retry(func() error {
		db, err := pgsetup.New(context.Background(), pgsetup.Config{DSN: dsn, MaxConns: 8})
		if err != nil {
			return err
		}
		t.Cleanup(db.Close)
		store = NewStore(db)
		return nil
	}))

	require.NoError(t, pgsetup.Migrate(dsn))

	return store
}

func createRaffle(t *testing.T, s *Store, total int) domain.Raffle {
	t.Helper()

	r := domain.Raffle{
		ID:           uuid.New(),
		Title:        "Bike",
		Prize:        "A bike",
		PriceCents:   1000,
		TotalNumbers: total,
		DrawDate:     t0.Add(30 * 24 * time.Hour),
		Status:       domain.RaffleActive,
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, s.CreateRaffle(context.Background(), r))

	return r
}

func reserveNumbers(s *Store, raffleID uuid.UUID, numbers ...int) (*domain.Reservation, error) {
	return s.Reserve(context.Background(), repository.ReserveParams{
		Token:     uuid.New(),
		RaffleID:  raffleID,
		Numbers:   numbers,
		Buyer:     domain.Buyer{Name: "Ana", Phone: "+5511999999999", Email: "ana@example.com"},
		Now:       t0,
		ExpiresAt: t0.Add(15 * time.Minute),
	})
}

func TestStore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	t.Run("numbers are created available", func(t *testing.T) {
		r := createRaffle(t, s, 25)

		c, err := s.CountNumbers(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.NumberCounts{Available: 25, Total: 25}, *c)

		nums, err := s.ListNumbers(ctx, r.ID, repository.NumberFilter{Limit: 10, Offset: 20})
		require.NoError(t, err)
		require.Len(t, nums, 5)
		assert.Equal(t, 21, nums[0].Number)
	})

	t.Run("reserve is all or nothing", func(t *testing.T) {
		r := createRaffle(t, s, 10)

		_, err := reserveNumbers(s, r.ID, 3, 5)
		require.NoError(t, err)

		_, err = reserveNumbers(s, r.ID, 1, 5, 3)
		var unavailable repository.NumbersUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, []int{3, 5}, unavailable.Numbers)

		c, err := s.CountNumbers(ctx, r.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, c.Reserved)
		assert.EqualValues(t, 8, c.Available)

		_, err = reserveNumbers(s, r.ID, 11)
		assert.ErrorIs(t, err, repository.ErrNumberOutOfRange)

		_, err = reserveNumbers(s, r.ID, 2, 2)
		assert.ErrorIs(t, err, repository.ErrDuplicateNumber)

		_, err = reserveNumbers(s, uuid.New(), 1)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("concurrent overlapping reserves have one winner", func(t *testing.T) {
		r := createRaffle(t, s, 10)

		const workers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := reserveNumbers(s, r.ID, 4, 7)
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				assert.True(t, errors.Is(err, repository.ErrNumbersUnavailable), "unexpected error: %v", err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
	})

	t.Run("confirm sells numbers and confirms the purchase", func(t *testing.T) {
		r := createRaffle(t, s, 10)

		res, err := reserveNumbers(s, r.ID, 2, 9)
		require.NoError(t, err)

		p := domain.Purchase{
			ID:               uuid.New(),
			RaffleID:         r.ID,
			Numbers:          res.Numbers,
			Buyer:            res.Buyer,
			TotalCents:       2000,
			Currency:         "brl",
			Status:           domain.PurchasePending,
			ReservationToken: res.Token,
			CreatedAt:        t0,
			UpdatedAt:        t0,
		}
		require.NoError(t, s.CreatePurchase(ctx, p))
		require.NoError(t, s.AttachSession(ctx, p.ID, "cs_test_1", "https://pay.example/cs_test_1", t0))

		got, err := s.GetPurchaseBySession(ctx, "cs_test_1")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		out, err := s.Confirm(ctx, res.Token, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationConfirmed, out.Reservation.Status)
		require.NotNil(t, out.Purchase)
		assert.Equal(t, domain.PurchaseConfirmed, out.Purchase.Status)

		_, err = s.Confirm(ctx, res.Token, t0.Add(time.Minute))
		assert.ErrorIs(t, err, repository.ErrAlreadyResolved)

		_, err = s.Release(ctx, res.Token, t0.Add(time.Minute))
		assert.ErrorIs(t, err, repository.ErrAlreadyResolved)

		sold, err := s.ListNumbers(ctx, r.ID, repository.NumberFilter{Status: domain.NumberSold})
		require.NoError(t, err)
		require.Len(t, sold, 2)
		require.NotNil(t, sold[0].PurchaseID)
		assert.Equal(t, p.ID, *sold[0].PurchaseID)

		st, err := s.RaffleStats(ctx, r.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2000, st.RevenueCents)
		assert.InDelta(t, 20.0, st.ProgressPercentage, 0.001)
	})

	t.Run("release frees numbers and cancels the purchase", func(t *testing.T) {
		r := createRaffle(t, s, 5)

		res, err := reserveNumbers(s, r.ID, 1)
		require.NoError(t, err)
		require.NoError(t, s.CreatePurchase(ctx, domain.Purchase{
			ID: uuid.New(), RaffleID: r.ID, Numbers: res.Numbers, Buyer: res.Buyer,
			TotalCents: 1000, Currency: "brl", Status: domain.PurchasePending,
			ReservationToken: res.Token, CreatedAt: t0, UpdatedAt: t0,
		}))

		out, err := s.Release(ctx, res.Token, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationReleased, out.Reservation.Status)
		require.NotNil(t, out.Purchase)
		assert.Equal(t, domain.PurchaseCancelled, out.Purchase.Status)

		_, err = reserveNumbers(s, r.ID, 1)
		assert.NoError(t, err)
	})

	t.Run("expire releases only due reservations", func(t *testing.T) {
		r := createRaffle(t, s, 5)

		due, err := reserveNumbers(s, r.ID, 1)
		require.NoError(t, err)

		later, err := s.Reserve(ctx, repository.ReserveParams{
			Token: uuid.New(), RaffleID: r.ID, Numbers: []int{2},
			Buyer: domain.Buyer{Name: "Bia"}, Now: t0, ExpiresAt: t0.Add(time.Hour),
		})
		require.NoError(t, err)

		out, err := s.ExpireReservations(ctx, t0.Add(15*time.Minute))
		require.NoError(t, err)

		var tokens []uuid.UUID
		for _, o := range out {
			tokens = append(tokens, o.Reservation.Token)
		}
		assert.Contains(t, tokens, due.Token)
		assert.NotContains(t, tokens, later.Token)

		got, err := s.GetReservation(ctx, later.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationActive, got.Status)
	})

	t.Run("draw completes the raffle and releases reservations", func(t *testing.T) {
		r := createRaffle(t, s, 10)

		sold, err := reserveNumbers(s, r.ID, 3, 6)
		require.NoError(t, err)
		_, err = s.Confirm(ctx, sold.Token, t0)
		require.NoError(t, err)

		pending, err := reserveNumbers(s, r.ID, 8)
		require.NoError(t, err)

		var seen []int
		out, err := s.DrawWinner(ctx, r.ID, func(sold []int) (int, string, error) {
			seen = sold
			return sold[1], "digest", nil
		}, t0.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, []int{3, 6}, seen)
		assert.Equal(t, domain.RaffleCompleted, out.Raffle.Status)
		require.NotNil(t, out.Raffle.WinnerNumber)
		assert.Equal(t, 6, *out.Raffle.WinnerNumber)
		assert.Equal(t, "digest", out.Raffle.DrawDigest)
		require.NotNil(t, out.Number.Buyer)
		assert.Equal(t, "Ana", out.Number.Buyer.Name)

		got, err := s.GetReservation(ctx, pending.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationReleased, got.Status)

		_, err = s.DrawWinner(ctx, r.ID, func(sold []int) (int, string, error) {
			return sold[0], "", nil
		}, t0.Add(time.Hour))
		assert.ErrorIs(t, err, repository.ErrRaffleCompleted)
	})

	t.Run("draw without sold numbers", func(t *testing.T) {
		r := createRaffle(t, s, 3)

		_, err := s.DrawWinner(ctx, r.ID, func(sold []int) (int, string, error) {
			return 0, "", nil
		}, t0)
		assert.ErrorIs(t, err, repository.ErrNoSoldNumbers)
	})

	t.Run("cancel and delete", func(t *testing.T) {
		r := createRaffle(t, s, 5)

		res, err := reserveNumbers(s, r.ID, 2)
		require.NoError(t, err)

		assert.ErrorIs(t, s.DeleteRaffle(ctx, r.ID), repository.ErrRaffleInUse)

		cancelled, released, err := s.CancelRaffle(ctx, r.ID, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, domain.RaffleCancelled, cancelled.Status)
		require.Len(t, released, 1)
		assert.Equal(t, res.Token, released[0].Reservation.Token)

		_, err = reserveNumbers(s, r.ID, 3)
		assert.ErrorIs(t, err, repository.ErrRaffleNotActive)

		require.NoError(t, s.DeleteRaffle(ctx, r.ID))

		_, err = s.GetRaffle(ctx, r.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = s.GetReservation(ctx, res.Token)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update and list", func(t *testing.T) {
		r := createRaffle(t, s, 5)

		title := "Motorbike"
		got, err := s.UpdateRaffle(ctx, r.ID, repository.RaffleUpdate{Title: &title}, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "Motorbike", got.Title)
		assert.Equal(t, r.Prize, got.Prize)

		active, err := s.ListRaffles(ctx, domain.RaffleActive)
		require.NoError(t, err)
		for _, rf := range active {
			assert.Equal(t, domain.RaffleActive, rf.Status)
		}

		stats, err := s.AdminStats(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.TotalRaffles, stats.ActiveRaffles)
	})
}
