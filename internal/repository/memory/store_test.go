package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRaffle(t *testing.T, s *Store, total int) domain.Raffle {
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

func reserve(s *Store, raffleID uuid.UUID, numbers ...int) (*domain.Reservation, error) {
	return s.Reserve(context.Background(), repository.ReserveParams{
		Token:     uuid.New(),
		RaffleID:  raffleID,
		Numbers:   numbers,
		Buyer:     domain.Buyer{Name: "Ana", Phone: "+5511999999999", Email: "ana@example.com"},
		Now:       t0,
		ExpiresAt: t0.Add(15 * time.Minute),
	})
}

func requirePartition(t *testing.T, s *Store, raffleID uuid.UUID, total int) {
	t.Helper()

	nums, err := s.ListNumbers(context.Background(), raffleID, repository.NumberFilter{})
	require.NoError(t, err)
	require.Len(t, nums, total)

	seen := make(map[int]bool, total)
	for _, n := range nums {
		require.False(t, seen[n.Number], "number %d listed twice", n.Number)
		seen[n.Number] = true
		require.True(t, n.Status.Valid())
		if n.Status != domain.NumberAvailable {
			require.NotNil(t, n.Buyer, "number %d has no buyer", n.Number)
		}
	}

	c, err := s.CountNumbers(context.Background(), raffleID)
	require.NoError(t, err)
	require.True(t, c.Consistent(), "counts %+v", c)
	require.EqualValues(t, total, c.Total)
}

func TestStore_ReserveAllOrNothing(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 10)

	_, err := reserve(s, r.ID, 2, 3)
	require.NoError(t, err)

	_, err = reserve(s, r.ID, 1, 3, 2, 4)
	var unavailable repository.NumbersUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []int{2, 3}, unavailable.Numbers)
	assert.ErrorIs(t, err, repository.ErrNumbersUnavailable)

	nums, err := s.ListNumbers(context.Background(), r.ID, repository.NumberFilter{Status: domain.NumberAvailable})
	require.NoError(t, err)
	assert.Len(t, nums, 8)

	requirePartition(t, s, r.ID, 10)
}

func TestStore_ReserveRejectsBadInput(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 5)

	_, err := reserve(s, r.ID, 0)
	assert.ErrorIs(t, err, repository.ErrNumberOutOfRange)

	_, err = reserve(s, r.ID, 6)
	assert.ErrorIs(t, err, repository.ErrNumberOutOfRange)

	_, err = reserve(s, r.ID, 2, 2)
	assert.ErrorIs(t, err, repository.ErrDuplicateNumber)

	_, err = reserve(s, uuid.New(), 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	requirePartition(t, s, r.ID, 5)
}

func TestStore_ConcurrentOverlappingReserves(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 100)

	const workers = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts [][]int
	)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			_, err := reserve(s, r.ID, 40, 41, 42)

			mu.Lock()
			defer mu.Unlock()

			var unavailable repository.NumbersUnavailableError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &unavailable):
				conflicts = append(conflicts, unavailable.Numbers)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, conflicts, workers-1)
	for _, c := range conflicts {
		assert.Equal(t, []int{40, 41, 42}, c)
	}

	requirePartition(t, s, r.ID, 100)
}

func TestStore_ConfirmAndRelease(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 10)
	ctx := context.Background()

	res, err := reserve(s, r.ID, 7)
	require.NoError(t, err)

	resolved, err := s.Confirm(ctx, res.Token, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, resolved.Reservation.Status)

	_, err = s.Confirm(ctx, res.Token, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, repository.ErrAlreadyResolved)

	_, err = s.Release(ctx, res.Token, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, repository.ErrAlreadyResolved)

	nums, err := s.ListNumbers(ctx, r.ID, repository.NumberFilter{Status: domain.NumberSold})
	require.NoError(t, err)
	require.Len(t, nums, 1)
	assert.Equal(t, 7, nums[0].Number)
	require.NotNil(t, nums[0].SoldAt)

	_, err = s.Confirm(ctx, uuid.New(), t0)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	requirePartition(t, s, r.ID, 10)
}

func TestStore_ReleaseThenReserveByAnotherBuyer(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 10)
	ctx := context.Background()

	res, err := reserve(s, r.ID, 4, 5)
	require.NoError(t, err)

	_, err = s.Release(ctx, res.Token, t0.Add(time.Minute))
	require.NoError(t, err)

	again, err := reserve(s, r.ID, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, again.Numbers)

	requirePartition(t, s, r.ID, 10)
}

func TestStore_PurchaseFollowsReservation(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 10)
	ctx := context.Background()

	confirmed, err := reserve(s, r.ID, 1)
	require.NoError(t, err)
	released, err := reserve(s, r.ID, 2)
	require.NoError(t, err)

	for i, res := range []*domain.Reservation{confirmed, released} {
		require.NoError(t, s.CreatePurchase(ctx, domain.Purchase{
			ID:               uuid.New(),
			RaffleID:         r.ID,
			Numbers:          res.Numbers,
			Buyer:            res.Buyer,
			TotalCents:       r.PriceCents,
			Currency:         "brl",
			Status:           domain.PurchasePending,
			ReservationToken: res.Token,
			CreatedAt:        t0.Add(time.Duration(i) * time.Second),
		}))
	}

	out, err := s.Confirm(ctx, confirmed.Token, t0.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, out.Purchase)
	assert.Equal(t, domain.PurchaseConfirmed, out.Purchase.Status)

	out, err = s.Release(ctx, released.Token, t0.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, out.Purchase)
	assert.Equal(t, domain.PurchaseCancelled, out.Purchase.Status)

	require.NoError(t, s.AttachSession(ctx, out.Purchase.ID, "cs_1", "https://pay/1", t0))
	p, err := s.GetPurchaseBySession(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, out.Purchase.ID, p.ID)

	nums, err := s.ListNumbers(ctx, r.ID, repository.NumberFilter{Status: domain.NumberSold})
	require.NoError(t, err)
	require.Len(t, nums, 1)
	require.NotNil(t, nums[0].PurchaseID)

	st, err := s.RaffleStats(ctx, r.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, st.RevenueCents)
	assert.InDelta(t, 10.0, st.ProgressPercentage, 0.001)

	all, err := s.ListPurchases(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_ExpireReservations(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 10)
	ctx := context.Background()

	res, err := reserve(s, r.ID, 3)
	require.NoError(t, err)

	out, err := s.ExpireReservations(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = s.ExpireReservations(ctx, res.ExpiresAt)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, res.Token, out[0].Reservation.Token)

	_, err = reserve(s, r.ID, 3)
	require.NoError(t, err)
}

func TestStore_DrawWinner(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 50)
	ctx := context.Background()

	for _, n := range []int{7, 12, 23, 45} {
		res, err := reserve(s, r.ID, n)
		require.NoError(t, err)
		_, err = s.Confirm(ctx, res.Token, t0)
		require.NoError(t, err)
	}

	pending, err := reserve(s, r.ID, 30)
	require.NoError(t, err)

	var offered []int
	out, err := s.DrawWinner(ctx, r.ID, func(sold []int) (int, string, error) {
		offered = sold
		return sold[2], "digest", nil
	}, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []int{7, 12, 23, 45}, offered)
	assert.Equal(t, 23, out.Number.Number)
	require.NotNil(t, out.Number.Buyer)
	assert.Equal(t, domain.RaffleCompleted, out.Raffle.Status)
	require.NotNil(t, out.Raffle.WinnerNumber)
	assert.Equal(t, 23, *out.Raffle.WinnerNumber)

	got, err := s.GetReservation(ctx, pending.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationReleased, got.Status)

	_, err = s.DrawWinner(ctx, r.ID, func(sold []int) (int, string, error) { return sold[0], "", nil }, t0)
	assert.ErrorIs(t, err, repository.ErrRaffleCompleted)
}

func TestStore_DrawWithoutSoldNumbers(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 5)

	_, err := reserve(s, r.ID, 1)
	require.NoError(t, err)

	_, err = s.DrawWinner(context.Background(), r.ID, func(sold []int) (int, string, error) {
		t.Fatal("pick must not be called")
		return 0, "", nil
	}, t0)
	assert.ErrorIs(t, err, repository.ErrNoSoldNumbers)
}

func TestStore_CancelAndDelete(t *testing.T) {
	s := NewStore()
	r := newRaffle(t, s, 5)
	ctx := context.Background()

	res, err := reserve(s, r.ID, 1, 2)
	require.NoError(t, err)

	err = s.DeleteRaffle(ctx, r.ID)
	assert.ErrorIs(t, err, repository.ErrRaffleInUse)

	cancelled, released, err := s.CancelRaffle(ctx, r.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.RaffleCancelled, cancelled.Status)
	require.Len(t, released, 1)
	assert.Equal(t, res.Token, released[0].Reservation.Token)

	_, err = reserve(s, r.ID, 3)
	assert.ErrorIs(t, err, repository.ErrRaffleNotActive)

	_, err = s.UpdateRaffle(ctx, r.ID, repository.RaffleUpdate{}, t0)
	assert.ErrorIs(t, err, repository.ErrRaffleNotActive)

	require.NoError(t, s.DeleteRaffle(ctx, r.ID))

	_, err = s.GetRaffle(ctx, r.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.GetReservation(ctx, res.Token)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, _, err := l.Allow(ctx, "ip:1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, _, retry, err := l.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _, _, err = l.Allow(ctx, "ip:2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_PruneIdle(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	ctx := context.Background()

	start := time.Now()
	clock := start
	l.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		ok, _, _, err := l.Allow(ctx, "ip:1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, _, _, err := l.Allow(ctx, "ip:2")
	require.NoError(t, err)

	clock = start.Add(30 * time.Second)
	ok, _, _, err := l.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Zero(t, l.Prune(start.Add(59*time.Second)))
	assert.Equal(t, 2, l.Len())

	assert.Equal(t, 1, l.Prune(start.Add(61*time.Second)))
	assert.Equal(t, 1, l.Len())

	clock = start.Add(31 * time.Second)
	ok, _, _, err = l.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, ok, "a recently used bucket keeps its state")

	assert.Equal(t, 1, l.Prune(start.Add(2*time.Minute)))
	assert.Zero(t, l.Len())
}

func TestLimiter_RunPruner(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	assert.Error(t, l.RunPruner(context.Background(), "every now and then"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.RunPruner(ctx, "@every 1s") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop")
	}
}
