package draw

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/kirinyoku/raffle-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func seed(t *testing.T, store *memory.Store, total int, sold ...int) domain.Raffle {
	t.Helper()
	ctx := context.Background()

	r := domain.Raffle{
		ID:           uuid.New(),
		Title:        "TV",
		Prize:        "A TV",
		PriceCents:   100,
		TotalNumbers: total,
		DrawDate:     time.Now().Add(time.Hour),
		Status:       domain.RaffleActive,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateRaffle(ctx, r))

	for _, n := range sold {
		res, err := store.Reserve(ctx, repository.ReserveParams{
			Token:     uuid.New(),
			RaffleID:  r.ID,
			Numbers:   []int{n},
			Buyer:     domain.Buyer{Name: "Buyer " + uuid.NewString()[:4], Email: "b@example.com"},
			Now:       time.Now(),
			ExpiresAt: time.Now().Add(time.Minute),
		})
		require.NoError(t, err)
		_, err = store.Confirm(ctx, res.Token, time.Now())
		require.NoError(t, err)
	}

	return r
}

func TestDraw(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	svc := New(store, nil, nil, notifier, nil)
	ctx := context.Background()

	r := seed(t, store, 50, 7, 12, 23, 45)

	res, err := svc.Draw(ctx, r.ID)
	require.NoError(t, err)
	assert.Contains(t, []int{7, 12, 23, 45}, res.WinnerNumber)
	assert.NotEmpty(t, res.Winner.Name)
	assert.Equal(t, 4, res.SoldCount)
	assert.Equal(t, Digest(r.ID, []int{7, 12, 23, 45}), res.Digest)
	assert.False(t, res.DrawnAt.IsZero())
	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 10*time.Millisecond)

	got, err := store.GetRaffle(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RaffleCompleted, got.Status)
	require.NotNil(t, got.WinnerNumber)
	assert.Equal(t, res.WinnerNumber, *got.WinnerNumber)

	_, err = svc.Draw(ctx, r.ID)
	assert.ErrorIs(t, err, ErrAlreadyDrawn)
}

func TestDraw_Errors(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Draw(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRaffleNotFound)

	empty := seed(t, store, 10)
	_, err = svc.Draw(ctx, empty.ID)
	assert.ErrorIs(t, err, ErrNoSoldNumbers)

	cancelled := seed(t, store, 10, 1)
	_, _, err = store.CancelRaffle(ctx, cancelled.ID, time.Now())
	require.NoError(t, err)
	_, err = svc.Draw(ctx, cancelled.ID)
	assert.ErrorIs(t, err, ErrRaffleCancelled)
}

// The winner must be uniform over the sold set regardless of how the sold
// numbers are spread across the raffle.
func TestPicker_Uniform(t *testing.T) {
	svc := New(memory.NewStore(), nil, nil, nil, nil)
	pick := svc.picker(uuid.New())

	sold := []int{7, 12, 23, 45}
	const rounds = 8000

	counts := make(map[int]int)
	for i := 0; i < rounds; i++ {
		n, _, err := pick(sold)
		require.NoError(t, err)
		counts[n]++
	}

	require.Len(t, counts, len(sold))
	for _, n := range sold {
		assert.InDelta(t, rounds/len(sold), counts[n], 250, "number %d drawn %d times", n, counts[n])
	}
}

func TestDigest_DependsOnSet(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, Digest(id, []int{1, 2}), Digest(id, []int{1, 2}))
	assert.NotEqual(t, Digest(id, []int{1, 2}), Digest(id, []int{12}))
	assert.NotEqual(t, Digest(id, []int{1}), Digest(uuid.New(), []int{1}))
}
