package purchase

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/payment"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/kirinyoku/raffle-go/internal/repository/memory"
	"github.com/kirinyoku/raffle-go/internal/service/ledger"
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

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// blockingNotifier holds every send until release is closed.
type blockingNotifier struct {
	recordingNotifier
	release chan struct{}
}

func (n *blockingNotifier) Notify(ctx context.Context, text string) error {
	<-n.release
	return n.recordingNotifier.Notify(ctx, text)
}

type failingProvider struct{}

func (failingProvider) Name() string            { return "failing" }
func (failingProvider) SignatureHeader() string { return "X-Test" }

func (failingProvider) CreateSession(context.Context, payment.SessionRequest) (*payment.Session, error) {
	return nil, errors.New("connection refused")
}

func (failingProvider) ParseNotification([]byte, string) (*payment.Notification, error) {
	return nil, payment.ErrInvalidSignature
}

type fixture struct {
	store    *memory.Store
	ledger   *ledger.Service
	svc      *Service
	notifier *recordingNotifier
	raffle   domain.Raffle
}

func newFixture(t *testing.T, gateway payment.Provider, limiter Limiter) *fixture {
	t.Helper()

	store := memory.NewStore()
	led := ledger.New(store, nil, nil, nil, ledger.Config{})
	t.Cleanup(led.Close)

	if gateway == nil {
		gateway = payment.NewLocal(payment.LocalConfig{
			Secret:      "whsec_test",
			CheckoutURL: "https://pay.example.com/checkout",
		})
	}

	notifier := &recordingNotifier{}
	svc := New(store, led, gateway, limiter, notifier, nil, nil, Config{Currency: "BRL", ReservationTTL: time.Minute})

	r := domain.Raffle{
		ID:           uuid.New(),
		Title:        "Motorbike",
		Prize:        "125cc motorbike",
		PriceCents:   2500,
		TotalNumbers: 50,
		DrawDate:     time.Now().Add(24 * time.Hour),
		Status:       domain.RaffleActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateRaffle(context.Background(), r))

	return &fixture{store: store, ledger: led, svc: svc, notifier: notifier, raffle: r}
}

func (f *fixture) request(numbers ...int) SubmitRequest {
	return SubmitRequest{
		RaffleID: f.raffle.ID,
		Numbers:  numbers,
		Buyer:    domain.Buyer{Name: "Ana", Phone: "+55 11 99999-0000", Email: "ana@example.com"},
	}
}

func succeeded(p *domain.Purchase) *payment.Notification {
	return &payment.Notification{
		EventID:     "evt_1",
		SessionID:   p.SessionID,
		Reference:   p.ID.String(),
		Outcome:     payment.OutcomeSucceeded,
		AmountCents: p.TotalCents,
		Currency:    p.Currency,
	}
}

func TestSubmit_AwaitingPayment(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, f.request(5, 3, 9))
	require.NoError(t, err)

	assert.Equal(t, StateAwaitingPayment, a.State)
	assert.Equal(t, []int{3, 5, 9}, a.Numbers)
	assert.EqualValues(t, 7500, a.TotalCents)
	assert.Equal(t, "brl", a.Currency)
	assert.True(t, strings.HasPrefix(a.SessionID, "loc_"))
	assert.Contains(t, a.RedirectURL, "https://pay.example.com/checkout")
	assert.NotEqual(t, uuid.Nil, a.Token)

	p, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchasePending, p.Status)
	assert.Equal(t, a.SessionID, p.SessionID)
	assert.Equal(t, a.Token, p.ReservationToken)

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, c.Reserved)
	assert.EqualValues(t, 47, c.Available)
}

func TestSubmit_InvalidInput(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	tests := map[string]func(r *SubmitRequest){
		"no name":      func(r *SubmitRequest) { r.Buyer.Name = " " },
		"no phone":     func(r *SubmitRequest) { r.Buyer.Phone = "" },
		"bad email":    func(r *SubmitRequest) { r.Buyer.Email = "ana-at-example" },
		"no numbers":   func(r *SubmitRequest) { r.Numbers = nil },
		"duplicates":   func(r *SubmitRequest) { r.Numbers = []int{4, 4} },
		"out of range": func(r *SubmitRequest) { r.Numbers = []int{51} },
		"zero":         func(r *SubmitRequest) { r.Numbers = []int{0} },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			req := f.request(4)
			mutate(&req)

			_, err := f.svc.Submit(ctx, req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, c.Available)
}

func TestSubmit_Conflict(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.request(1, 2))
	require.NoError(t, err)

	a, err := f.svc.Submit(ctx, f.request(2, 3))
	require.ErrorIs(t, err, ErrConflict)

	var conflict ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{2}, conflict.Numbers)

	require.NotNil(t, a)
	assert.Equal(t, StateFailed, a.State)
	assert.Equal(t, []int{2}, a.Conflict)

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.Reserved)
}

func TestSubmit_UnknownRaffle(t *testing.T) {
	f := newFixture(t, nil, nil)

	req := f.request(1)
	req.RaffleID = uuid.New()

	_, err := f.svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrRaffleNotFound)
}

func TestSubmit_UpstreamFailureReleases(t *testing.T) {
	f := newFixture(t, failingProvider{}, nil)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, f.request(10, 11))
	require.ErrorIs(t, err, ErrUpstream)
	require.NotNil(t, a)
	assert.Equal(t, StateFailed, a.State)
	assert.Equal(t, []int{10, 11}, a.Numbers)

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, c.Available)

	purchases, err := f.svc.List(ctx, f.raffle.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, domain.PurchaseCancelled, purchases[0].Status)
}

func TestSubmit_RateLimited(t *testing.T) {
	f := newFixture(t, nil, memory.NewLimiter(1, time.Minute))
	ctx := context.Background()

	req := f.request(1)
	req.ClientKey = "10.0.0.1"

	_, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)

	req.Numbers = []int{2}
	_, err = f.svc.Submit(ctx, req)
	assert.ErrorIs(t, err, ErrRateLimited)

	req.ClientKey = "10.0.0.2"
	_, err = f.svc.Submit(ctx, req)
	assert.NoError(t, err)
}

func TestHandleOutcome_ConfirmsOnce(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, f.request(7, 8))
	require.NoError(t, err)

	p, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)

	got, err := f.svc.HandleOutcome(ctx, succeeded(p))
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseConfirmed, got.Status)

	again, err := f.svc.HandleOutcome(ctx, succeeded(p))
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseConfirmed, again.Status)

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.Sold)
	assert.EqualValues(t, 0, c.Reserved)

	require.Eventually(t, func() bool { return len(f.notifier.all()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, f.notifier.all()[0], "Purchase confirmed")
}

func TestHandleOutcome_PriceLockedAtCreation(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, f.request(1, 2))
	require.NoError(t, err)

	price := int64(9900)
	_, err = f.store.UpdateRaffle(ctx, f.raffle.ID, repository.RaffleUpdate{PriceCents: &price}, time.Now())
	require.NoError(t, err)

	p, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, p.TotalCents)

	got, err := f.svc.HandleOutcome(ctx, succeeded(p))
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseConfirmed, got.Status)
	assert.EqualValues(t, 5000, got.TotalCents)
}

func TestSubmit_TotalOverflow(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	price := int64(math.MaxInt64/2 + 1)
	_, err := f.store.UpdateRaffle(ctx, f.raffle.ID, repository.RaffleUpdate{PriceCents: &price}, time.Now())
	require.NoError(t, err)

	a, err := f.svc.Submit(ctx, f.request(1, 2))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, a)

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, c.Available)

	purchases, err := f.svc.List(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.Empty(t, purchases)

	a, err = f.svc.Submit(ctx, f.request(3))
	require.NoError(t, err)
	assert.Equal(t, price, a.TotalCents)
}

func TestHandleOutcome_SlowNotifierDoesNotBlock(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	notifier := &blockingNotifier{release: make(chan struct{})}
	f.svc.notifier = notifier

	a, err := f.svc.Submit(ctx, f.request(12))
	require.NoError(t, err)

	p, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)

	done := make(chan *domain.Purchase, 1)
	go func() {
		got, err := f.svc.HandleOutcome(ctx, succeeded(p))
		assert.NoError(t, err)
		done <- got
	}()

	select {
	case got := <-done:
		assert.Equal(t, domain.PurchaseConfirmed, got.Status)
	case <-time.After(time.Second):
		t.Fatal("confirmation waited on the notifier")
	}
	assert.Empty(t, notifier.all())

	close(notifier.release)
	require.Eventually(t, func() bool { return len(notifier.all()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, notifier.all()[0], "Purchase confirmed")
}

func TestHandleOutcome_Mismatch(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, f.request(20))
	require.NoError(t, err)

	p, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)

	tests := map[string]func(n *payment.Notification){
		"amount":   func(n *payment.Notification) { n.AmountCents = 1 },
		"currency": func(n *payment.Notification) { n.Currency = "usd" },
		"session":  func(n *payment.Notification) { n.SessionID = "loc_other" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			n := succeeded(p)
			mutate(n)

			_, err := f.svc.HandleOutcome(ctx, n)
			assert.ErrorIs(t, err, ErrPaymentMismatch)
		})
	}

	current, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchasePending, current.Status)

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.Reserved)
}

func TestHandleOutcome_FailureReleases(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, f.request(30, 31))
	require.NoError(t, err)

	p, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)

	n := succeeded(p)
	n.Outcome = payment.OutcomeCancelled

	got, err := f.svc.HandleOutcome(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseCancelled, got.Status)

	_, err = f.svc.HandleOutcome(ctx, n)
	require.NoError(t, err)

	other := f.request(30, 31)
	other.Buyer.Name = "Bruno"
	_, err = f.svc.Submit(ctx, other)
	assert.NoError(t, err)
}

func TestHandleOutcome_LatePayment(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	a, err := f.svc.Submit(ctx, f.request(40))
	require.NoError(t, err)

	_, err = f.ledger.Release(ctx, a.Token, ledger.ReasonExpired)
	require.NoError(t, err)

	p, err := f.svc.Get(ctx, a.PurchaseID)
	require.NoError(t, err)
	require.Equal(t, domain.PurchaseCancelled, p.Status)

	got, err := f.svc.HandleOutcome(ctx, succeeded(p))
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseCancelled, got.Status)

	c, err := f.store.CountNumbers(ctx, f.raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, c.Sold)

	require.Eventually(t, func() bool { return len(f.notifier.all()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, f.notifier.all()[0], "refund required")
}

func TestHandleOutcome_UnknownPurchase(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.HandleOutcome(context.Background(), &payment.Notification{
		SessionID:   "loc_missing",
		Reference:   uuid.NewString(),
		Outcome:     payment.OutcomeSucceeded,
		AmountCents: 100,
		Currency:    "brl",
	})
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestState_Transitions(t *testing.T) {
	a := newAttempt(uuid.New(), []int{1})

	require.NoError(t, a.advance(StateReserving))
	assert.ErrorIs(t, a.advance(StateConfirmed), ErrInvalidState)
	require.NoError(t, a.advance(StateReserved))
	require.NoError(t, a.advance(StateAwaitingPayment))
	require.NoError(t, a.advance(StateConfirmed))

	a.fail("late")
	assert.Equal(t, StateConfirmed, a.State)
	assert.ErrorIs(t, a.advance(StateFailed), ErrInvalidState)
}
