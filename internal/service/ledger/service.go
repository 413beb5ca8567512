package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/events"
	"github.com/kirinyoku/raffle-go/internal/metrics"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/robfig/cron/v3"
)

// Release reasons, also used as metric labels.
const (
	ReasonBuyer         = "buyer"
	ReasonExpired       = "expired"
	ReasonPaymentFailed = "payment_failed"
	ReasonGatewayError  = "gateway_error"
	ReasonAborted       = "aborted"
	ReasonAdmin         = "admin"
)

type Store interface {
	GetRaffle(ctx context.Context, id uuid.UUID) (*domain.Raffle, error)
	Reserve(ctx context.Context, p repository.ReserveParams) (*domain.Reservation, error)
	Confirm(ctx context.Context, token uuid.UUID, now time.Time) (*repository.Resolution, error)
	Release(ctx context.Context, token uuid.UUID, now time.Time) (*repository.Resolution, error)
	ExpireReservations(ctx context.Context, now time.Time) ([]repository.Resolution, error)
	GetReservation(ctx context.Context, token uuid.UUID) (*domain.Reservation, error)
}

type Config struct {
	DefaultTTL time.Duration
	MinTTL     time.Duration
	MaxTTL     time.Duration
	// MaxNumbers caps how many numbers a single reservation may claim.
	MaxNumbers int
}

type Service struct {
	store   Store
	changes *events.Changes
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	closed bool
}

func New(
	store Store,
	changes *events.Changes,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.MinTTL <= 0 {
		cfg.MinTTL = 30 * time.Second
	}

	if cfg.MaxTTL <= 0 || cfg.MaxTTL < cfg.MinTTL {
		cfg.MaxTTL = time.Hour
	}

	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 15 * time.Minute
	}

	if cfg.MaxNumbers <= 0 {
		cfg.MaxNumbers = 100
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		changes: changes,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		timers:  make(map[uuid.UUID]*time.Timer),
	}
}

// Reserve claims numbers of a raffle for a buyer until the reservation is
// confirmed, released, or its deadline passes.
//
// Parameters:
//   - ctx: request-scoped context.
//   - raffleID: ID of the raffle.
//   - numbers: requested numbers, non-empty, unique, within [1, N].
//   - buyer: identity stamped on the reserved numbers.
//   - ttl: requested lifetime; zero selects the default, others are clamped.
//
// Returns:
//   - *domain.Reservation: the active reservation with its token.
//   - error: domain.ValidationError for malformed selections.
//   - error: ledger.NumbersUnavailableError listing every blocking number.
//   - error: ledger.ErrRaffleNotFound or ledger.ErrRaffleNotActive.
func (s *Service) Reserve(
	ctx context.Context,
	raffleID uuid.UUID,
	numbers []int,
	buyer domain.Buyer,
	ttl time.Duration,
) (*domain.Reservation, error) {
	const op = "service.ledger.Reserve"

	if err := ValidateSelection(numbers, s.cfg.MaxNumbers); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	raffle, err := s.store.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err, ErrRaffleNotFound))
	}

	if raffle.Status != domain.RaffleActive {
		return nil, fmt.Errorf("%s:%w", op, ErrRaffleNotActive)
	}

	if err := ValidateRange(numbers, raffle.TotalNumbers); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ttl = s.clampTTL(ttl)
	now := s.now()

	res, err := s.store.Reserve(ctx, repository.ReserveParams{
		Token:     uuid.New(),
		RaffleID:  raffleID,
		Numbers:   numbers,
		Buyer:     buyer,
		Now:       now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		var unavailable repository.NumbersUnavailableError
		if errors.As(err, &unavailable) {
			s.metrics.Reservation("conflict")
			return nil, fmt.Errorf("%s:%w", op, NumbersUnavailableError{Numbers: unavailable.Numbers})
		}

		s.metrics.Reservation("error")
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err, ErrRaffleNotFound))
	}

	s.metrics.Reservation("ok")
	s.schedule(res.Token, ttl)
	s.changes.RaffleChanged(ctx, raffleID)

	return res, nil
}

// Confirm turns a reservation into sold numbers.
//
// Returns:
//   - error: ledger.ErrReservationNotFound for an unknown token.
//   - error: ledger.ErrAlreadyResolved if it was confirmed or released before.
func (s *Service) Confirm(ctx context.Context, token uuid.UUID) (*repository.Resolution, error) {
	const op = "service.ledger.Confirm"

	out, err := s.store.Confirm(ctx, token, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err, ErrReservationNotFound))
	}

	s.cancelTimer(token)
	s.metrics.Confirmed()
	s.changes.RaffleChanged(ctx, out.Reservation.RaffleID)

	return out, nil
}

// Release returns reserved numbers to the available pool.
//
// Returns:
//   - error: ledger.ErrReservationNotFound for an unknown token.
//   - error: ledger.ErrAlreadyResolved if it was confirmed or released before.
func (s *Service) Release(ctx context.Context, token uuid.UUID, reason string) (*repository.Resolution, error) {
	const op = "service.ledger.Release"

	out, err := s.store.Release(ctx, token, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err, ErrReservationNotFound))
	}

	s.cancelTimer(token)
	s.metrics.Released(reason)
	s.changes.RaffleChanged(ctx, out.Reservation.RaffleID)

	s.logger.Info("reservation released",
		"token", token,
		"raffle_id", out.Reservation.RaffleID,
		"reason", reason,
	)

	return out, nil
}

func (s *Service) Get(ctx context.Context, token uuid.UUID) (*domain.Reservation, error) {
	const op = "service.ledger.Get"

	res, err := s.store.GetReservation(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err, ErrReservationNotFound))
	}

	return res, nil
}

// Expire releases every reservation past its deadline and returns how many
// were released.
func (s *Service) Expire(ctx context.Context) (int, error) {
	const op = "service.ledger.Expire"

	released, err := s.store.ExpireReservations(ctx, s.now())

	touched := make(map[uuid.UUID]struct{})
	for _, r := range released {
		s.cancelTimer(r.Reservation.Token)
		s.metrics.Released(ReasonExpired)
		touched[r.Reservation.RaffleID] = struct{}{}
	}

	for id := range touched {
		s.changes.RaffleChanged(ctx, id)
	}

	if err != nil {
		return len(released), fmt.Errorf("%s:%w", op, err)
	}

	return len(released), nil
}

// RunSweeper runs Expire on the cron schedule until ctx is done. It covers
// reservations whose timers were lost to a restart or live on another
// instance.
func (s *Service) RunSweeper(ctx context.Context, schedule string) error {
	const op = "service.ledger.RunSweeper"

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		n, err := s.Expire(ctx)
		if err != nil {
			s.logger.Error("reservation sweep failed", "error", err)
			return
		}
		if n > 0 {
			s.logger.Info("expired reservations released", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, schedule, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}

// Close stops all pending expiry timers.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for token, t := range s.timers {
		t.Stop()
		delete(s.timers, token)
	}
}

func (s *Service) schedule(token uuid.UUID, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.timers[token] = time.AfterFunc(ttl, func() {
		s.mu.Lock()
		delete(s.timers, token)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := s.Release(ctx, token, ReasonExpired); err != nil &&
			!errors.Is(err, ErrAlreadyResolved) &&
			!errors.Is(err, ErrReservationNotFound) {
			s.logger.Error("reservation expiry failed", "token", token, "error", err)
		}
	})
}

func (s *Service) cancelTimer(token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[token]; ok {
		t.Stop()
		delete(s.timers, token)
	}
}

func (s *Service) clampTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = s.cfg.DefaultTTL
	}

	if ttl < s.cfg.MinTTL {
		return s.cfg.MinTTL
	}

	if ttl > s.cfg.MaxTTL {
		return s.cfg.MaxTTL
	}

	return ttl
}

// mapStoreErr translates store errors; notFound is returned for a missing
// raffle or reservation depending on the caller.
func mapStoreErr(err, notFound error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrAlreadyResolved):
		return ErrAlreadyResolved
	case errors.Is(err, repository.ErrRaffleNotActive), errors.Is(err, repository.ErrRaffleCompleted):
		return ErrRaffleNotActive
	case errors.Is(err, repository.ErrNumberOutOfRange), errors.Is(err, repository.ErrDuplicateNumber):
		return domain.NewValidationError(err)
	}
	return err
}
