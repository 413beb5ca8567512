package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
	redisrepo "github.com/kirinyoku/raffle-go/internal/repository/redis"
)

type Store interface {
	GetRaffle(ctx context.Context, id uuid.UUID) (*domain.Raffle, error)
	ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error)
	CountNumbers(ctx context.Context, raffleID uuid.UUID) (*domain.NumberCounts, error)
	RaffleStats(ctx context.Context, raffleID uuid.UUID) (*domain.RaffleStats, error)
	ListNumbers(ctx context.Context, raffleID uuid.UUID, f repository.NumberFilter) ([]domain.RaffleNumber, error)
	AdminStats(ctx context.Context) (*domain.AdminStats, error)
}

type Config struct {
	RaffleTTL         time.Duration
	CountsTTL         time.Duration
	DefaultNumberPage int
	MaxNumberPage     int
}

type Service struct {
	store Store
	cache *redisrepo.Cache
	cfg   Config
}

// New builds the read side. cache may be nil, in which case every read goes
// to the store.
func New(store Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.RaffleTTL <= 0 {
		cfg.RaffleTTL = 60 * time.Second
	}

	if cfg.CountsTTL <= 0 {
		cfg.CountsTTL = 5 * time.Second
	}

	if cfg.DefaultNumberPage <= 0 {
		cfg.DefaultNumberPage = 100
	}

	if cfg.MaxNumberPage <= 0 {
		cfg.MaxNumberPage = 1000
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetRaffle retrieves a raffle by its ID through the cache.
//
// Returns:
//   - *domain.Raffle: the raffle.
//   - error: query.ErrRaffleNotFound if the raffle does not exist.
func (s *Service) GetRaffle(ctx context.Context, id uuid.UUID) (*domain.Raffle, error) {
	const op = "service.query.GetRaffle"

	r, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyRaffle(id),
		s.cfg.RaffleTTL,
		func(ctx context.Context) (domain.Raffle, error) {
			r, err := s.store.GetRaffle(ctx, id)
			if err != nil {
				return domain.Raffle{}, notFound(err)
			}
			return *r, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &r, nil
}

// ListRaffles lists raffles newest first, optionally by status.
func (s *Service) ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	const op = "service.query.ListRaffles"

	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s:%w", op, domain.NewValidationError(fmt.Errorf("status: unknown value %q", status)))
	}

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyRaffleList(status),
		s.cfg.CountsTTL,
		func(ctx context.Context) ([]domain.Raffle, error) {
			return s.store.ListRaffles(ctx, status)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Counts returns how many numbers of a raffle are available, reserved and
// sold.
func (s *Service) Counts(ctx context.Context, raffleID uuid.UUID) (*domain.NumberCounts, error) {
	const op = "service.query.Counts"

	c, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyRaffleCounts(raffleID),
		s.cfg.CountsTTL,
		func(ctx context.Context) (domain.NumberCounts, error) {
			c, err := s.store.CountNumbers(ctx, raffleID)
			if err != nil {
				return domain.NumberCounts{}, notFound(err)
			}
			return *c, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &c, nil
}

func (s *Service) Stats(ctx context.Context, raffleID uuid.UUID) (*domain.RaffleStats, error) {
	const op = "service.query.Stats"

	st, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyRaffleStats(raffleID),
		s.cfg.CountsTTL,
		func(ctx context.Context) (domain.RaffleStats, error) {
			st, err := s.store.RaffleStats(ctx, raffleID)
			if err != nil {
				return domain.RaffleStats{}, notFound(err)
			}
			return *st, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &st, nil
}

// ListNumbers pages through the numbers of a raffle in ascending order,
// optionally filtered by status. Not cached: pages change with every
// reservation.
func (s *Service) ListNumbers(
	ctx context.Context,
	raffleID uuid.UUID,
	status domain.NumberStatus,
	limit, offset int,
) ([]domain.RaffleNumber, error) {
	const op = "service.query.ListNumbers"

	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s:%w", op, domain.NewValidationError(fmt.Errorf("status: unknown value %q", status)))
	}

	if limit <= 0 {
		limit = s.cfg.DefaultNumberPage
	}

	if limit > s.cfg.MaxNumberPage {
		limit = s.cfg.MaxNumberPage
	}

	if offset < 0 {
		offset = 0
	}

	out, err := s.store.ListNumbers(ctx, raffleID, repository.NumberFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, notFound(err))
	}

	return out, nil
}

func (s *Service) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	const op = "service.query.AdminStats"

	st, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyAdminStats(),
		s.cfg.CountsTTL,
		func(ctx context.Context) (domain.AdminStats, error) {
			st, err := s.store.AdminStats(ctx)
			if err != nil {
				return domain.AdminStats{}, err
			}
			return *st, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &st, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRaffleNotFound
	}
	return err
}
