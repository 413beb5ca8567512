package raffles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/events"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

type Store interface {
	CreateRaffle(ctx context.Context, r domain.Raffle) error
	GetRaffle(ctx context.Context, id uuid.UUID) (*domain.Raffle, error)
	ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error)
	UpdateRaffle(ctx context.Context, id uuid.UUID, upd repository.RaffleUpdate, now time.Time) (*domain.Raffle, error)
	CancelRaffle(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Raffle, []repository.Resolution, error)
	DeleteRaffle(ctx context.Context, id uuid.UUID) error
}

type Config struct {
	MaxTotalNumbers int
}

type Service struct {
	store   Store
	changes *events.Changes
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time
}

func New(store Store, changes *events.Changes, logger *slog.Logger, cfg Config) *Service {
	if cfg.MaxTotalNumbers <= 0 {
		cfg.MaxTotalNumbers = 100_000
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		changes: changes,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Create registers an active raffle and initializes its numbers 1..N as
// available.
//
// Returns:
//   - *domain.Raffle: the created raffle.
//   - error: domain.ValidationError when the input is rejected.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Raffle, error) {
	const op = "service.raffles.Create"

	now := s.now()
	if err := in.Validate(now, s.cfg.MaxTotalNumbers); err != nil {
		return nil, fmt.Errorf("%s:%w", op, domain.NewValidationError(err))
	}

	r := domain.Raffle{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		Prize:        in.Prize,
		PriceCents:   in.PriceCents,
		TotalNumbers: in.TotalNumbers,
		ImageURL:     in.ImageURL,
		DrawDate:     in.DrawDate.UTC(),
		Status:       domain.RaffleActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateRaffle(ctx, r); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.logger.Info("raffle created", "raffle_id", r.ID, "total_numbers", r.TotalNumbers)
	s.changes.RaffleChanged(ctx, r.ID)

	return &r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Raffle, error) {
	const op = "service.raffles.Get"

	r, err := s.store.GetRaffle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err))
	}

	return r, nil
}

func (s *Service) List(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	const op = "service.raffles.List"

	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s:%w", op, domain.NewValidationError(fmt.Errorf("status: unknown value %q", status)))
	}

	out, err := s.store.ListRaffles(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Update changes descriptive fields, the price or the draw date of an active
// raffle. Purchases already created keep the total locked at their creation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Raffle, error) {
	const op = "service.raffles.Update"

	now := s.now()
	if err := in.Validate(now); err != nil {
		return nil, fmt.Errorf("%s:%w", op, domain.NewValidationError(err))
	}

	upd := repository.RaffleUpdate{
		Title:       in.Title,
		Description: in.Description,
		Prize:       in.Prize,
		PriceCents:  in.PriceCents,
		ImageURL:    in.ImageURL,
	}
	if in.DrawDate != nil {
		d := in.DrawDate.UTC()
		upd.DrawDate = &d
	}

	r, err := s.store.UpdateRaffle(ctx, id, upd, now)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err))
	}

	s.changes.RaffleChanged(ctx, id)

	return r, nil
}

// Cancel ends an active raffle without a draw and releases its outstanding
// reservations.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.Raffle, error) {
	const op = "service.raffles.Cancel"

	r, released, err := s.store.CancelRaffle(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapStoreErr(err))
	}

	s.logger.Info("raffle cancelled", "raffle_id", id, "released_reservations", len(released))
	s.changes.RaffleChanged(ctx, id)

	return r, nil
}

// Delete removes a raffle. Active raffles with reserved or sold numbers must
// be cancelled first.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "service.raffles.Delete"

	if err := s.store.DeleteRaffle(ctx, id); err != nil {
		return fmt.Errorf("%s:%w", op, mapStoreErr(err))
	}

	s.logger.Info("raffle deleted", "raffle_id", id)
	s.changes.RaffleChanged(ctx, id)

	return nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrRaffleNotFound
	case errors.Is(err, repository.ErrRaffleNotActive), errors.Is(err, repository.ErrRaffleCompleted):
		return ErrRaffleNotActive
	case errors.Is(err, repository.ErrRaffleInUse):
		return ErrRaffleInUse
	}
	return err
}
