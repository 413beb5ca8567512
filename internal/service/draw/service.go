package draw

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/events"
	"github.com/kirinyoku/raffle-go/internal/metrics"
	"github.com/kirinyoku/raffle-go/internal/notify"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

type Store interface {
	DrawWinner(ctx context.Context, raffleID uuid.UUID, pick repository.PickFunc, now time.Time) (*repository.DrawOutcome, error)
}

type Service struct {
	store    Store
	changes  *events.Changes
	metrics  *metrics.Metrics
	notifier notify.Notifier
	logger   *slog.Logger
	random   io.Reader
	now      func() time.Time
}

func New(
	store Store,
	changes *events.Changes,
	m *metrics.Metrics,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    store,
		changes:  changes,
		metrics:  m,
		notifier: notifier,
		logger:   logger,
		random:   rand.Reader,
		now:      time.Now,
	}
}

// Draw selects the winning number uniformly among the sold numbers of an
// active raffle and completes it.
//
// Returns:
//   - *domain.DrawResult: winning number, its buyer and the audit digest.
//   - error: draw.ErrRaffleNotFound if the raffle does not exist.
//   - error: draw.ErrAlreadyDrawn if the raffle was already drawn.
//   - error: draw.ErrRaffleCancelled if the raffle was cancelled.
//   - error: draw.ErrNoSoldNumbers if nothing was sold.
func (s *Service) Draw(ctx context.Context, raffleID uuid.UUID) (*domain.DrawResult, error) {
	const op = "service.draw.Draw"

	out, err := s.store.DrawWinner(ctx, raffleID, s.picker(raffleID), s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s:%w", op, ErrRaffleNotFound)
		case errors.Is(err, repository.ErrRaffleCompleted):
			return nil, fmt.Errorf("%s:%w", op, ErrAlreadyDrawn)
		case errors.Is(err, repository.ErrRaffleNotActive):
			return nil, fmt.Errorf("%s:%w", op, ErrRaffleCancelled)
		case errors.Is(err, repository.ErrNoSoldNumbers):
			return nil, fmt.Errorf("%s:%w", op, ErrNoSoldNumbers)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	res := &domain.DrawResult{
		RaffleID:     raffleID,
		WinnerNumber: out.Number.Number,
		SoldCount:    len(out.Sold),
		Digest:       out.Raffle.DrawDigest,
	}
	if out.Number.Buyer != nil {
		res.Winner = *out.Number.Buyer
	}
	if out.Raffle.DrawnAt != nil {
		res.DrawnAt = *out.Raffle.DrawnAt
	}

	s.metrics.Drawn()
	s.changes.RaffleChanged(ctx, raffleID)

	s.logger.Info("raffle drawn",
		"raffle_id", raffleID,
		"winner_number", res.WinnerNumber,
		"sold", res.SoldCount,
		"digest", res.Digest,
	)

	notify.Async(ctx, s.notifier, s.logger, notify.DrawCompleted(&out.Raffle, res), "raffle_id", raffleID)

	return res, nil
}

func (s *Service) picker(raffleID uuid.UUID) repository.PickFunc {
	return func(sold []int) (int, string, error) {
		if len(sold) == 0 {
			return 0, "", repository.ErrNoSoldNumbers
		}

		idx, err := rand.Int(s.random, big.NewInt(int64(len(sold))))
		if err != nil {
			return 0, "", err
		}

		return sold[idx.Int64()], Digest(raffleID, sold), nil
	}
}

// Digest fingerprints the candidate set a draw was made from: SHA-256 over
// the raffle id followed by the ascending sold numbers.
func Digest(raffleID uuid.UUID, sold []int) string {
	h := sha256.New()
	h.Write([]byte(raffleID.String()))
	for _, n := range sold {
		h.Write([]byte{':'})
		h.Write([]byte(strconv.Itoa(n)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
