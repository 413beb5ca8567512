package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

// expireBatch bounds how many due reservations one sweep picks up.
const expireBatch = 500

func (s *Store) CreateRaffle(ctx context.Context, r domain.Raffle) error {
	const op = "postgres.Store.CreateRaffle"

	if r.TotalNumbers < 1 {
		return fmt.Errorf("%s:%w", op, repository.ErrNumberOutOfRange)
	}

	if err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		return s.Raffles().With(tx).Insert(ctx, r)
	}); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Store) GetRaffle(ctx context.Context, id uuid.UUID) (*domain.Raffle, error) {
	return s.Raffles().Get(ctx, id)
}

// ListRaffles returns raffles newest first. An empty status lists all of them.
func (s *Store) ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	return s.Raffles().List(ctx, status)
}

func (s *Store) UpdateRaffle(
	ctx context.Context,
	id uuid.UUID,
	upd repository.RaffleUpdate,
	now time.Time,
) (*domain.Raffle, error) {
	const op = "postgres.Store.UpdateRaffle"

	var out *domain.Raffle
	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		raffles := s.Raffles().With(tx)

		rf, err := raffles.Lock(ctx, id)
		if err != nil {
			return err
		}

		if rf.Status != domain.RaffleActive {
			return repository.ErrRaffleNotActive
		}

		out, err = raffles.Update(ctx, id, upd, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// CancelRaffle moves an active raffle to cancelled and releases every
// outstanding reservation on it.
func (s *Store) CancelRaffle(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) (*domain.Raffle, []repository.Resolution, error) {
	const op = "postgres.Store.CancelRaffle"

	var (
		out      *domain.Raffle
		released []repository.Resolution
	)

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		raffles := s.Raffles().With(tx)

		rf, err := raffles.Lock(ctx, id)
		if err != nil {
			return err
		}

		if rf.Status != domain.RaffleActive {
			return repository.ErrRaffleNotActive
		}

		released, err = s.releaseAll(ctx, tx, id, now)
		if err != nil {
			return err
		}

		out, err = raffles.SetStatus(ctx, id, domain.RaffleCancelled, now)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, released, nil
}

// DeleteRaffle removes the raffle with its numbers, reservations and
// purchases. An active raffle with claimed numbers cannot be deleted.
func (s *Store) DeleteRaffle(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Store.DeleteRaffle"

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		raffles := s.Raffles().With(tx)

		rf, err := raffles.Lock(ctx, id)
		if err != nil {
			return err
		}

		if rf.Status == domain.RaffleActive {
			claimed, err := raffles.HasClaimedNumbers(ctx, id)
			if err != nil {
				return err
			}
			if claimed {
				return repository.ErrRaffleInUse
			}
		}

		return raffles.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Reserve claims every requested number for the buyer or none of them.
func (s *Store) Reserve(ctx context.Context, p repository.ReserveParams) (*domain.Reservation, error) {
	const op = "postgres.Store.Reserve"

	numbers := slices.Clone(p.Numbers)
	slices.Sort(numbers)

	var out *domain.Reservation
	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		ledger := s.Ledger().With(tx)

		rf, err := s.Raffles().With(tx).Lock(ctx, p.RaffleID)
		if err != nil {
			return err
		}

		if rf.Status != domain.RaffleActive {
			return repository.ErrRaffleNotActive
		}

		for i, n := range numbers {
			if i > 0 && numbers[i-1] == n {
				return fmt.Errorf("%d:%w", n, repository.ErrDuplicateNumber)
			}
			if !rf.InRange(n) {
				return fmt.Errorf("%d:%w", n, repository.ErrNumberOutOfRange)
			}
		}

		taken, err := ledger.Unavailable(ctx, p.RaffleID, numbers)
		if err != nil {
			return err
		}

		if len(taken) > 0 {
			return repository.NumbersUnavailableError{Numbers: taken}
		}

		res := domain.Reservation{
			Token:     p.Token,
			RaffleID:  p.RaffleID,
			Numbers:   numbers,
			Buyer:     p.Buyer,
			Status:    domain.ReservationActive,
			ExpiresAt: p.ExpiresAt,
			CreatedAt: p.Now,
		}

		if err := ledger.InsertReservation(ctx, res); err != nil {
			return err
		}

		claimed, err := ledger.Claim(ctx, res)
		if err != nil {
			return err
		}

		if claimed != int64(len(numbers)) {
			return fmt.Errorf("claimed %d of %d numbers:%w", claimed, len(numbers), repository.ErrConflict)
		}

		out = &res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// lockReservation locks the raffle that owns token and then the reservation
// row, in that order.
func (s *Store) lockReservation(
	ctx context.Context,
	tx DB,
	token uuid.UUID,
) (*domain.Reservation, *domain.Raffle, error) {
	res, err := s.Ledger().With(tx).GetReservation(ctx, token, false)
	if err != nil {
		return nil, nil, err
	}

	rf, err := s.Raffles().With(tx).Lock(ctx, res.RaffleID)
	if err != nil {
		return nil, nil, err
	}

	res, err = s.Ledger().With(tx).GetReservation(ctx, token, true)
	if err != nil {
		return nil, nil, err
	}

	return res, rf, nil
}

// Confirm turns the reserved numbers into sold ones and confirms the pending
// purchase bound to the token, if any.
func (s *Store) Confirm(ctx context.Context, token uuid.UUID, now time.Time) (*repository.Resolution, error) {
	const op = "postgres.Store.Confirm"

	var out *repository.Resolution
	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		ledger := s.Ledger().With(tx)
		purchases := s.Purchases().With(tx)

		res, rf, err := s.lockReservation(ctx, tx, token)
		if err != nil {
			return err
		}

		if res.Status != domain.ReservationActive {
			return repository.ErrAlreadyResolved
		}

		if rf.Status != domain.RaffleActive {
			return repository.ErrRaffleNotActive
		}

		var purchaseID *uuid.UUID
		p, err := purchases.GetByToken(ctx, token)
		switch {
		case err == nil:
			purchaseID = &p.ID
		case !isNotFound(err):
			return err
		}

		if _, err := ledger.Sell(ctx, token, purchaseID, now); err != nil {
			return err
		}

		resolved, err := ledger.Resolve(ctx, token, domain.ReservationConfirmed, now)
		if err != nil {
			return err
		}

		out = &repository.Resolution{Reservation: *resolved}
		if purchaseID != nil {
			out.Purchase, err = purchases.SetStatusByToken(
				ctx, token, domain.PurchasePending, domain.PurchaseConfirmed, now,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Release returns the reserved numbers to the pool and cancels the pending
// purchase bound to the token, if any.
func (s *Store) Release(ctx context.Context, token uuid.UUID, now time.Time) (*repository.Resolution, error) {
	const op = "postgres.Store.Release"

	var out *repository.Resolution
	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		res, _, err := s.lockReservation(ctx, tx, token)
		if err != nil {
			return err
		}

		if res.Status != domain.ReservationActive {
			return repository.ErrAlreadyResolved
		}

		out, err = s.release(ctx, tx, token, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ExpireReservations releases every active reservation whose deadline is at
// or before now. Each reservation is released in its own transaction.
func (s *Store) ExpireReservations(ctx context.Context, now time.Time) ([]repository.Resolution, error) {
	const op = "postgres.Store.ExpireReservations"

	due, err := s.Ledger().DueTokens(ctx, now, expireBatch)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var out []repository.Resolution
	for _, token := range due {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("%s:%w", op, err)
		}

		var resolved *repository.Resolution
		err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
			res, _, err := s.lockReservation(ctx, tx, token)
			if err != nil {
				return err
			}

			if res.Status != domain.ReservationActive || res.ExpiresAt.After(now) {
				return nil
			}

			resolved, err = s.release(ctx, tx, token, now)
			return err
		})
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return out, fmt.Errorf("%s:%w", op, err)
		}

		if resolved != nil {
			out = append(out, *resolved)
		}
	}

	return out, nil
}

func (s *Store) GetReservation(ctx context.Context, token uuid.UUID) (*domain.Reservation, error) {
	return s.Ledger().GetReservation(ctx, token, false)
}

func (s *Store) ListNumbers(
	ctx context.Context,
	raffleID uuid.UUID,
	f repository.NumberFilter,
) ([]domain.RaffleNumber, error) {
	return s.Query().ListNumbers(ctx, raffleID, f)
}

func (s *Store) CountNumbers(ctx context.Context, raffleID uuid.UUID) (*domain.NumberCounts, error) {
	return s.Query().CountNumbers(ctx, raffleID)
}

func (s *Store) RaffleStats(ctx context.Context, raffleID uuid.UUID) (*domain.RaffleStats, error) {
	return s.Query().RaffleStats(ctx, raffleID)
}

func (s *Store) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	return s.Query().AdminStats(ctx)
}

// CreatePurchase stores a pending purchase bound to an active reservation.
func (s *Store) CreatePurchase(ctx context.Context, p domain.Purchase) error {
	const op = "postgres.Store.CreatePurchase"

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		res, _, err := s.lockReservation(ctx, tx, p.ReservationToken)
		if err != nil {
			return err
		}

		if res.Status != domain.ReservationActive {
			return repository.ErrAlreadyResolved
		}

		return s.Purchases().With(tx).Insert(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// AttachSession records the payment session created for a purchase.
func (s *Store) AttachSession(
	ctx context.Context,
	purchaseID uuid.UUID,
	sessionID, checkoutURL string,
	now time.Time,
) error {
	return s.Purchases().AttachSession(ctx, purchaseID, sessionID, checkoutURL, now)
}

func (s *Store) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	return s.Purchases().Get(ctx, id)
}

func (s *Store) GetPurchaseBySession(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	return s.Purchases().GetBySession(ctx, sessionID)
}

// ListPurchases returns purchases newest first. uuid.Nil lists every raffle.
func (s *Store) ListPurchases(ctx context.Context, raffleID uuid.UUID) ([]domain.Purchase, error) {
	return s.Purchases().List(ctx, raffleID)
}

// DrawWinner picks the winner from the sold numbers read under the raffle
// lock, completes the raffle and releases outstanding reservations. When the
// transaction is retried the pick runs again on the fresh snapshot.
func (s *Store) DrawWinner(
	ctx context.Context,
	raffleID uuid.UUID,
	pick repository.PickFunc,
	now time.Time,
) (*repository.DrawOutcome, error) {
	const op = "postgres.Store.DrawWinner"

	var out *repository.DrawOutcome
	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		raffles := s.Raffles().With(tx)

		rf, err := raffles.Lock(ctx, raffleID)
		if err != nil {
			return err
		}

		switch rf.Status {
		case domain.RaffleActive:
		case domain.RaffleCompleted:
			return repository.ErrRaffleCompleted
		default:
			return repository.ErrRaffleNotActive
		}

		sold, err := s.Ledger().With(tx).SoldNumbers(ctx, raffleID)
		if err != nil {
			return err
		}

		if len(sold) == 0 {
			return repository.ErrNoSoldNumbers
		}

		winner, digest, err := pick(slices.Clone(sold))
		if err != nil {
			return err
		}

		if _, ok := slices.BinarySearch(sold, winner); !ok {
			return fmt.Errorf("winner %d is not sold:%w", winner, repository.ErrConflict)
		}

		if _, err := s.releaseAll(ctx, tx, raffleID, now); err != nil {
			return err
		}

		completed, err := raffles.Complete(ctx, raffleID, winner, digest, now)
		if err != nil {
			return err
		}

		number, err := s.Query().With(tx).GetNumber(ctx, raffleID, winner)
		if err != nil {
			return err
		}

		out = &repository.DrawOutcome{Raffle: *completed, Number: *number, Sold: sold}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// releaseAll releases every active reservation of the raffle. The caller
// holds the raffle lock.
func (s *Store) releaseAll(
	ctx context.Context,
	tx DB,
	raffleID uuid.UUID,
	now time.Time,
) ([]repository.Resolution, error) {
	tokens, err := s.Ledger().With(tx).ActiveTokens(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	var out []repository.Resolution
	for _, token := range tokens {
		r, err := s.release(ctx, tx, token, now)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyResolved) {
				continue
			}
			return nil, err
		}
		out = append(out, *r)
	}

	return out, nil
}

// release frees the numbers held by token, marks the reservation released
// and cancels its pending purchase. The caller holds the raffle lock.
func (s *Store) release(
	ctx context.Context,
	tx DB,
	token uuid.UUID,
	now time.Time,
) (*repository.Resolution, error) {
	ledger := s.Ledger().With(tx)

	if _, err := ledger.Free(ctx, token); err != nil {
		return nil, err
	}

	res, err := ledger.Resolve(ctx, token, domain.ReservationReleased, now)
	if err != nil {
		return nil, err
	}

	p, err := s.Purchases().With(tx).SetStatusByToken(
		ctx, token, domain.PurchasePending, domain.PurchaseCancelled, now,
	)
	if err != nil {
		return nil, err
	}

	return &repository.Resolution{Reservation: *res, Purchase: p}, nil
}
