package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

const reservationColumns = `token, raffle_id, numbers, buyer_name, buyer_phone, buyer_email,
	status, expires_at, created_at, resolved_at`

// LedgerRepo holds the number claims: reservations and the per-number
// status rows they move between available, reserved and sold.
type LedgerRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *LedgerRepo) With(db DB) *LedgerRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *LedgerRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var (
		res     domain.Reservation
		numbers []int32
		status  string
	)

	if err := row.Scan(
		&res.Token, &res.RaffleID, &numbers, &res.Buyer.Name, &res.Buyer.Phone, &res.Buyer.Email,
		&status, &res.ExpiresAt, &res.CreatedAt, &res.ResolvedAt,
	); err != nil {
		return nil, err
	}

	res.Numbers = fromInt32s(numbers)
	res.Status = domain.ReservationStatus(status)

	return &res, nil
}

// Unavailable returns, in ascending order, every number of the list that is
// currently reserved or sold.
func (r *LedgerRepo) Unavailable(ctx context.Context, raffleID uuid.UUID, numbers []int) ([]int, error) {
	const op = "postgres.LedgerRepo.Unavailable"

	rows, err := r.handle().Query(ctx,
		`SELECT number FROM raffle_numbers
		  WHERE raffle_id = $1 AND number = ANY($2) AND status <> 'available'
		  ORDER BY number`,
		raffleID, toInt32s(numbers),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	taken, err := collectInts(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return taken, nil
}

func (r *LedgerRepo) InsertReservation(ctx context.Context, res domain.Reservation) error {
	const op = "postgres.LedgerRepo.InsertReservation"

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO reservations (token, raffle_id, numbers, buyer_name, buyer_phone, buyer_email,
		                           status, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.Token, res.RaffleID, toInt32s(res.Numbers), res.Buyer.Name, res.Buyer.Phone, res.Buyer.Email,
		string(res.Status), res.ExpiresAt, res.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Claim moves the reservation's numbers from available to reserved and
// returns how many rows changed.
func (r *LedgerRepo) Claim(ctx context.Context, res domain.Reservation) (int64, error) {
	const op = "postgres.LedgerRepo.Claim"

	tag, err := r.handle().Exec(ctx,
		`UPDATE raffle_numbers
		    SET status = 'reserved', buyer_name = $3, buyer_phone = $4, buyer_email = $5,
		        reservation_token = $6, reserved_at = $7, purchase_id = NULL, sold_at = NULL
		  WHERE raffle_id = $1 AND number = ANY($2) AND status = 'available'`,
		res.RaffleID, toInt32s(res.Numbers), res.Buyer.Name, res.Buyer.Phone, res.Buyer.Email,
		res.Token, res.CreatedAt,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

// GetReservation reads a reservation; with lock it also holds the row lock.
func (r *LedgerRepo) GetReservation(ctx context.Context, token uuid.UUID, lock bool) (*domain.Reservation, error) {
	const op = "postgres.LedgerRepo.GetReservation"

	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE token = $1`
	if lock {
		q += ` FOR UPDATE`
	}

	res, err := scanReservation(r.handle().QueryRow(ctx, q, token))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

// Resolve moves an active reservation to its final status.
func (r *LedgerRepo) Resolve(
	ctx context.Context,
	token uuid.UUID,
	status domain.ReservationStatus,
	now time.Time,
) (*domain.Reservation, error) {
	const op = "postgres.LedgerRepo.Resolve"

	res, err := scanReservation(r.handle().QueryRow(ctx,
		`UPDATE reservations SET status = $2, resolved_at = $3
		  WHERE token = $1 AND status = 'active'
		 RETURNING `+reservationColumns,
		token, string(status), now,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s:%w", op, repository.ErrAlreadyResolved)
		}
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

// Sell turns the numbers reserved under token into sold ones.
func (r *LedgerRepo) Sell(ctx context.Context, token uuid.UUID, purchaseID *uuid.UUID, now time.Time) (int64, error) {
	const op = "postgres.LedgerRepo.Sell"

	tag, err := r.handle().Exec(ctx,
		`UPDATE raffle_numbers
		    SET status = 'sold', sold_at = $3, purchase_id = $2
		  WHERE reservation_token = $1 AND status = 'reserved'`,
		token, purchaseID, now,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

// Free returns the numbers reserved under token to the available pool.
func (r *LedgerRepo) Free(ctx context.Context, token uuid.UUID) (int64, error) {
	const op = "postgres.LedgerRepo.Free"

	tag, err := r.handle().Exec(ctx,
		`UPDATE raffle_numbers
		    SET status = 'available', buyer_name = NULL, buyer_phone = NULL, buyer_email = NULL,
		        reservation_token = NULL, purchase_id = NULL, reserved_at = NULL, sold_at = NULL
		  WHERE reservation_token = $1 AND status = 'reserved'`,
		token,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

// DueTokens lists active reservations whose deadline is at or before now,
// oldest first.
func (r *LedgerRepo) DueTokens(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	const op = "postgres.LedgerRepo.DueTokens"

	rows, err := r.handle().Query(ctx,
		`SELECT token FROM reservations
		  WHERE status = 'active' AND expires_at <= $1
		  ORDER BY expires_at
		  LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	tokens, err := collectUUIDs(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return tokens, nil
}

func (r *LedgerRepo) ActiveTokens(ctx context.Context, raffleID uuid.UUID) ([]uuid.UUID, error) {
	const op = "postgres.LedgerRepo.ActiveTokens"

	rows, err := r.handle().Query(ctx,
		`SELECT token FROM reservations
		  WHERE raffle_id = $1 AND status = 'active'
		  ORDER BY created_at`,
		raffleID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	tokens, err := collectUUIDs(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return tokens, nil
}

// SoldNumbers returns the sold numbers of a raffle in ascending order.
func (r *LedgerRepo) SoldNumbers(ctx context.Context, raffleID uuid.UUID) ([]int, error) {
	const op = "postgres.LedgerRepo.SoldNumbers"

	rows, err := r.handle().Query(ctx,
		`SELECT number FROM raffle_numbers
		  WHERE raffle_id = $1 AND status = 'sold'
		  ORDER BY number`,
		raffleID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	sold, err := collectInts(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return sold, nil
}

func collectInts(rows pgx.Rows) ([]int, error) {
	nums, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, err
	}
	return fromInt32s(nums), nil
}

func collectUUIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, n := range in {
		out[i] = int32(n)
	}
	return out
}

func fromInt32s(in []int32) []int {
	out := make([]int, len(in))
	for i, n := range in {
		out[i] = int(n)
	}
	return out
}
