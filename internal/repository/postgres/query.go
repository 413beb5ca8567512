package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

const numberColumns = `number, status, buyer_name, buyer_phone, buyer_email,
	reservation_token, purchase_id, reserved_at, sold_at`

type QueryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *QueryRepo) With(db DB) *QueryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *QueryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *QueryRepo) raffleExists(ctx context.Context, raffleID uuid.UUID) error {
	var exists bool
	if err := r.handle().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM raffles WHERE id = $1)`,
		raffleID,
	).Scan(&exists); err != nil {
		return translateDBErr(err)
	}

	if !exists {
		return repository.ErrNotFound
	}

	return nil
}

func scanNumber(row pgx.Row, raffleID uuid.UUID) (*domain.RaffleNumber, error) {
	var (
		rn                 domain.RaffleNumber
		number             int32
		status             string
		name, phone, email *string
	)

	if err := row.Scan(
		&number, &status, &name, &phone, &email,
		&rn.ReservationToken, &rn.PurchaseID, &rn.ReservedAt, &rn.SoldAt,
	); err != nil {
		return nil, err
	}

	rn.RaffleID = raffleID
	rn.Number = int(number)
	rn.Status = domain.NumberStatus(status)
	if name != nil {
		rn.Buyer = &domain.Buyer{Name: *name}
		if phone != nil {
			rn.Buyer.Phone = *phone
		}
		if email != nil {
			rn.Buyer.Email = *email
		}
	}

	return &rn, nil
}

// GetNumber reads one number of a raffle.
func (r *QueryRepo) GetNumber(ctx context.Context, raffleID uuid.UUID, number int) (*domain.RaffleNumber, error) {
	const op = "postgres.QueryRepo.GetNumber"

	rn, err := scanNumber(r.handle().QueryRow(ctx,
		`SELECT `+numberColumns+` FROM raffle_numbers WHERE raffle_id = $1 AND number = $2`,
		raffleID, number,
	), raffleID)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return rn, nil
}

// ListNumbers lists the numbers of a raffle in ascending order.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - raffleID: unique identifier of the raffle.
//   - f: optional status filter and paging; a zero limit returns every row.
//
// Returns:
//   - []domain.RaffleNumber: the matching numbers.
//   - error: repository.ErrNotFound if the raffle is not found.
func (r *QueryRepo) ListNumbers(
	ctx context.Context,
	raffleID uuid.UUID,
	f repository.NumberFilter,
) ([]domain.RaffleNumber, error) {
	const op = "postgres.QueryRepo.ListNumbers"

	if err := r.raffleExists(ctx, raffleID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	rows, err := r.handle().Query(ctx,
		`SELECT `+numberColumns+`
		   FROM raffle_numbers
		  WHERE raffle_id = $1 AND ($2 = '' OR status = $2)
		  ORDER BY number
		  LIMIT NULLIF($3::int, 0) OFFSET $4`,
		raffleID, string(f.Status), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.RaffleNumber, 0)
	for rows.Next() {
		rn, err := scanNumber(rows, raffleID)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *rn)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// CountNumbers returns the available/reserved/sold partition of a raffle.
func (r *QueryRepo) CountNumbers(ctx context.Context, raffleID uuid.UUID) (*domain.NumberCounts, error) {
	const op = "postgres.QueryRepo.CountNumbers"

	if err := r.raffleExists(ctx, raffleID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var c domain.NumberCounts
	err := r.handle().QueryRow(ctx,
		`SELECT
		     COUNT(*) FILTER (WHERE status = 'available'),
		     COUNT(*) FILTER (WHERE status = 'reserved'),
		     COUNT(*) FILTER (WHERE status = 'sold')
		   FROM raffle_numbers
		  WHERE raffle_id = $1`,
		raffleID,
	).Scan(&c.Available, &c.Reserved, &c.Sold)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	c.Total = c.Available + c.Reserved + c.Sold

	return &c, nil
}

// RaffleStats returns the number partition together with the revenue of
// confirmed purchases.
func (r *QueryRepo) RaffleStats(ctx context.Context, raffleID uuid.UUID) (*domain.RaffleStats, error) {
	const op = "postgres.QueryRepo.RaffleStats"

	c, err := r.CountNumbers(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	st := &domain.RaffleStats{RaffleID: raffleID, NumberCounts: *c}
	if err := r.handle().QueryRow(ctx,
		`SELECT COALESCE(SUM(total_cents), 0)::bigint
		   FROM purchases
		  WHERE raffle_id = $1 AND status = 'confirmed'`,
		raffleID,
	).Scan(&st.RevenueCents); err != nil {
		return nil, wrapDBErr(op, err)
	}

	if st.Total > 0 {
		st.ProgressPercentage = float64(st.Sold) / float64(st.Total) * 100
	}

	return st, nil
}

func (r *QueryRepo) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	const op = "postgres.QueryRepo.AdminStats"

	var st domain.AdminStats
	err := r.handle().QueryRow(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM raffles),
		     (SELECT COUNT(*) FROM raffles WHERE status = 'active'),
		     (SELECT COUNT(*) FROM raffles WHERE status = 'completed'),
		     (SELECT COUNT(*) FROM purchases WHERE status = 'confirmed'),
		     (SELECT COUNT(*) FROM raffle_numbers WHERE status = 'sold'),
		     (SELECT COALESCE(SUM(total_cents), 0)::bigint FROM purchases WHERE status = 'confirmed')`,
	).Scan(
		&st.TotalRaffles,
		&st.ActiveRaffles,
		&st.CompletedRaffles,
		&st.TotalPurchases,
		&st.NumbersSold,
		&st.RevenueCents,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &st, nil
}
