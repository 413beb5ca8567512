package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

const purchaseColumns = `id, raffle_id, numbers, buyer_name, buyer_phone, buyer_email, total_cents,
	currency, status, reservation_token, COALESCE(session_id, ''), checkout_url, created_at, updated_at`

type PurchaseRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PurchaseRepo) With(db DB) *PurchaseRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PurchaseRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var (
		p       domain.Purchase
		numbers []int32
		status  string
	)

	if err := row.Scan(
		&p.ID, &p.RaffleID, &numbers, &p.Buyer.Name, &p.Buyer.Phone, &p.Buyer.Email, &p.TotalCents,
		&p.Currency, &status, &p.ReservationToken, &p.SessionID, &p.CheckoutURL, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Numbers = fromInt32s(numbers)
	p.Status = domain.PurchaseStatus(status)

	return &p, nil
}

func (r *PurchaseRepo) Insert(ctx context.Context, p domain.Purchase) error {
	const op = "postgres.PurchaseRepo.Insert"

	if _, err := r.handle().Exec(ctx,
		`INSERT INTO purchases (id, raffle_id, numbers, buyer_name, buyer_phone, buyer_email,
		                        total_cents, currency, status, reservation_token, session_id,
		                        checkout_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14)`,
		p.ID, p.RaffleID, toInt32s(p.Numbers), p.Buyer.Name, p.Buyer.Phone, p.Buyer.Email,
		p.TotalCents, p.Currency, string(p.Status), p.ReservationToken, p.SessionID,
		p.CheckoutURL, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// AttachSession records the payment session created for a purchase.
// A session already bound to another purchase yields repository.ErrConflict.
func (r *PurchaseRepo) AttachSession(
	ctx context.Context,
	id uuid.UUID,
	sessionID, checkoutURL string,
	now time.Time,
) error {
	const op = "postgres.PurchaseRepo.AttachSession"

	tag, err := r.handle().Exec(ctx,
		`UPDATE purchases SET session_id = $2, checkout_url = $3, updated_at = $4
		  WHERE id = $1`,
		id, sessionID, checkoutURL, now,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *PurchaseRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.Get"

	p, err := scanPurchase(r.handle().QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return p, nil
}

func (r *PurchaseRepo) GetBySession(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.GetBySession"

	p, err := scanPurchase(r.handle().QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE session_id = $1`,
		sessionID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return p, nil
}

func (r *PurchaseRepo) GetByToken(ctx context.Context, token uuid.UUID) (*domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.GetByToken"

	p, err := scanPurchase(r.handle().QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE reservation_token = $1`,
		token,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return p, nil
}

// List returns purchases newest first. uuid.Nil lists every raffle.
func (r *PurchaseRepo) List(ctx context.Context, raffleID uuid.UUID) ([]domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT `+purchaseColumns+`
		   FROM purchases
		  WHERE $1 = '00000000-0000-0000-0000-000000000000'::uuid OR raffle_id = $1
		  ORDER BY created_at DESC, id`,
		raffleID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// SetStatusByToken moves the purchase bound to token from one status to
// another. It returns the purchase as stored afterwards, or nil when no
// purchase is bound to the token.
func (r *PurchaseRepo) SetStatusByToken(
	ctx context.Context,
	token uuid.UUID,
	from, to domain.PurchaseStatus,
	now time.Time,
) (*domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.SetStatusByToken"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`UPDATE purchases SET status = $3, updated_at = $4
		  WHERE reservation_token = $1 AND status = $2`,
		token, string(from), string(to), now,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}

	p, err := r.With(db).GetByToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}
