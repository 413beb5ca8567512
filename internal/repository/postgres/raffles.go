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

const raffleColumns = `id, title, description, prize, price_cents, total_numbers, image_url,
	draw_date, status, winner_number, drawn_at, draw_digest, created_at, updated_at`

type RaffleRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *RaffleRepo) With(db DB) *RaffleRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *RaffleRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func scanRaffle(row pgx.Row) (*domain.Raffle, error) {
	var (
		rf     domain.Raffle
		status string
		winner *int32
	)

	if err := row.Scan(
		&rf.ID, &rf.Title, &rf.Description, &rf.Prize, &rf.PriceCents, &rf.TotalNumbers, &rf.ImageURL,
		&rf.DrawDate, &status, &winner, &rf.DrawnAt, &rf.DrawDigest, &rf.CreatedAt, &rf.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rf.Status = domain.RaffleStatus(status)
	if winner != nil {
		w := int(*winner)
		rf.WinnerNumber = &w
	}

	return &rf, nil
}

// Insert stores a raffle and creates its numbers 1..total_numbers as
// available.
func (r *RaffleRepo) Insert(ctx context.Context, rf domain.Raffle) error {
	const op = "postgres.RaffleRepo.Insert"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO raffles (id, title, description, prize, price_cents, total_numbers,
		                      image_url, draw_date, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rf.ID, rf.Title, rf.Description, rf.Prize, rf.PriceCents, rf.TotalNumbers,
		rf.ImageURL, rf.DrawDate, string(rf.Status), rf.CreatedAt, rf.UpdatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO raffle_numbers (raffle_id, number)
		 SELECT $1, n FROM generate_series(1, $2::int) AS n`,
		rf.ID, rf.TotalNumbers,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Get retrieves a raffle by its ID.
//
// Returns:
//   - *domain.Raffle: the raffle when found.
//   - error: repository.ErrNotFound if the raffle does not exist.
func (r *RaffleRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Raffle, error) {
	const op = "postgres.RaffleRepo.Get"

	rf, err := scanRaffle(r.handle().QueryRow(ctx,
		`SELECT `+raffleColumns+` FROM raffles WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return rf, nil
}

// Lock reads the raffle and holds its row lock until the transaction ends.
// Every ledger mutation takes this lock first.
func (r *RaffleRepo) Lock(ctx context.Context, id uuid.UUID) (*domain.Raffle, error) {
	const op = "postgres.RaffleRepo.Lock"

	rf, err := scanRaffle(r.handle().QueryRow(ctx,
		`SELECT `+raffleColumns+` FROM raffles WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return rf, nil
}

func (r *RaffleRepo) List(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	const op = "postgres.RaffleRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT `+raffleColumns+`
		   FROM raffles
		  WHERE $1 = '' OR status = $1
		  ORDER BY created_at DESC, id`,
		string(status),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Raffle, 0)
	for rows.Next() {
		rf, err := scanRaffle(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *rf)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Update applies the non-nil fields of upd.
func (r *RaffleRepo) Update(
	ctx context.Context,
	id uuid.UUID,
	upd repository.RaffleUpdate,
	now time.Time,
) (*domain.Raffle, error) {
	const op = "postgres.RaffleRepo.Update"

	rf, err := scanRaffle(r.handle().QueryRow(ctx,
		`UPDATE raffles
		    SET title       = COALESCE($2, title),
		        description = COALESCE($3, description),
		        prize       = COALESCE($4, prize),
		        price_cents = COALESCE($5, price_cents),
		        image_url   = COALESCE($6, image_url),
		        draw_date   = COALESCE($7, draw_date),
		        updated_at  = $8
		  WHERE id = $1
		 RETURNING `+raffleColumns,
		id, upd.Title, upd.Description, upd.Prize, upd.PriceCents, upd.ImageURL, upd.DrawDate, now,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return rf, nil
}

func (r *RaffleRepo) SetStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RaffleStatus,
	now time.Time,
) (*domain.Raffle, error) {
	const op = "postgres.RaffleRepo.SetStatus"

	rf, err := scanRaffle(r.handle().QueryRow(ctx,
		`UPDATE raffles SET status = $2, updated_at = $3
		  WHERE id = $1
		 RETURNING `+raffleColumns,
		id, string(status), now,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return rf, nil
}

// Complete records the draw result and closes the raffle.
func (r *RaffleRepo) Complete(
	ctx context.Context,
	id uuid.UUID,
	winner int,
	digest string,
	now time.Time,
) (*domain.Raffle, error) {
	const op = "postgres.RaffleRepo.Complete"

	rf, err := scanRaffle(r.handle().QueryRow(ctx,
		`UPDATE raffles
		    SET status = 'completed', winner_number = $2, draw_digest = $3,
		        drawn_at = $4, updated_at = $4
		  WHERE id = $1 AND status = 'active'
		 RETURNING `+raffleColumns,
		id, winner, digest, now,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return rf, nil
}

// HasClaimedNumbers reports whether any number is reserved or sold.
func (r *RaffleRepo) HasClaimedNumbers(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "postgres.RaffleRepo.HasClaimedNumbers"

	var claimed bool
	if err := r.handle().QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM raffle_numbers
		      WHERE raffle_id = $1 AND status <> 'available')`,
		id,
	).Scan(&claimed); err != nil {
		return false, wrapDBErr(op, err)
	}

	return claimed, nil
}

// Delete removes the raffle with its numbers, purchases and reservations.
func (r *RaffleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.RaffleRepo.Delete"

	db := r.handle()

	for _, q := range []string{
		`DELETE FROM raffle_numbers WHERE raffle_id = $1`,
		`DELETE FROM purchases WHERE raffle_id = $1`,
		`DELETE FROM reservations WHERE raffle_id = $1`,
	} {
		if _, err := db.Exec(ctx, q, id); err != nil {
			return wrapDBErr(op, err)
		}
	}

	tag, err := db.Exec(ctx, `DELETE FROM raffles WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
