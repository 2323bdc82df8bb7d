package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinic-api/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const bookingCols = `id, slot_id, patient_id, status, reason, requested_at, updated_at`

func scanBooking(row pgx.Row) (*BookingRequest, error) {
	var b BookingRequest
	err := row.Scan(&b.ID, &b.SlotID, &b.PatientID, &b.Status, &b.Reason,
		&b.RequestedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *repoPG) Create(ctx context.Context, b *BookingRequest) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO booking_request (id, slot_id, patient_id, status, reason)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.SlotID, b.PatientID, b.Status, b.Reason)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateBooking
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*BookingRequest, error) {
	return scanBooking(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bookingCols+` FROM booking_request WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, b *BookingRequest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE booking_request SET slot_id=$2, status=$3, reason=$4, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.SlotID, b.Status, b.Reason)
	// Repointing slot_id can collide with the active-booking unique
	// index just like an insert does.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateBooking
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM booking_request WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ExistsActive(ctx context.Context, slotID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM booking_request
			WHERE slot_id = $1 AND patient_id = $2 AND status IN ('pending','accepted')
		)`, slotID, patientID).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListActiveBySlot(ctx context.Context, slotID uuid.UUID) ([]*BookingRequest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bookingCols+` FROM booking_request
		WHERE slot_id = $1 AND status IN ('pending','accepted')
		ORDER BY requested_at ASC`, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BookingRequest
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*BookingRequest, int, error) {
	query := `SELECT ` + bookingCols + ` FROM booking_request WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM booking_request WHERE 1=1`
	var args []interface{}
	idx := 1

	addFilter := func(clause string, value interface{}) {
		query += fmt.Sprintf(clause, idx)
		countQuery += fmt.Sprintf(clause, idx)
		args = append(args, value)
		idx++
	}

	if p, ok := params["slot_id"]; ok {
		addFilter(` AND slot_id = $%d`, p)
	}
	if p, ok := params["status"]; ok {
		addFilter(` AND status = $%d`, p)
	}
	if p, ok := params["from"]; ok {
		addFilter(` AND requested_at >= $%d`, p)
	}
	if p, ok := params["to"]; ok {
		addFilter(` AND requested_at <= $%d`, p)
	}
	if p, ok := params["search"]; ok {
		addFilter(` AND patient_id IN (SELECT id FROM patient WHERE name ILIKE $%d)`, "%"+p+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BookingRequest
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}
