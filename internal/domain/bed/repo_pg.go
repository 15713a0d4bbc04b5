package bed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/date"
)

const constraintRoom = "beds_room_key"

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO beds (id, room) VALUES ($1, $2) RETURNING created_at`, b.ID, b.Room,
	).Scan(&b.CreatedAt)
	if uv := db.AsUniqueViolation(err); uv != nil && uv.Constraint == constraintRoom {
		return ErrRoomTaken
	}
	return err
}

func (r *repoPG) GetByRoom(ctx context.Context, room string) (*Bed, error) {
	var b Bed
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, room, created_at FROM beds WHERE room = $1`, room,
	).Scan(&b.ID, &b.Room, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBedNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM beds WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return ErrBedInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBedNotFound
	}
	return nil
}

func (r *repoPG) IsOccupied(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM beds_used WHERE bed_id = $1)`, id,
	).Scan(&used)
	return used, err
}

func (r *repoPG) List(ctx context.Context) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, room, created_at FROM beds ORDER BY room`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Bed
	for rows.Next() {
		var b Bed
		if err := rows.Scan(&b.ID, &b.Room, &b.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &b)
	}
	return items, rows.Err()
}

func (r *repoPG) ListWithOccupancy(ctx context.Context) ([]*BedView, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT b.room, p.num_document, d.num_document, h.entry_date
		FROM beds b
		LEFT JOIN beds_used u ON u.bed_id = b.id
		LEFT JOIN user_roles p ON p.id = u.patient_id
		LEFT JOIN user_roles d ON d.id = u.doctor_id
		LEFT JOIN hospitalizations h ON h.patient_id = u.patient_id AND h.discharge_date IS NULL
		ORDER BY b.room`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BedView
	for rows.Next() {
		var v BedView
		var since *time.Time
		if err := rows.Scan(&v.Room, &v.PatientDocument, &v.DoctorDocument, &since); err != nil {
			return nil, err
		}
		v.Occupied = v.PatientDocument != nil
		v.Since = date.Ptr(since)
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *repoPG) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM beds), (SELECT COUNT(*) FROM beds_used)`,
	).Scan(&c.Total, &c.Occupied)
	if err != nil {
		return Counts{}, fmt.Errorf("count beds: %w", err)
	}
	return c, nil
}
