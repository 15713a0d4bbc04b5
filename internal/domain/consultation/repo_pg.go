package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/date"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_consults (id, patient_id, doctor_id, area, day)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PatientID, c.DoctorID, c.Area, date.Of(c.Day))
	return err
}

const viewQuery = `
	SELECT m.id, p.num_document, d.num_document, m.area, m.day
	FROM medical_consults m
	JOIN user_roles p ON p.id = m.patient_id
	JOIN user_roles d ON d.id = m.doctor_id`

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*View, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_consults`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, viewQuery+`
		ORDER BY m.day DESC, m.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanViews(rows)
	return items, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientDocument string) ([]*View, error) {
	rows, err := r.conn(ctx).Query(ctx, viewQuery+`
		WHERE p.num_document = $1
		ORDER BY m.day DESC, m.created_at DESC`, patientDocument)
	if err != nil {
		return nil, err
	}
	return scanViews(rows)
}

func scanViews(rows pgx.Rows) ([]*View, error) {
	defer rows.Close()
	var items []*View
	for rows.Next() {
		var v View
		var day time.Time
		if err := rows.Scan(&v.ID, &v.PatientDocument, &v.DoctorDocument, &v.Area, &day); err != nil {
			return nil, err
		}
		v.Day = date.New(day)
		items = append(items, &v)
	}
	return items, rows.Err()
}
