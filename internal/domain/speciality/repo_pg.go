package speciality

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

const (
	constraintName = "specialities_name_key"
	constraintPair = "doctor_specialities_pair_key"
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

func (r *repoPG) List(ctx context.Context) ([]*Speciality, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, description FROM specialities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanSpecialities(rows)
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Speciality, error) {
	var s Speciality
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, description FROM specialities WHERE name = $1`, name).
		Scan(&s.ID, &s.Name, &s.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSpecialityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Speciality) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO specialities (id, name, description) VALUES ($1, $2, $3)`,
		s.ID, s.Name, s.Description)
	if uv := db.AsUniqueViolation(err); uv != nil && uv.Constraint == constraintName {
		return ErrSpecialityExists
	}
	return err
}

func (r *repoPG) Link(ctx context.Context, doctorID, specialityID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_specialities (id, doctor_id, speciality_id) VALUES ($1, $2, $3)`,
		uuid.New(), doctorID, specialityID)
	if uv := db.AsUniqueViolation(err); uv != nil && uv.Constraint == constraintPair {
		return ErrAlreadyAssigned
	}
	return err
}

func (r *repoPG) Unlink(ctx context.Context, doctorID, specialityID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM doctor_specialities WHERE doctor_id = $1 AND speciality_id = $2`,
		doctorID, specialityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAssigned
	}
	return nil
}

func (r *repoPG) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Speciality, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT s.id, s.name, s.description
		FROM specialities s
		JOIN doctor_specialities ds ON ds.speciality_id = s.id
		WHERE ds.doctor_id = $1
		ORDER BY s.name`, doctorID)
	if err != nil {
		return nil, err
	}
	return scanSpecialities(rows)
}

func (r *repoPG) DoctorsWith(ctx context.Context, specialityID uuid.UUID, activeOnly bool) ([]*DoctorRef, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ur.num_document, ui.name, ui.surname, ur.is_active
		FROM doctor_specialities ds
		JOIN user_roles ur ON ur.id = ds.doctor_id
		JOIN users_info ui ON ui.num_document = ur.num_document
		WHERE ds.speciality_id = $1 AND ($2 = FALSE OR ur.is_active)
		ORDER BY ur.num_document`, specialityID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*DoctorRef
	for rows.Next() {
		var d DoctorRef
		if err := rows.Scan(&d.NumDocument, &d.Name, &d.Surname, &d.IsActive); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func scanSpecialities(rows pgx.Rows) ([]*Speciality, error) {
	defer rows.Close()
	var out []*Speciality
	for rows.Next() {
		var s Speciality
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
