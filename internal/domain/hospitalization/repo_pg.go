package hospitalization

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

// Constraint names from the occupancy migration.
const (
	ConstraintBedTaken       = "beds_used_bed_key"
	ConstraintPatientInBed   = "beds_used_patient_key"
	ConstraintOpenStayExists = "hospitalizations_open_patient_key"
)

type ledgerPG struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) Ledger {
	return &ledgerPG{pool: pool}
}

func (r *ledgerPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *ledgerPG) IsBedFree(ctx context.Context, bedID uuid.UUID) (bool, error) {
	var used bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM beds_used WHERE bed_id = $1)`, bedID).Scan(&used)
	return !used, err
}

func (r *ledgerPG) IsPatientOccupying(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var used bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM beds_used WHERE patient_id = $1)`, patientID).Scan(&used)
	return used, err
}

func (r *ledgerPG) Occupy(ctx context.Context, bedID, patientID, doctorID uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO beds_used (id, bed_id, patient_id, doctor_id) VALUES ($1, $2, $3, $4)`,
		id, bedID, patientID, doctorID)
	if uv := db.AsUniqueViolation(err); uv != nil {
		return uuid.Nil, uv
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert occupancy: %w", err)
	}
	return id, nil
}

func (r *ledgerPG) Vacate(ctx context.Context, patientID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM beds_used WHERE patient_id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("delete occupancy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *ledgerPG) Current(ctx context.Context) ([]*OccupancyView, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT b.room, p.num_document, d.num_document, h.entry_date
		FROM beds_used u
		JOIN beds b ON b.id = u.bed_id
		JOIN user_roles p ON p.id = u.patient_id
		JOIN user_roles d ON d.id = u.doctor_id
		JOIN hospitalizations h ON h.patient_id = u.patient_id AND h.discharge_date IS NULL
		ORDER BY b.room`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OccupancyView
	for rows.Next() {
		var v OccupancyView
		var entry time.Time
		if err := rows.Scan(&v.Room, &v.PatientDocument, &v.DoctorDocument, &entry); err != nil {
			return nil, err
		}
		v.EntryDate = date.New(entry)
		items = append(items, &v)
	}
	return items, rows.Err()
}

type historyPG struct {
	pool *pgxpool.Pool
}

func NewHistory(pool *pgxpool.Pool) History {
	return &historyPG{pool: pool}
}

func (r *historyPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *historyPG) OpenStay(ctx context.Context, patientID, doctorID uuid.UUID, entryDate time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO hospitalizations (id, patient_id, doctor_id, entry_date) VALUES ($1, $2, $3, $4)`,
		id, patientID, doctorID, date.Of(entryDate))
	if uv := db.AsUniqueViolation(err); uv != nil {
		return uuid.Nil, uv
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert hospitalization: %w", err)
	}
	return id, nil
}

func (r *historyPG) FindOpenStay(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	var rec Record
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, entry_date, discharge_date
		FROM hospitalizations
		WHERE patient_id = $1 AND discharge_date IS NULL`, patientID).Scan(
		&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.EntryDate, &rec.DischargeDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *historyPG) CloseStay(ctx context.Context, recordID uuid.UUID, dischargeDate time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE hospitalizations SET discharge_date = $2
		WHERE id = $1 AND discharge_date IS NULL`, recordID, date.Of(dischargeDate))
	if err != nil {
		return fmt.Errorf("close hospitalization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStayClosed
	}
	return nil
}

const viewQuery = `
	SELECT h.id, p.num_document, d.num_document, h.entry_date, h.discharge_date
	FROM hospitalizations h
	JOIN user_roles p ON p.id = h.patient_id
	JOIN user_roles d ON d.id = h.doctor_id`

func (r *historyPG) List(ctx context.Context, limit, offset int) ([]*RecordView, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM hospitalizations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, viewQuery+`
		ORDER BY h.entry_date DESC, h.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanViews(rows)
	return items, total, err
}

func (r *historyPG) ListByPatient(ctx context.Context, patientDocument string) ([]*RecordView, error) {
	rows, err := r.conn(ctx).Query(ctx, viewQuery+`
		WHERE p.num_document = $1
		ORDER BY h.entry_date DESC, h.created_at DESC`, patientDocument)
	if err != nil {
		return nil, err
	}
	return scanViews(rows)
}

func scanViews(rows pgx.Rows) ([]*RecordView, error) {
	defer rows.Close()
	var items []*RecordView
	for rows.Next() {
		var v RecordView
		var entry time.Time
		var discharge *time.Time
		if err := rows.Scan(&v.ID, &v.PatientDocument, &v.DoctorDocument, &entry, &discharge); err != nil {
			return nil, err
		}
		v.EntryDate = date.New(entry)
		v.DischargeDate = date.Ptr(discharge)
		items = append(items, &v)
	}
	return items, rows.Err()
}
