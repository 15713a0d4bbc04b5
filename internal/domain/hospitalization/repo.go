package hospitalization

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEntryNotFound is returned by Vacate when the patient holds no bed.
	ErrEntryNotFound = errors.New("occupancy entry not found")
	// ErrStayClosed is returned by CloseStay when the stay was closed already.
	ErrStayClosed = errors.New("hospitalization already closed")
)

// Ledger is the one-to-one mapping of occupied beds to (patient, doctor)
// pairs. Occupy reports uniqueness races as *db.UniqueViolation.
type Ledger interface {
	IsBedFree(ctx context.Context, bedID uuid.UUID) (bool, error)
	IsPatientOccupying(ctx context.Context, patientID uuid.UUID) (bool, error)
	Occupy(ctx context.Context, bedID, patientID, doctorID uuid.UUID) (uuid.UUID, error)
	Vacate(ctx context.Context, patientID uuid.UUID) error
	Current(ctx context.Context) ([]*OccupancyView, error)
}

// History is the log of stays. Records are never deleted.
type History interface {
	OpenStay(ctx context.Context, patientID, doctorID uuid.UUID, entryDate time.Time) (uuid.UUID, error)
	// FindOpenStay returns nil, nil when the patient has no open stay.
	FindOpenStay(ctx context.Context, patientID uuid.UUID) (*Record, error)
	CloseStay(ctx context.Context, recordID uuid.UUID, dischargeDate time.Time) error
	List(ctx context.Context, limit, offset int) ([]*RecordView, int, error)
	ListByPatient(ctx context.Context, patientDocument string) ([]*RecordView, error)
}
