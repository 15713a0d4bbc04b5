package consultation

import (
	"context"
	"errors"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrSameIdentity    = errors.New("patient and doctor are the same person")
	ErrAreaRequired    = errors.New("area is required")
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	List(ctx context.Context, limit, offset int) ([]*View, int, error)
	ListByPatient(ctx context.Context, patientDocument string) ([]*View, error)
}
