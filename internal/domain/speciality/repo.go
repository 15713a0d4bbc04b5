package speciality

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSpecialityNotFound = errors.New("speciality not found")
	ErrSpecialityExists   = errors.New("speciality already exists")
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrAlreadyAssigned    = errors.New("doctor already has this speciality")
	ErrNotAssigned        = errors.New("doctor does not have this speciality")
	ErrNameRequired       = errors.New("speciality name is required")
	ErrDescriptionMissing = errors.New("speciality does not exist and no description was given")
)

type Repository interface {
	List(ctx context.Context) ([]*Speciality, error)
	GetByName(ctx context.Context, name string) (*Speciality, error)
	Create(ctx context.Context, s *Speciality) error
	Link(ctx context.Context, doctorID, specialityID uuid.UUID) error
	Unlink(ctx context.Context, doctorID, specialityID uuid.UUID) error
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Speciality, error)
	DoctorsWith(ctx context.Context, specialityID uuid.UUID, activeOnly bool) ([]*DoctorRef, error)
}
