package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/pkg/date"
)

// IdentityResolver looks up (document, role) identities.
type IdentityResolver interface {
	Resolve(ctx context.Context, numDocument string, role identity.Role, activeOnly bool) (*identity.Identity, error)
}

type Service struct {
	repo       Repository
	identities IdentityResolver
	now        func() time.Time
}

func NewService(repo Repository, identities IdentityResolver) *Service {
	return &Service{repo: repo, identities: identities, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Record stores a consultation between an active patient and an active
// doctor who are not the same person.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*View, error) {
	area := strings.TrimSpace(req.Area)
	if area == "" {
		return nil, ErrAreaRequired
	}

	patient, err := s.identities.Resolve(ctx, req.PatientDocument, identity.RolePatient, true)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}
	doctor, err := s.identities.Resolve(ctx, req.DoctorDocument, identity.RoleDoctor, true)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}
	if req.PatientDocument == req.DoctorDocument {
		return nil, ErrSameIdentity
	}

	c := &Consultation{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Area:      area,
		Day:       req.Day.OrToday(s.now),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("record consultation: %w", err)
	}
	return &View{
		ID:              c.ID,
		PatientDocument: req.PatientDocument,
		DoctorDocument:  req.DoctorDocument,
		Area:            c.Area,
		Day:             date.New(c.Day),
	}, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*View, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientDocument string) ([]*View, error) {
	return s.repo.ListByPatient(ctx, patientDocument)
}
