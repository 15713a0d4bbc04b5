package speciality

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/db"
)

// IdentityResolver looks up (document, role) identities.
type IdentityResolver interface {
	Resolve(ctx context.Context, numDocument string, role identity.Role, activeOnly bool) (*identity.Identity, error)
}

type Service struct {
	repo       Repository
	identities IdentityResolver
	tx         db.TxRunner
}

func NewService(repo Repository, identities IdentityResolver, tx db.TxRunner) *Service {
	return &Service{repo: repo, identities: identities, tx: tx}
}

func (s *Service) List(ctx context.Context) ([]*Speciality, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, name, description string) (*Speciality, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	sp := &Speciality{Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// AssignToDoctor links an active doctor to the named speciality, creating the
// speciality first when it is unknown and a description is supplied.
func (s *Service) AssignToDoctor(ctx context.Context, doctorDocument string, req AssignRequest) (*Speciality, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	var sp *Speciality
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		doctor, err := s.doctor(ctx, doctorDocument, true)
		if err != nil {
			return err
		}
		sp, err = s.repo.GetByName(ctx, name)
		if errors.Is(err, ErrSpecialityNotFound) {
			if req.Description == nil || strings.TrimSpace(*req.Description) == "" {
				return ErrDescriptionMissing
			}
			sp = &Speciality{Name: name, Description: strings.TrimSpace(*req.Description)}
			err = s.repo.Create(ctx, sp)
		}
		if err != nil {
			return err
		}
		return s.repo.Link(ctx, doctor.ID, sp.ID)
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Service) RemoveFromDoctor(ctx context.Context, doctorDocument, name string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		doctor, err := s.doctor(ctx, doctorDocument, false)
		if err != nil {
			return err
		}
		sp, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
		if err != nil {
			return err
		}
		return s.repo.Unlink(ctx, doctor.ID, sp.ID)
	})
}

func (s *Service) ListForDoctor(ctx context.Context, doctorDocument string) ([]*Speciality, error) {
	doctor, err := s.doctor(ctx, doctorDocument, false)
	if err != nil {
		return nil, err
	}
	return s.repo.ListForDoctor(ctx, doctor.ID)
}

// DoctorsWith lists the doctors holding the named speciality.
func (s *Service) DoctorsWith(ctx context.Context, name string, activeOnly bool) ([]*DoctorRef, error) {
	sp, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return s.repo.DoctorsWith(ctx, sp.ID, activeOnly)
}

func (s *Service) doctor(ctx context.Context, doc string, activeOnly bool) (*identity.Identity, error) {
	d, err := s.identities.Resolve(ctx, doc, identity.RoleDoctor, activeOnly)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}
	return d, nil
}
