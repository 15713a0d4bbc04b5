package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/date"
)

// OccupancyChecker reports whether a patient identity currently holds a bed.
type OccupancyChecker interface {
	IsPatientOccupying(ctx context.Context, patientID uuid.UUID) (bool, error)
}

type Service struct {
	repo      Repository
	tx        db.TxRunner
	occupancy OccupancyChecker
	now       func() time.Time
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx, now: time.Now}
}

// SetOccupancyChecker attaches the bed ledger consulted before a patient is
// deactivated. Without one, deactivation is never refused.
func (s *Service) SetOccupancyChecker(oc OccupancyChecker) {
	s.occupancy = oc
}

// SetClock overrides the source of "today" used for inactive_since.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Resolve finds the identity for (numDocument, role). With activeOnly set an
// inactive identity is reported as ErrNotFound.
func (s *Service) Resolve(ctx context.Context, numDocument string, role Role, activeOnly bool) (*Identity, error) {
	ident, err := s.repo.GetRole(ctx, numDocument, role)
	if err != nil {
		return nil, err
	}
	if activeOnly && !ident.IsActive {
		return nil, ErrNotFound
	}
	return ident, nil
}

// ResolveLocked finds the active identity for (numDocument, role) and holds a
// share lock on its role row until the surrounding transaction ends. A
// concurrent Deactivate of the same role waits for that transaction.
func (s *Service) ResolveLocked(ctx context.Context, numDocument string, role Role) (*Identity, error) {
	ident, err := s.repo.GetRoleLocked(ctx, numDocument, role, LockShare)
	if err != nil {
		return nil, err
	}
	if !ident.IsActive {
		return nil, ErrNotFound
	}
	return ident, nil
}

// Register creates the person if needed and grants them role.
func (s *Service) Register(ctx context.Context, info *UserInfo, role Role) (*Identity, error) {
	info.NumDocument = strings.TrimSpace(info.NumDocument)
	if info.NumDocument == "" {
		return nil, ErrDocumentMissing
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	ident := &Identity{NumDocument: info.NumDocument, Role: role, IsActive: true}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetUser(ctx, info.NumDocument)
		switch {
		case errors.Is(err, ErrUserNotFound):
			if err := s.repo.CreateUser(ctx, info); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			*info = *existing
		}
		return s.repo.AddRole(ctx, ident)
	})
	if err != nil {
		return nil, err
	}
	return ident, nil
}

func (s *Service) GetUser(ctx context.Context, numDocument string) (*User, error) {
	info, err := s.repo.GetUser(ctx, numDocument)
	if err != nil {
		return nil, err
	}
	roles, err := s.repo.ListRoles(ctx, numDocument)
	if err != nil {
		return nil, err
	}
	return &User{UserInfo: *info, Roles: roles}, nil
}

func (s *Service) ListUsers(ctx context.Context, role Role, activeOnly bool, limit, offset int) ([]*Member, int, error) {
	if !role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	return s.repo.List(ctx, role, activeOnly, limit, offset)
}

// UpdateUser merges upd into the stored person. An update that changes
// nothing is not written.
func (s *Service) UpdateUser(ctx context.Context, numDocument string, upd UserUpdate) (*UserInfo, error) {
	if upd.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	var info *UserInfo
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		info, err = s.repo.GetUser(ctx, numDocument)
		if err != nil {
			return err
		}
		if !upd.Apply(info) {
			return nil
		}
		return s.repo.UpdateUser(ctx, info)
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Deactivate marks the role inactive from today. A patient lying in a bed
// cannot be deactivated. The role row is locked for update, so an admission
// that already resolved it commits before the bed check runs.
func (s *Service) Deactivate(ctx context.Context, numDocument string, role Role) (*Identity, error) {
	var ident *Identity
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ident, err = s.repo.GetRoleLocked(ctx, numDocument, role, LockUpdate)
		if err != nil {
			return err
		}
		if role == RolePatient && s.occupancy != nil {
			busy, err := s.occupancy.IsPatientOccupying(ctx, ident.ID)
			if err != nil {
				return err
			}
			if busy {
				return ErrPatientInBed
			}
		}
		today := date.Of(s.now())
		if err := s.repo.SetActive(ctx, ident.ID, false, &today); err != nil {
			return err
		}
		ident.IsActive = false
		d := date.New(today)
		ident.InactiveSince = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ident, nil
}

func (s *Service) Activate(ctx context.Context, numDocument string, role Role) (*Identity, error) {
	ident, err := s.repo.GetRole(ctx, numDocument, role)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, ident.ID, true, nil); err != nil {
		return nil, err
	}
	ident.IsActive = true
	ident.InactiveSince = nil
	return ident, nil
}

// SetResponsible records who answers for the patient. The responsible person
// must not be the patient.
func (s *Service) SetResponsible(ctx context.Context, numDocument string, resp *Responsible) error {
	ident, err := s.repo.GetRole(ctx, numDocument, RolePatient)
	if err != nil {
		return err
	}
	if resp.NumDocument != nil && strings.TrimSpace(*resp.NumDocument) == numDocument {
		return ErrSelfResponsible
	}
	resp.PatientID = ident.ID
	return s.repo.SetResponsible(ctx, resp)
}

func (s *Service) GetResponsible(ctx context.Context, numDocument string) (*Responsible, error) {
	ident, err := s.repo.GetRole(ctx, numDocument, RolePatient)
	if err != nil {
		return nil, err
	}
	return s.repo.GetResponsible(ctx, ident.ID)
}
