package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("identity not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRoleExists      = errors.New("user already holds this role")
	ErrEmailInUse      = errors.New("email already registered")
	ErrInvalidRole     = errors.New("invalid role")
	ErrPatientInBed    = errors.New("patient currently occupies a bed")
	ErrSelfResponsible = errors.New("patient cannot be their own responsible")
	ErrNothingToUpdate = errors.New("no fields to update")
	ErrDocumentMissing = errors.New("num_document is required")
)

// RowLock is the row lock GetRoleLocked holds until the transaction ends.
type RowLock int

const (
	LockShare RowLock = iota + 1
	LockUpdate
)

type Repository interface {
	CreateUser(ctx context.Context, u *UserInfo) error
	GetUser(ctx context.Context, numDocument string) (*UserInfo, error)
	UpdateUser(ctx context.Context, u *UserInfo) error

	AddRole(ctx context.Context, ident *Identity) error
	GetRole(ctx context.Context, numDocument string, role Role) (*Identity, error)
	GetRoleLocked(ctx context.Context, numDocument string, role Role, lock RowLock) (*Identity, error)
	ListRoles(ctx context.Context, numDocument string) ([]*Identity, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, since *time.Time) error
	List(ctx context.Context, role Role, activeOnly bool, limit, offset int) ([]*Member, int, error)

	GetResponsible(ctx context.Context, patientID uuid.UUID) (*Responsible, error)
	SetResponsible(ctx context.Context, r *Responsible) error
}
