package bed

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrBedNotFound = errors.New("bed not found")
	ErrRoomTaken   = errors.New("room already has a bed")
	ErrBedInUse    = errors.New("bed is occupied")
	ErrRoomMissing = errors.New("room is required")
)

type Repository interface {
	Create(ctx context.Context, b *Bed) error
	GetByRoom(ctx context.Context, room string) (*Bed, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IsOccupied(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*Bed, error)
	ListWithOccupancy(ctx context.Context) ([]*BedView, error)
	Counts(ctx context.Context) (Counts, error)
}
