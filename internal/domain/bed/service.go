package bed

import (
	"context"
	"strings"

	"github.com/hms/hms/internal/platform/db"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

// ResolveRoom returns the bed in room, or ErrBedNotFound.
func (s *Service) ResolveRoom(ctx context.Context, room string) (*Bed, error) {
	return s.repo.GetByRoom(ctx, strings.TrimSpace(room))
}

func (s *Service) Create(ctx context.Context, room string) (*Bed, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return nil, ErrRoomMissing
	}
	b := &Bed{Room: room}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes the bed in room. An occupied bed is kept and ErrBedInUse is
// returned; the foreign key from beds_used backs this up under concurrency.
func (s *Service) Delete(ctx context.Context, room string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByRoom(ctx, strings.TrimSpace(room))
		if err != nil {
			return err
		}
		used, err := s.repo.IsOccupied(ctx, b.ID)
		if err != nil {
			return err
		}
		if used {
			return ErrBedInUse
		}
		return s.repo.Delete(ctx, b.ID)
	})
}

func (s *Service) List(ctx context.Context) ([]*Bed, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListWithOccupancy(ctx context.Context) ([]*BedView, error) {
	return s.repo.ListWithOccupancy(ctx)
}

func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.Counts(ctx)
}
