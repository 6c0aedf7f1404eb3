package suppliers

import (
	"context"

	"github.com/odyssey-erp/odyssey-store/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Lookup maps the requested supplier ids to suppliers. Unknown ids are
// skipped.
func (s *Service) Lookup(ctx context.Context, ids []int64) (map[int64]Supplier, error) {
	out := make(map[int64]Supplier, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := out[id]; ok {
			continue
		}
		sup, err := s.repo.Get(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		out[id] = sup
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Supplier, error) {
	in, err := s.validate(in)
	if err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, in.apply(Supplier{}))
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, shared.ErrInvalidID
	}
	in, err := s.validate(in)
	if err != nil {
		return Supplier{}, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Supplier{}, err
	}
	updated := in.apply(existing)
	if err := s.repo.Update(ctx, id, updated); err != nil {
		return Supplier{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}
