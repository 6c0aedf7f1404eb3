package suppliers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-store/internal/masterdata/shared"
)

type memoryRepository struct {
	mu        sync.RWMutex
	suppliers map[int64]Supplier
	nextID    int64
}

// NewMemoryRepository returns a Repository kept in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{suppliers: make(map[int64]Supplier)}
}

func (r *memoryRepository) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(filters.Search)
	out := []Supplier{}
	for _, s := range r.suppliers {
		if needle != "" && !strings.Contains(strings.ToLower(s.Name), needle) && !strings.Contains(strings.ToLower(s.Code), needle) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		var less bool
		switch filters.SortBy {
		case "code":
			less = out[i].Code < out[j].Code
		case "created_at":
			less = out[i].CreatedAt.Before(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID)
		default:
			less = out[i].Name < out[j].Name
		}
		if filters.SortDir == shared.SortDesc {
			return !less
		}
		return less
	})
	total := len(out)
	if filters.Limit > 0 {
		start := min(filters.Offset(), total)
		end := min(start+filters.Limit, total)
		out = out[start:end]
	}
	return out, total, nil
}

func (r *memoryRepository) Get(ctx context.Context, id int64) (Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codeTaken(0, supplier.Code) {
		return Supplier{}, shared.ErrDuplicate
	}
	r.nextID++
	now := time.Now().UTC()
	supplier.ID = r.nextID
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	r.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (r *memoryRepository) Update(ctx context.Context, id int64, supplier Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.suppliers[id]
	if !ok {
		return shared.ErrNotFound
	}
	if r.codeTaken(id, supplier.Code) {
		return shared.ErrDuplicate
	}
	supplier.ID = id
	supplier.CreatedAt = existing.CreatedAt
	supplier.UpdatedAt = time.Now().UTC()
	r.suppliers[id] = supplier
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.suppliers, id)
	return nil
}

func (r *memoryRepository) codeTaken(id int64, code string) bool {
	for otherID, s := range r.suppliers {
		if otherID != id && strings.EqualFold(s.Code, code) {
			return true
		}
	}
	return false
}
