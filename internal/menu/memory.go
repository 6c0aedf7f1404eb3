package menu

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps menus in process memory.
type MemoryRepository struct {
	mu     sync.Mutex
	menus  map[int64]Menu
	nextID int64
}

// NewMemoryRepository builds an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{menus: make(map[int64]Menu)}
}

type memoryTx struct {
	menus  map[int64]Menu
	nextID *int64
}

// WithTx applies fn to a staged copy and publishes it when fn succeeds.
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := make(map[int64]Menu, len(r.menus))
	for id, m := range r.menus {
		staged[id] = cloneMenu(m)
	}
	nextID := r.nextID
	if err := fn(ctx, &memoryTx{menus: staged, nextID: &nextID}); err != nil {
		return err
	}
	r.menus, r.nextID = staged, nextID
	return nil
}

func (r *MemoryRepository) ListMenus(ctx context.Context, storeID int64) ([]Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Menu{}
	for _, m := range r.menus {
		if m.StoreID == storeID {
			out = append(out, cloneMenu(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) GetMenu(ctx context.Context, storeID, menuID int64) (Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.menus[menuID]
	if !ok || m.StoreID != storeID {
		return Menu{}, ErrMenuNotFound
	}
	return cloneMenu(m), nil
}

func (tx *memoryTx) CreateMenu(ctx context.Context, m Menu) (Menu, error) {
	*tx.nextID++
	m.ID = *tx.nextID
	tx.menus[m.ID] = cloneMenu(m)
	return m, nil
}

func (tx *memoryTx) UpdateMenu(ctx context.Context, m Menu) error {
	existing, ok := tx.menus[m.ID]
	if !ok || existing.StoreID != m.StoreID {
		return ErrMenuNotFound
	}
	m.Lines = existing.Lines
	tx.menus[m.ID] = m
	return nil
}

func (tx *memoryTx) GetMenuForUpdate(ctx context.Context, storeID, menuID int64) (Menu, error) {
	m, ok := tx.menus[menuID]
	if !ok || m.StoreID != storeID {
		return Menu{}, ErrMenuNotFound
	}
	return cloneMenu(m), nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, line RecipeLine) error {
	m, ok := tx.menus[line.MenuID]
	if !ok {
		return ErrMenuNotFound
	}
	m.Lines = append(m.Lines, line)
	tx.menus[m.ID] = m
	return nil
}

func (tx *memoryTx) DeleteLine(ctx context.Context, menuID, productID int64) error {
	m, ok := tx.menus[menuID]
	if !ok {
		return ErrMenuNotFound
	}
	for i, line := range m.Lines {
		if line.ProductID == productID {
			m.Lines = append(m.Lines[:i], m.Lines[i+1:]...)
			tx.menus[menuID] = m
			return nil
		}
	}
	return ErrLineNotFound
}

func cloneMenu(m Menu) Menu {
	m.Lines = append([]RecipeLine(nil), m.Lines...)
	return m
}
