package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps inventory in process memory. It backs the demo
// storage driver and the package tests.
type MemoryRepository struct {
	mu        sync.Mutex
	items     map[int64]Item
	movements []Movement
	nextID    int64
}

// NewMemoryRepository builds an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[int64]Item)}
}

type memoryTx struct {
	repo *MemoryRepository
}

// WithTx runs fn while holding the repository lock. Changes are applied to a
// copy and only published when fn succeeds.
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := &MemoryRepository{
		items:     make(map[int64]Item, len(r.items)),
		movements: append([]Movement(nil), r.movements...),
		nextID:    r.nextID,
	}
	for k, v := range r.items {
		staged.items[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: staged}); err != nil {
		return err
	}
	r.items, r.movements, r.nextID = staged.items, staged.movements, staged.nextID
	return nil
}

func (r *MemoryRepository) ListItems(ctx context.Context, storeID int64) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []Item{}
	for _, item := range r.items {
		if item.StoreID == storeID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}

func (r *MemoryRepository) GetItem(ctx context.Context, storeID, productID int64) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[productID]
	if !ok || item.StoreID != storeID {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (r *MemoryRepository) ListStoreIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[int64]struct{}{}
	var ids []int64
	for _, item := range r.items {
		if _, ok := seen[item.StoreID]; ok {
			continue
		}
		seen[item.StoreID] = struct{}{}
		ids = append(ids, item.StoreID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryRepository) ListMovements(ctx context.Context, storeID, productID int64, limit int) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := []Movement{}
	for i := len(r.movements) - 1; i >= 0 && len(out) < limit; i-- {
		mv := r.movements[i]
		if mv.StoreID == storeID && mv.ProductID == productID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (tx *memoryTx) CreateItem(ctx context.Context, item Item) (Item, error) {
	if err := tx.checkSKU(item); err != nil {
		return Item{}, err
	}
	tx.repo.nextID++
	item.ProductID = tx.repo.nextID
	tx.repo.items[item.ProductID] = item
	return item, nil
}

func (tx *memoryTx) UpdateItem(ctx context.Context, item Item) error {
	existing, ok := tx.repo.items[item.ProductID]
	if !ok || existing.StoreID != item.StoreID {
		return ErrItemNotFound
	}
	if err := tx.checkSKU(item); err != nil {
		return err
	}
	tx.repo.items[item.ProductID] = item
	return nil
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, storeID, productID int64) (Item, error) {
	item, ok := tx.repo.items[productID]
	if !ok || item.StoreID != storeID {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (tx *memoryTx) SetStock(ctx context.Context, storeID, productID int64, stock int) error {
	item, ok := tx.repo.items[productID]
	if !ok || item.StoreID != storeID {
		return ErrItemNotFound
	}
	item.CurrentStock = stock
	item.UpdatedAt = time.Now().UTC()
	tx.repo.items[productID] = item
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, mv Movement) (int64, error) {
	mv.ID = int64(len(tx.repo.movements) + 1)
	tx.repo.movements = append(tx.repo.movements, mv)
	return mv.ID, nil
}

func (tx *memoryTx) checkSKU(item Item) error {
	if item.SKU == "" {
		return nil
	}
	for id, other := range tx.repo.items {
		if id != item.ProductID && other.StoreID == item.StoreID && other.SKU == item.SKU {
			return ErrDuplicateSKU
		}
	}
	return nil
}
