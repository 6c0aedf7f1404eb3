package procurement

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps orders in process memory.
type MemoryRepository struct {
	mu     sync.Mutex
	orders map[int64]Order
	nextID int64
	lineID int64
}

// NewMemoryRepository builds an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[int64]Order)}
}

type memoryTx struct {
	orders map[int64]Order
	nextID *int64
	lineID *int64
}

// WithTx applies fn to a staged copy and publishes it when fn succeeds.
func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := make(map[int64]Order, len(r.orders))
	for id, o := range r.orders {
		staged[id] = cloneOrder(o)
	}
	nextID, lineID := r.nextID, r.lineID
	if err := fn(ctx, &memoryTx{orders: staged, nextID: &nextID, lineID: &lineID}); err != nil {
		return err
	}
	r.orders, r.nextID, r.lineID = staged, nextID, lineID
	return nil
}

func (r *MemoryRepository) ListOrders(ctx context.Context, storeID int64, status OrderStatus, limit int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := []Order{}
	for _, o := range r.orders {
		if o.StoreID != storeID || (status != "" && o.Status != status) {
			continue
		}
		o.Lines = nil
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) GetOrder(ctx context.Context, storeID, orderID int64) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.StoreID != storeID {
		return Order{}, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (t *memoryTx) CreateOrder(ctx context.Context, order Order) (int64, error) {
	*t.nextID++
	order.ID = *t.nextID
	order.Lines = nil
	t.orders[order.ID] = order
	return order.ID, nil
}

func (t *memoryTx) InsertOrderLine(ctx context.Context, line OrderLine) (int64, error) {
	o, ok := t.orders[line.OrderID]
	if !ok {
		return 0, ErrOrderNotFound
	}
	*t.lineID++
	line.ID = *t.lineID
	o.Lines = append(o.Lines, line)
	t.orders[o.ID] = o
	return line.ID, nil
}

func (t *memoryTx) GetOrderForUpdate(ctx context.Context, storeID, orderID int64) (Order, error) {
	o, ok := t.orders[orderID]
	if !ok || o.StoreID != storeID {
		return Order{}, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (t *memoryTx) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, at time.Time) error {
	o, ok := t.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	t.orders[orderID] = o
	return nil
}

func cloneOrder(o Order) Order {
	o.Lines = append([]OrderLine(nil), o.Lines...)
	return o
}
