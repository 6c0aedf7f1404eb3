package procurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "procurement:cart:"

// CartStore keeps one cart per store between requests. Save is optimistic: a
// cart with Version zero replaces whatever is stored, any other cart must
// carry the stored version or Save fails with ErrCartConflict. A successful
// Save assigns the next version to the cart.
type CartStore interface {
	Load(ctx context.Context, storeID int64) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, storeID int64) error
}

// RedisCartStore stores carts as JSON with a sliding TTL.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore builds a RedisCartStore.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func cartKey(storeID int64) string {
	return cartKeyPrefix + strconv.FormatInt(storeID, 10)
}

// cartVersionKey holds the last version issued for the store. It has no TTL
// so versions keep increasing across expiry and Delete.
func cartVersionKey(storeID int64) string {
	return cartKey(storeID) + ":version"
}

// Load returns the store's cart or ErrCartNotFound.
func (s *RedisCartStore) Load(ctx context.Context, storeID int64) (*Cart, error) {
	payload, err := s.client.Get(ctx, cartKey(storeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("procurement: load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		return nil, fmt.Errorf("procurement: decode cart: %w", err)
	}
	return &cart, nil
}

// Save writes the cart and refreshes its TTL. The version check and the
// write run in one WATCH/MULTI transaction.
func (s *RedisCartStore) Save(ctx context.Context, cart *Cart) error {
	key, versionKey := cartKey(cart.StoreID), cartVersionKey(cart.StoreID)
	var next int64
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		if cart.Version != 0 {
			stored, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrCartConflict
			}
			if err != nil {
				return err
			}
			var head struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(stored, &head); err != nil {
				return fmt.Errorf("procurement: decode cart: %w", err)
			}
			if head.Version != cart.Version {
				return ErrCartConflict
			}
		}
		last, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next = last + 1
		staged := *cart
		staged.Version = next
		raw, err := json.Marshal(&staged)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			pipe.Set(ctx, versionKey, next, 0)
			return nil
		})
		return err
	}, key, versionKey)
	switch {
	case err == nil:
		cart.Version = next
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrCartConflict
	case errors.Is(err, ErrCartConflict):
		return err
	default:
		return fmt.Errorf("procurement: save cart: %w", err)
	}
}

// Delete removes the store's cart.
func (s *RedisCartStore) Delete(ctx context.Context, storeID int64) error {
	return s.client.Del(ctx, cartKey(storeID)).Err()
}

// MemoryCartStore keeps carts in process memory. Entries are stored as JSON
// so callers never share a cart value.
type MemoryCartStore struct {
	mu       sync.Mutex
	carts    map[int64][]byte
	versions map[int64]int64
}

// NewMemoryCartStore builds an empty MemoryCartStore.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[int64][]byte), versions: make(map[int64]int64)}
}

func (s *MemoryCartStore) Load(ctx context.Context, storeID int64) (*Cart, error) {
	s.mu.Lock()
	raw, ok := s.carts[storeID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrCartNotFound
	}
	var cart Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *MemoryCartStore) Save(ctx context.Context, cart *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.Version != 0 {
		if _, ok := s.carts[cart.StoreID]; !ok || s.versions[cart.StoreID] != cart.Version {
			return ErrCartConflict
		}
	}
	staged := *cart
	staged.Version = s.versions[cart.StoreID] + 1
	raw, err := json.Marshal(&staged)
	if err != nil {
		return err
	}
	s.carts[cart.StoreID] = raw
	s.versions[cart.StoreID] = staged.Version
	cart.Version = staged.Version
	return nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, storeID int64) error {
	s.mu.Lock()
	delete(s.carts, storeID)
	s.mu.Unlock()
	return nil
}
