// Package cart owns the local cart list. Mutations apply optimistically so the
// UI never waits on the network; reconciliation with the backend runs
// asynchronously, serialized per product. Sync failures are logged and the
// optimistic state is kept; the cart intentionally never rolls back.
package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/gateway"
	"bloomfield.org/bloom-web/internal/syncq"
)

// Item is one cart line. EntryID stays empty until the first successful sync
// assigns the server identifier.
type Item struct {
	ProductID string `json:"productId"`
	EntryID   string `json:"entryId,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
}

// Gateway is the backend subset the store reconciles against.
type Gateway interface {
	CreateCartEntry(ctx context.Context, userID string, req gateway.CreateCartEntryRequest) (gateway.CartEntry, error)
	UpdateCartEntry(ctx context.Context, userID, cartID string, quantity int) (gateway.CartEntry, error)
	DeleteCartEntry(ctx context.Context, userID, cartID string) error
}

// Store is the cart synchronization store for one browser session.
type Store struct {
	mu     sync.Mutex
	items  []Item
	gw     Gateway
	queue  *syncq.Queue
	logger *zap.Logger
}

// NewStore constructs an empty cart store.
func NewStore(gw Gateway, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		gw:     gw,
		queue:  syncq.New(),
		logger: logger,
	}
}

// Items returns a copy of the current cart lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks up a line by product id.
func (s *Store) Get(productID string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(productID); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

// Subtotal is the sum of price*quantity across all lines, in minor units.
func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, it := range s.items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// AddItem merges the item into the cart: an existing line for the product
// gains the incoming quantity (default 1), otherwise a new line is appended.
// The local mutation is immediate; with a signed-in user a create or update
// call is scheduled behind any sync already in flight for the product.
func (s *Store) AddItem(ctx context.Context, item Item, userID string) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	if i := s.index(item.ProductID); i >= 0 {
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item)
	}
	s.mu.Unlock()

	s.scheduleSync(ctx, item.ProductID, userID, true)
}

// UpdateQuantity sets the line quantity, clamped to a minimum of 1. Quantities
// never drop a line; removal is always explicit.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int, userID string) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	i := s.index(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items[i].Quantity = quantity
	s.mu.Unlock()

	s.scheduleSync(ctx, productID, userID, false)
}

// RemoveItem drops the line immediately and schedules the backend delete when
// the line had already been assigned a server id.
func (s *Store) RemoveItem(ctx context.Context, productID, userID string) {
	s.mu.Lock()
	i := s.index(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	entryID := s.items[i].EntryID
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.mu.Unlock()

	if userID == "" || entryID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.queue.Enqueue(productID, func() {
		if err := s.gw.DeleteCartEntry(ctx, userID, entryID); err != nil {
			s.logger.Warn("cart remove sync failed",
				zap.String("product_id", productID),
				zap.String("entry_id", entryID),
				zap.Error(err),
			)
		}
	})
}

// Clear empties the cart locally without touching the backend (logout path).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Flush blocks until all scheduled reconciliation has completed.
func (s *Store) Flush() {
	s.queue.Wait()
}

// scheduleSync enqueues one reconciliation task for the product. The task
// reads the line at execution time, so it carries the latest quantity and sees
// any server id patched in by an earlier create. Only add-style mutations may
// create backend entries; quantity changes on a never-synced line stay local.
func (s *Store) scheduleSync(ctx context.Context, productID, userID string, createIfNew bool) {
	if userID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.queue.Enqueue(productID, func() {
		s.mu.Lock()
		i := s.index(productID)
		if i < 0 {
			// Removed before this sync ran; the remove task follows.
			s.mu.Unlock()
			return
		}
		line := s.items[i]
		s.mu.Unlock()

		if line.EntryID != "" {
			if _, err := s.gw.UpdateCartEntry(ctx, userID, line.EntryID, line.Quantity); err != nil {
				s.logger.Warn("cart update sync failed",
					zap.String("product_id", productID),
					zap.String("entry_id", line.EntryID),
					zap.Error(err),
				)
			}
			return
		}
		if !createIfNew {
			return
		}

		created, err := s.gw.CreateCartEntry(ctx, userID, gateway.CreateCartEntryRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Name:      line.Name,
			Image:     line.Image,
		})
		if err != nil {
			s.logger.Warn("cart create sync failed",
				zap.String("product_id", productID),
				zap.Error(err),
			)
			return
		}
		s.mu.Lock()
		if i := s.index(productID); i >= 0 {
			s.items[i].EntryID = created.EntryID
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		// Removed while the create was in flight. The remove saw no server id
		// and scheduled no delete, so drop the entry the backend just made.
		if created.EntryID == "" {
			return
		}
		if err := s.gw.DeleteCartEntry(ctx, userID, created.EntryID); err != nil {
			s.logger.Warn("cart orphan cleanup failed",
				zap.String("product_id", productID),
				zap.String("entry_id", created.EntryID),
				zap.Error(err),
			)
		}
	})
}

// index returns the position of the product's line, or -1. Callers hold mu.
func (s *Store) index(productID string) int {
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
