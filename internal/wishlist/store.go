// Package wishlist owns the local wishlist. Toggling applies optimistically
// with a provisional entry id; unlike the cart, a failed sync rolls the local
// state back and surfaces a notice, because a silently wrong wishlist heart
// misleads the next toggle.
package wishlist

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/gateway"
	"bloomfield.org/bloom-web/internal/syncq"
)

// Entry is one wishlist line. Provisional entries carry a locally generated
// id until the backend assigns the real one.
type Entry struct {
	EntryID     string                  `json:"entryId"`
	ProductID   string                  `json:"productId"`
	Product     gateway.ProductSnapshot `json:"product"`
	Provisional bool                    `json:"provisional,omitempty"`
}

// Gateway is the backend subset the store reconciles against.
type Gateway interface {
	FetchWishlist(ctx context.Context, userID string) ([]gateway.WishlistEntry, error)
	AddWishlistEntry(ctx context.Context, userID string, product gateway.ProductSnapshot) (gateway.WishlistEntry, error)
	DeleteWishlistEntry(ctx context.Context, userID, entryID string) error
}

// Notifier receives user-facing notices when a sync was rolled back.
type Notifier interface {
	Notify(message string)
}

// Store is the wishlist synchronization store for one browser session.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	loading bool
	lastErr error

	gw       Gateway
	queue    *syncq.Queue
	notifier Notifier
	logger   *zap.Logger
}

// NewStore constructs an empty wishlist store. notifier may be nil.
func NewStore(gw Gateway, notifier Notifier, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		gw:       gw,
		queue:    syncq.New(),
		notifier: notifier,
		logger:   logger,
	}
}

// Entries returns a copy of the current wishlist.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IsInWishlist reports whether the product has a wishlist entry.
func (s *Store) IsInWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexByProduct(productID) >= 0
}

// Get looks up an entry by entry id or product id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexByAny(id); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Loading reports whether a Fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error of the last Fetch, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Toggle adds the product when absent and removes it when present. The local
// flip is immediate; with a signed-in user the backend call runs behind any
// sync already in flight for the product, and a failed add is rolled back.
func (s *Store) Toggle(ctx context.Context, product gateway.ProductSnapshot, userID string) {
	s.mu.Lock()
	if i := s.indexByProduct(product.ID); i >= 0 {
		entryID := s.entries[i].EntryID
		s.mu.Unlock()
		s.Remove(ctx, entryID, userID)
		return
	}

	entry := Entry{
		EntryID:     ulid.Make().String(),
		ProductID:   product.ID,
		Product:     product,
		Provisional: userID != "",
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	if userID == "" {
		return
	}

	provisionalID := entry.EntryID
	ctx = context.WithoutCancel(ctx)
	s.queue.Enqueue(product.ID, func() {
		created, err := s.gw.AddWishlistEntry(ctx, userID, product)
		if err != nil {
			s.logger.Warn("wishlist add sync failed, rolling back",
				zap.String("product_id", product.ID),
				zap.Error(err),
			)
			s.mu.Lock()
			if i := s.indexByEntry(provisionalID); i >= 0 {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
			}
			s.mu.Unlock()
			s.notify("Could not save to your wishlist. Please try again.")
			return
		}

		s.mu.Lock()
		i := s.indexByEntry(provisionalID)
		if i < 0 {
			s.mu.Unlock()
			// Toggled off again while the create was in flight. The local
			// remove saw only a provisional entry and scheduled no delete, so
			// the cleanup happens here, with the server id in hand.
			if created.EntryID != "" {
				if err := s.gw.DeleteWishlistEntry(ctx, userID, created.EntryID); err != nil {
					s.logger.Warn("wishlist orphan cleanup failed",
						zap.String("entry_id", created.EntryID),
						zap.Error(err),
					)
				}
			}
			return
		}
		defer s.mu.Unlock()
		if created.EntryID == "" {
			// Accepted, but the response carried no usable payload. Keep the
			// entry; the next full fetch reconciles the id.
			s.entries[i].Provisional = false
			return
		}
		s.entries[i].EntryID = created.EntryID
		s.entries[i].Provisional = false
		if created.Product.ID != "" {
			s.entries[i].Product = created.Product
		}
	})
}

// Remove drops the entry immediately and schedules the backend delete. A
// failed delete re-inserts the entry at its original position and surfaces a
// notice. Provisional entries and anonymous sessions stay local.
func (s *Store) Remove(ctx context.Context, id, userID string) {
	s.mu.Lock()
	i := s.indexByAny(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.entries[i]
	position := i
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.mu.Unlock()

	if userID == "" || removed.Provisional {
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.queue.Enqueue(removed.ProductID, func() {
		if err := s.gw.DeleteWishlistEntry(ctx, userID, removed.EntryID); err != nil {
			s.logger.Warn("wishlist remove sync failed, restoring entry",
				zap.String("entry_id", removed.EntryID),
				zap.Error(err),
			)
			s.mu.Lock()
			if s.indexByEntry(removed.EntryID) < 0 {
				at := position
				if at > len(s.entries) {
					at = len(s.entries)
				}
				s.entries = append(s.entries[:at], append([]Entry{removed}, s.entries[at:]...)...)
			}
			s.mu.Unlock()
			s.notify("Could not remove from your wishlist. Please try again.")
		}
	})
}

// Fetch replaces the local wishlist with the backend's view. It blocks, sets
// the loading flag for the duration and records the outcome in Err.
func (s *Store) Fetch(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	entries, err := s.gw.FetchWishlist(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		return err
	}
	s.setLocked(entries)
	return nil
}

// Set hydrates the wishlist from an embedded payload, replacing local state.
func (s *Store) Set(entries []gateway.WishlistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(entries)
}

func (s *Store) setLocked(entries []gateway.WishlistEntry) {
	s.entries = make([]Entry, 0, len(entries))
	for _, e := range entries {
		s.entries = append(s.entries, Entry{
			EntryID:   e.EntryID,
			ProductID: e.ProductID,
			Product:   e.Product,
		})
	}
}

// Clear empties the wishlist locally without touching the backend.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.lastErr = nil
	s.loading = false
}

// Flush blocks until all scheduled reconciliation has completed.
func (s *Store) Flush() {
	s.queue.Wait()
}

func (s *Store) notify(message string) {
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}

// indexByProduct returns the position of the product's entry. Callers hold mu.
func (s *Store) indexByProduct(productID string) int {
	for i, e := range s.entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}

// indexByEntry returns the position of the entry with the id. Callers hold mu.
func (s *Store) indexByEntry(entryID string) int {
	for i, e := range s.entries {
		if e.EntryID == entryID {
			return i
		}
	}
	return -1
}

// indexByAny matches the entry id first, then the product id, tolerating
// callers that only know one of the two. Callers hold mu.
func (s *Store) indexByAny(id string) int {
	if i := s.indexByEntry(id); i >= 0 {
		return i
	}
	return s.indexByProduct(id)
}
