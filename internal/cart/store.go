package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/2300031420/Tastoria5/internal/logger"
	"github.com/2300031420/Tastoria5/internal/storage"

	"github.com/google/uuid"
)

var (
	// ErrNotLoaded means no identity's cart is loaded; mutations need a
	// signed-in user.
	ErrNotLoaded = errors.New("cart: no cart loaded")

	// ErrMinQuantity means the mutation would drop a line below one.
	// The cart is left unchanged; removal is a separate operation.
	ErrMinQuantity = errors.New("cart: quantity cannot drop below 1")

	// ErrNegativePrice rejects metadata carrying a negative unit price.
	ErrNegativePrice = errors.New("cart: unit price cannot be negative")
)

// Line is one cart entry. Prices are minor units (paise), so totals
// stay exact.
type Line struct {
	ItemID      string `json:"id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

// Metadata is the display snapshot captured when a line is first
// inserted.
type Metadata struct {
	Name        string
	UnitPrice   int64
	ImageURL    string
	Description string
}

// Store holds the signed-in identity's cart: an ordered list of lines,
// persisted in full after every successful mutation under
// "cart_<identityId>". In-memory state is the source of truth for the
// session; persistence is best-effort durability.
type Store struct {
	kv storage.Store

	mu      sync.Mutex
	ownerID string
	lines   []Line
	subs    map[uuid.UUID]func()
}

func NewStore(kv storage.Store) *Store {
	return &Store{
		kv:   kv,
		subs: make(map[uuid.UUID]func()),
	}
}

func cartKey(identityID string) string {
	return "cart_" + identityID
}

// Load reads the persisted cart for the identity. Idempotent for the
// already-loaded id; a different id discards in-memory state (leaving
// the previous identity's persisted cart alone) and loads the new one.
// A missing or unreadable persisted cart starts empty.
func (s *Store) Load(ctx context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identityID == "" {
		return fmt.Errorf("cart: identity id is required")
	}
	if s.ownerID == identityID {
		return nil
	}

	s.ownerID = identityID
	s.lines = nil

	raw, err := s.kv.Get(ctx, cartKey(identityID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cart: failed to load persisted cart: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		logger.Warn("discarding unreadable persisted cart", map[string]any{
			"identity_id": identityID,
			"error":       err.Error(),
		})
		return nil
	}

	s.lines = lines
	return nil
}

// Unload drops the in-memory cart on sign-out. The persisted cart
// survives and is reloaded on the next sign-in with the same identity.
func (s *Store) Unload() {
	s.mu.Lock()
	s.ownerID = ""
	s.lines = nil
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// AddOrUpdate adds delta to the line's quantity, inserting a new line
// from meta when the item is absent and delta is positive. A result
// below one is rejected and the cart stays unchanged.
func (s *Store) AddOrUpdate(ctx context.Context, itemID string, delta int, meta Metadata) error {
	s.mu.Lock()

	if s.ownerID == "" {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	if meta.UnitPrice < 0 {
		s.mu.Unlock()
		return ErrNegativePrice
	}

	idx := s.indexOf(itemID)
	if idx < 0 {
		if delta < 1 {
			s.mu.Unlock()
			return ErrMinQuantity
		}
		s.lines = append(s.lines, Line{
			ItemID:      itemID,
			Name:        meta.Name,
			UnitPrice:   meta.UnitPrice,
			Quantity:    delta,
			ImageURL:    meta.ImageURL,
			Description: meta.Description,
		})
	} else {
		next := s.lines[idx].Quantity + delta
		if next < 1 {
			s.mu.Unlock()
			return ErrMinQuantity
		}
		s.lines[idx].Quantity = next
	}

	return s.finishMutation(ctx)
}

// Remove deletes the line when present; a missing item is a no-op, not
// an error.
func (s *Store) Remove(ctx context.Context, itemID string) error {
	s.mu.Lock()

	if s.ownerID == "" {
		s.mu.Unlock()
		return ErrNotLoaded
	}

	idx := s.indexOf(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	return s.finishMutation(ctx)
}

// Clear empties the cart and persists the empty state. Used after
// checkout.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()

	if s.ownerID == "" {
		s.mu.Unlock()
		return ErrNotLoaded
	}

	s.lines = nil
	return s.finishMutation(ctx)
}

// Total is the sum of unit price times quantity over all lines, in
// minor units.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, l := range s.lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

// Count is the quantity sum across lines, shown on the cart badge.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a snapshot of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Subscribe registers fn to run synchronously after every cart change.
func (s *Store) Subscribe(fn func()) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.subs[id] = fn
	return id
}

func (s *Store) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// finishMutation persists and notifies. Called with s.mu held; unlocks
// it. A persistence failure is reported but the in-memory mutation
// stands, and subscribers are still told.
func (s *Store) finishMutation(ctx context.Context) error {
	key := cartKey(s.ownerID)
	raw, err := json.Marshal(s.lines)
	subs := s.snapshotSubs()
	s.mu.Unlock()

	if err == nil {
		err = s.kv.Set(ctx, key, raw)
	}

	for _, fn := range subs {
		fn()
	}

	if err != nil {
		return fmt.Errorf("cart: failed to persist cart: %w", err)
	}
	return nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(itemID string) int {
	for i, l := range s.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// snapshotSubs must be called with s.mu held.
func (s *Store) snapshotSubs() []func() {
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}
