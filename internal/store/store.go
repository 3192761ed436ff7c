// Package store holds the in-memory RAB item collection.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/theirongolddev/rab/internal/model"
)

// Store is an ordered, in-memory collection of line items.
// Insertion order is display order. Every operation is atomic.
type Store struct {
	mu      sync.RWMutex
	items   []model.LineItem
	index   map[string]int
	seen    map[string]struct{}
	version uint64
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc overrides the id generator. Intended for tests.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		index: make(map[string]int),
		seen:  make(map[string]struct{}),
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add assigns a fresh id to the draft, appends it, and returns the stored item.
func (s *Store) Add(d model.Draft) model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := d.WithID(s.nextID())
	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
	s.version++
	return item
}

// Remove deletes the item with the given id. Absent ids are a no-op.
// It reports whether anything was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	s.version++
	return true
}

// ReplaceAll discards the current contents and stores the drafts in order,
// each with a fresh id. It returns the new contents.
func (s *Store) ReplaceAll(drafts []model.Draft) []model.LineItem {
	items := make([]model.LineItem, 0, len(drafts))

	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]int, len(drafts))
	for i, d := range drafts {
		item := d.WithID(s.nextID())
		index[item.ID] = i
		items = append(items, item)
	}
	s.items = items
	s.index = index
	s.version++

	out := make([]model.LineItem, len(items))
	copy(out, items)
	return out
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []model.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (model.LineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return model.LineItem{}, false
	}
	return s.items[i], true
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version increases on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// nextID returns an id never handed out by this store. Caller holds mu.
func (s *Store) nextID() string {
	for {
		id := s.newID()
		if _, dup := s.seen[id]; dup || id == "" {
			continue
		}
		s.seen[id] = struct{}{}
		return id
	}
}
