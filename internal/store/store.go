// Package store holds the live item collection and keeps it in sync with a
// storage adapter. Mutations validate first, apply in memory, then persist
// the whole collection; a failing persist never rolls a mutation back, the
// store keeps serving from memory and reports through LastSaveErr.
package store

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"trek/internal/model"
	"trek/internal/storage"
)

// Policies for opening on top of corrupt data.
const (
	CorruptFail  = "fail"
	CorruptReset = "reset"
)

// Options tune collection behavior. The zero value keeps every check off,
// appends new items and warns through the standard logger.
type Options struct {
	// Statuses lists the allowed status values; empty disables the check.
	// A create without a status gets the first listed one.
	Statuses []string
	// InsertFront prepends new items instead of appending them.
	InsertFront bool
	// OnCorrupt picks what Open does with unparseable stored data:
	// CorruptFail (default) refuses to open, CorruptReset starts empty.
	OnCorrupt string
	// Warnf receives degraded-mode messages. Defaults to log.Printf.
	Warnf func(format string, args ...any)
	// Now is the clock used for ids and creation stamps. Defaults to
	// time.Now.
	Now func() time.Time
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	adapter storage.Adapter
	items   []model.Item
	lastID  int64
	saveErr error

	statuses    []string
	insertFront bool
	warnf       func(string, ...any)
	now         func() time.Time
}

// Open loads the collection from the adapter. A corrupt payload fails or
// resets per opts.OnCorrupt; an unreachable backend starts the store empty
// in memory-only mode rather than refusing to run.
func Open(adapter storage.Adapter, opts Options) (*Store, error) {
	s := &Store{
		adapter:     adapter,
		statuses:    opts.Statuses,
		insertFront: opts.InsertFront,
		warnf:       opts.Warnf,
		now:         opts.Now,
	}
	if s.warnf == nil {
		s.warnf = log.Printf
	}
	if s.now == nil {
		s.now = time.Now
	}

	items, err := adapter.Load()
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrCorrupt):
		if opts.OnCorrupt != CorruptReset {
			return nil, fmt.Errorf("load items: %w", err)
		}
		s.warnf("resetting corrupt store: %v", err)
		items = nil
	default:
		s.warnf("storage unavailable, starting memory-only: %v", err)
		s.saveErr = err
		items = nil
	}
	if items == nil {
		items = []model.Item{}
	}
	s.items = items
	for i := range items {
		if items[i].ID > s.lastID {
			s.lastID = items[i].ID
		}
	}
	return s, nil
}

// Close releases the underlying adapter.
func (s *Store) Close() error {
	return s.adapter.Close()
}

// Create validates the payload, stamps an id and creation time and inserts
// the item per the insertion policy. The stored item is returned.
func (s *Store) Create(p model.Payload) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := p.Item()
	it.Title = strings.TrimSpace(it.Title)
	if it.Status == "" && len(s.statuses) > 0 {
		it.Status = s.statuses[0]
	}
	if err := s.validate(it); err != nil {
		return model.Item{}, err
	}
	it.ID = s.nextID()
	it.CreatedAt = s.now().UTC()

	if s.insertFront {
		s.items = append([]model.Item{it}, s.items...)
	} else {
		s.items = append(s.items, it)
	}
	s.persist()
	return it.Clone(), nil
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id int64) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return s.items[idx].Clone(), nil
}

// Update merges the patch into the item with the given id. Fields the
// patch does not name keep their values, unknown stored fields included.
// An empty patch returns the item unchanged without touching storage.
func (s *Store) Update(id int64, patch model.Patch) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if patch.IsZero() {
		return s.items[idx].Clone(), nil
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}
	if err := s.validatePatch(patch); err != nil {
		return model.Item{}, err
	}
	patch.Apply(&s.items[idx])
	s.persist()
	return s.items[idx].Clone(), nil
}

// Delete removes exactly the item with the given id.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persist()
	return nil
}

// Restore puts a previously removed item back at pos, keeping its id. Out
// of range positions clamp to the ends.
func (s *Store) Restore(it model.Item, pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if pos > len(s.items) {
		pos = len(s.items)
	}
	s.items = append(s.items[:pos], append([]model.Item{it.Clone()}, s.items[pos:]...)...)
	if it.ID > s.lastID {
		s.lastID = it.ID
	}
	s.persist()
}

// List returns a copy of the whole collection in insertion order. Mutating
// the result does not touch the store.
func (s *Store) List() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneAll(s.items)
}

// Replace swaps the whole collection, as an import does. Items without an
// id get one; items without a creation stamp get the current time.
func (s *Store) Replace(items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := model.CloneAll(items)
	s.lastID = 0
	for i := range next {
		if next[i].ID > s.lastID {
			s.lastID = next[i].ID
		}
	}
	for i := range next {
		if next[i].ID == 0 {
			next[i].ID = s.nextID()
		}
		if next[i].CreatedAt.IsZero() {
			next[i].CreatedAt = s.now().UTC()
		}
	}
	s.items = next
	s.persist()
}

// Len reports how many items the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// LastSaveErr reports the failure of the most recent persist, or nil after
// a clean one. A non-nil value means memory holds changes the backend does
// not.
func (s *Store) LastSaveErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// nextID derives an id from the clock and bumps past the high-water mark
// so rapid creates never collide. Callers must hold mu.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// indexOf returns the position of id, or -1. Callers must hold mu.
func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// persist pushes the collection to the adapter. Callers must hold mu.
func (s *Store) persist() {
	if err := s.adapter.Save(s.items); err != nil {
		s.saveErr = err
		s.warnf("persist failed, changes held in memory: %v", err)
		return
	}
	s.saveErr = nil
}

func (s *Store) validate(it model.Item) error {
	if it.Title == "" {
		return invalid("title", "must not be empty")
	}
	if !s.statusAllowed(it.Status) {
		return invalid("status", fmt.Sprintf("unknown status %q", it.Status))
	}
	if err := validProgress(it.Progress); err != nil {
		return err
	}
	return nil
}

func (s *Store) validatePatch(p model.Patch) error {
	if p.Title != nil && *p.Title == "" {
		return invalid("title", "must not be empty")
	}
	if p.Status != nil && !s.statusAllowed(*p.Status) {
		return invalid("status", fmt.Sprintf("unknown status %q", *p.Status))
	}
	if p.Progress != nil {
		if err := validProgress(p.Progress); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) statusAllowed(status string) bool {
	if len(s.statuses) == 0 {
		return true
	}
	for _, v := range s.statuses {
		if v == status {
			return true
		}
	}
	return false
}

func validProgress(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return invalid("progress", "must be between 0 and 100")
	}
	return nil
}
