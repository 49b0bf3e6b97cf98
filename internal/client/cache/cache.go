// Package cache keeps an optimistic, ordered local copy of a remote CRUD
// collection. Mutations are applied locally first and reconciled with the
// server's answer or rolled back.
package cache

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"mitaict-site/internal/client/apierr"

	"github.com/oklog/ulid/v2"
)

// TempIDPrefix marks ids assigned locally to entries the server has not
// confirmed yet.
const TempIDPrefix = "tmp-"

// PendingState is the sync status of one cached entry.
type PendingState string

const (
	StateSynced   PendingState = "synced"
	StateCreating PendingState = "creating"
	StateUpdating PendingState = "updating"
	StateDeleting PendingState = "deleting"
)

// Entity is implemented by every cached resource type.
type Entity[T any] interface {
	EntityID() string
	WithEntityID(id string) T
}

// Remote is the server side of a collection.
type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, value T) (T, error)
	Update(ctx context.Context, id string, value T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Entry is a cached value together with its sync state.
type Entry[T any] struct {
	Value T
	State PendingState
}

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewTempID returns a time-ordered temporary id.
func NewTempID() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return TempIDPrefix + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// IsTempID reports whether id was assigned by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// ResourceCache is an ordered optimistic cache over one Remote collection.
// The lock is never held across a Remote call.
type ResourceCache[T Entity[T]] struct {
	mu      sync.Mutex
	remote  Remote[T]
	entries []*Entry[T]
	loading bool

	subMu       sync.Mutex
	subscribers map[int]func([]T)
	nextSubID   int
}

// New creates an empty cache over remote.
func New[T Entity[T]](remote Remote[T]) *ResourceCache[T] {
	return &ResourceCache[T]{
		remote:      remote,
		subscribers: make(map[int]func([]T)),
	}
}

// Load replaces the local state with the remote snapshot. It is rejected with
// a Conflict error while any mutation or another Load is in flight.
func (c *ResourceCache[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, apierr.New(apierr.KindConflict, "load already in flight")
	}
	for _, e := range c.entries {
		if e.State != StateSynced {
			id := e.Value.EntityID()
			c.mu.Unlock()
			return nil, apierr.New(apierr.KindConflict, "mutation in flight for %s", id)
		}
	}
	c.loading = true
	c.mu.Unlock()

	items, err := c.remote.List(ctx)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	seen := make(map[string]int, len(items))
	entries := make([]*Entry[T], 0, len(items))
	for _, item := range items {
		id := item.EntityID()
		if i, dup := seen[id]; dup {
			entries[i].Value = item
			continue
		}
		seen[id] = len(entries)
		entries = append(entries, &Entry[T]{Value: item, State: StateSynced})
	}
	c.entries = entries
	c.mu.Unlock()

	c.notify()
	return c.Items(), nil
}

// Create appends draft under a temporary id, then swaps in the server's
// version. On failure the temporary entry is removed.
func (c *ResourceCache[T]) Create(ctx context.Context, draft T) (T, error) {
	var zero T
	tempID := NewTempID()

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return zero, apierr.New(apierr.KindConflict, "load in flight")
	}
	c.entries = append(c.entries, &Entry[T]{Value: draft.WithEntityID(tempID), State: StateCreating})
	c.mu.Unlock()
	c.notify()

	created, err := c.remote.Create(ctx, draft)

	c.mu.Lock()
	idx := c.indexOf(tempID)
	if err != nil {
		if idx >= 0 {
			c.removeAt(idx)
		}
		c.mu.Unlock()
		c.notify()
		return zero, err
	}

	if existing := c.indexOf(created.EntityID()); existing >= 0 && existing != idx {
		// The server id is already cached; keep one entry per id.
		c.entries[existing].Value = created
		if idx >= 0 {
			c.removeAt(idx)
		}
	} else if idx >= 0 {
		c.entries[idx] = &Entry[T]{Value: created, State: StateSynced}
	} else {
		c.entries = append(c.entries, &Entry[T]{Value: created, State: StateSynced})
	}
	c.mu.Unlock()
	c.notify()

	return created, nil
}

// Update applies patch locally, sends the patched value, and restores the
// previous value if the server refuses.
func (c *ResourceCache[T]) Update(ctx context.Context, id string, patch func(T) T) (T, error) {
	var zero T

	c.mu.Lock()
	idx, err := c.claim(id, StateUpdating)
	if err != nil {
		c.mu.Unlock()
		return zero, err
	}
	previous := c.entries[idx].Value
	patched := patch(previous).WithEntityID(id)
	c.entries[idx].Value = patched
	c.mu.Unlock()
	c.notify()

	updated, err := c.remote.Update(ctx, id, patched)

	c.mu.Lock()
	idx = c.indexOf(id)
	switch {
	case err != nil && apierr.IsNotFound(err):
		if idx >= 0 {
			c.removeAt(idx)
		}
	case err != nil:
		if idx >= 0 {
			c.entries[idx].Value = previous
			c.entries[idx].State = StateSynced
		}
	case idx >= 0:
		c.entries[idx].Value = updated.WithEntityID(id)
		c.entries[idx].State = StateSynced
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		return zero, err
	}
	return updated.WithEntityID(id), nil
}

// Delete hides the entry at once and purges it when the server confirms. On
// failure the entry reappears at its original position.
func (c *ResourceCache[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, err := c.claim(id, StateDeleting); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	c.notify()

	err := c.remote.Delete(ctx, id)

	c.mu.Lock()
	if idx := c.indexOf(id); idx >= 0 {
		if err == nil || apierr.IsNotFound(err) {
			c.removeAt(idx)
		} else {
			c.entries[idx].State = StateSynced
		}
	}
	c.mu.Unlock()
	c.notify()

	return err
}

// claim marks the synced entry id as pending. Callers hold c.mu.
func (c *ResourceCache[T]) claim(id string, state PendingState) (int, error) {
	if c.loading {
		return -1, apierr.New(apierr.KindConflict, "load in flight")
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return -1, apierr.New(apierr.KindNotFound, "%s is not cached", id)
	}
	if current := c.entries[idx].State; current != StateSynced {
		return -1, apierr.New(apierr.KindConflict, "%s is already %s", id, current)
	}
	c.entries[idx].State = state
	return idx, nil
}

func (c *ResourceCache[T]) indexOf(id string) int {
	for i, e := range c.entries {
		if e.Value.EntityID() == id {
			return i
		}
	}
	return -1
}

func (c *ResourceCache[T]) removeAt(i int) {
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
}

// Items returns the visible values in order. Entries being deleted are hidden.
func (c *ResourceCache[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

func (c *ResourceCache[T]) visibleLocked() []T {
	items := make([]T, 0, len(c.entries))
	for _, e := range c.entries {
		if e.State != StateDeleting {
			items = append(items, e.Value)
		}
	}
	return items
}

// Entries returns the visible entries with their sync state.
func (c *ResourceCache[T]) Entries() []Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry[T], 0, len(c.entries))
	for _, e := range c.entries {
		if e.State != StateDeleting {
			entries = append(entries, *e)
		}
	}
	return entries
}

// Get returns the visible entry for id.
func (c *ResourceCache[T]) Get(id string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 || c.entries[idx].State == StateDeleting {
		return Entry[T]{}, false
	}
	return *c.entries[idx], true
}

// Subscribe registers fn to receive the visible items after every change.
func (c *ResourceCache[T]) Subscribe(fn func([]T)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subscribers, id)
	}
}

func (c *ResourceCache[T]) notify() {
	c.subMu.Lock()
	if len(c.subscribers) == 0 {
		c.subMu.Unlock()
		return
	}
	subs := make([]func([]T), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	items := c.Items()
	for _, fn := range subs {
		fn(items)
	}
}
