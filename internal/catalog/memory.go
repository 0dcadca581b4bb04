package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is an in-process Store used by tests.  It applies the same
// Filter.Match and Sort.Compare rules the SQL builder encodes.
type MemoryStore struct {
	mu         sync.RWMutex
	hostings   []Hosting
	links      map[int64][]int64
	categories []Category
	nextID     int64
	nextCat    int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:   make(map[int64][]int64),
		nextID:  1,
		nextCat: 1,
	}
}

// List filters, sorts, and copies matching hostings.
func (m *MemoryStore) List(_ context.Context, f Filter) ([]Hosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Hosting, 0, len(m.hostings))
	for i := range m.hostings {
		h := m.hostings[i]
		if !f.Match(&h, m.links[h.ID]) {
			continue
		}
		h.Categories = m.categoriesOf(h.ID)
		out = append(out, h)
	}
	slices.SortStableFunc(out, func(a, b Hosting) int { return f.Sort.Compare(&a, &b) })
	return out, nil
}

func (m *MemoryStore) categoriesOf(id int64) []Category {
	var out []Category
	for _, c := range m.categories {
		if containsID(m.links[id], c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// Categories returns every category ordered by name.
func (m *MemoryStore) Categories(context.Context) ([]Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.categories)
	slices.SortFunc(out, func(a, b Category) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// CreateCategory adds a category with a unique name.
func (m *MemoryStore) CreateCategory(_ context.Context, name string) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = clip(name, MaxCategoryNameLen)
	for _, c := range m.categories {
		if c.Name == name {
			return Category{}, fmt.Errorf("category %q: %w", name, ErrDuplicateName)
		}
	}
	c := Category{ID: m.nextCat, Name: name}
	m.nextCat++
	m.categories = append(m.categories, c)
	return c, nil
}

// Begin starts a staged batch.  Writes become visible on Commit.
func (m *MemoryStore) Begin(context.Context) (Batch, error) {
	return &memBatch{store: m, marks: make(map[string]memMark)}, nil
}

func (m *MemoryStore) nameTaken(name string) bool {
	for _, h := range m.hostings {
		if h.Name == name {
			return true
		}
	}
	return false
}

/*──────────────────────────── memory batch ─────────────────────────────────*/

type memLink struct{ hostingID, categoryID int64 }

type memMark struct{ hostings, links int }

type memBatch struct {
	store    *MemoryStore
	hostings []Hosting
	links    []memLink
	marks    map[string]memMark
	done     bool
}

var errBatchDone = errors.New("catalog: batch already finished")

func (b *memBatch) NameExists(_ context.Context, name string) (bool, error) {
	if b.done {
		return false, errBatchDone
	}
	if b.pendingName(name) {
		return true, nil
	}
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	return b.store.nameTaken(name), nil
}

func (b *memBatch) pendingName(name string) bool {
	for _, h := range b.hostings {
		if h.Name == name {
			return true
		}
	}
	return false
}

func (b *memBatch) CategoryExists(_ context.Context, id int64) (bool, error) {
	if b.done {
		return false, errBatchDone
	}
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()
	for _, c := range b.store.categories {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (b *memBatch) Insert(ctx context.Context, h *Hosting) (int64, error) {
	if b.done {
		return 0, errBatchDone
	}
	h.Truncate()
	if taken, _ := b.NameExists(ctx, h.Name); taken {
		return 0, fmt.Errorf("hosting %q: %w", h.Name, ErrDuplicateName)
	}

	b.store.mu.Lock()
	h.ID = b.store.nextID
	b.store.nextID++
	b.store.mu.Unlock()

	rec := *h
	rec.Categories = nil
	b.hostings = append(b.hostings, rec)
	return h.ID, nil
}

func (b *memBatch) Link(ctx context.Context, hostingID, categoryID int64) error {
	if b.done {
		return errBatchDone
	}
	ok, _ := b.CategoryExists(ctx, categoryID)
	if !ok {
		return fmt.Errorf("category %d: %w", categoryID, ErrCategoryNotFound)
	}
	for _, l := range b.links {
		if l == (memLink{hostingID, categoryID}) {
			return fmt.Errorf("link %d/%d already exists", hostingID, categoryID)
		}
	}
	b.links = append(b.links, memLink{hostingID, categoryID})
	return nil
}

func (b *memBatch) Savepoint(_ context.Context, name string) error {
	b.marks[name] = memMark{len(b.hostings), len(b.links)}
	return nil
}

func (b *memBatch) RollbackTo(_ context.Context, name string) error {
	mk, ok := b.marks[name]
	if !ok {
		return fmt.Errorf("savepoint %q does not exist", name)
	}
	b.hostings = b.hostings[:mk.hostings]
	b.links = b.links[:mk.links]
	return nil
}

func (b *memBatch) Release(_ context.Context, name string) error {
	if _, ok := b.marks[name]; !ok {
		return fmt.Errorf("savepoint %q does not exist", name)
	}
	delete(b.marks, name)
	return nil
}

// Commit publishes staged rows.  A name taken by a concurrent batch fails
// the whole commit, mirroring a deferred unique check.
func (b *memBatch) Commit() error {
	if b.done {
		return errBatchDone
	}
	b.done = true

	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, h := range b.hostings {
		if b.store.nameTaken(h.Name) {
			return fmt.Errorf("commit hosting %q: %w", h.Name, ErrDuplicateName)
		}
	}
	b.store.hostings = append(b.store.hostings, b.hostings...)
	for _, l := range b.links {
		b.store.links[l.hostingID] = append(b.store.links[l.hostingID], l.categoryID)
	}
	return nil
}

func (b *memBatch) Rollback() error {
	b.done = true
	return nil
}
