package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/DavidSBennett/PlayingInThePast/engine"
)

// collection is a mutex-guarded map of records keyed by id. The id and
// withID funcs adapt it to each record type.
type collection[T any] struct {
	mu      sync.RWMutex
	records map[string]T
	id      func(T) string
	withID  func(T, string) T
}

func newCollection[T any](id func(T) string, withID func(T, string) T) *collection[T] {
	return &collection[T]{
		records: make(map[string]T),
		id:      id,
		withID:  withID,
	}
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.records[id])
	}
	return out
}

func (c *collection[T]) get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return rec, nil
}

// create stores a record, generating an id when none is set. Provided ids
// are kept so seed data and restores stay stable.
func (c *collection[T]) create(rec T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createLocked(rec)
}

func (c *collection[T]) createLocked(rec T) T {
	if c.id(rec) == "" {
		rec = c.withID(rec, uuid.NewString())
	}
	c.records[c.id(rec)] = rec
	return rec
}

func (c *collection[T]) bulkCreate(recs []T) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		out = append(out, c.createLocked(rec))
	}
	return out
}

func (c *collection[T]) update(id string, rec T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[id]; !ok {
		var zero T
		return zero, ErrNotFound
	}
	rec = c.withID(rec, id)
	c.records[id] = rec
	return rec, nil
}

func (c *collection[T]) delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[id]; !ok {
		return ErrNotFound
	}
	delete(c.records, id)
	return nil
}

// MemoryStore keeps all collections in process memory. It backs tests and
// catalog-only tooling; the SQL store is the persistent variant.
type MemoryStore struct {
	cards       *collection[engine.HistoricalCard]
	conclusions *collection[engine.Conclusion]
	sessions    *collection[engine.Session]
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		cards: newCollection(
			func(c engine.HistoricalCard) string { return c.ID },
			func(c engine.HistoricalCard, id string) engine.HistoricalCard { c.ID = id; return c },
		),
		conclusions: newCollection(
			func(c engine.Conclusion) string { return c.ID },
			func(c engine.Conclusion, id string) engine.Conclusion { c.ID = id; return c },
		),
		sessions: newCollection(
			func(s engine.Session) string { return s.ID },
			func(s engine.Session, id string) engine.Session { s.ID = id; return s },
		),
	}
}

func (m *MemoryStore) Cards() CardStore             { return memCards{m.cards} }
func (m *MemoryStore) Conclusions() ConclusionStore { return memConclusions{m.conclusions} }
func (m *MemoryStore) Sessions() SessionStore       { return memSessions{m.sessions} }
func (m *MemoryStore) Close() error                 { return nil }

type memCards struct {
	c *collection[engine.HistoricalCard]
}

func (s memCards) List(context.Context) ([]engine.HistoricalCard, error) { return s.c.list(), nil }
func (s memCards) Get(_ context.Context, id string) (engine.HistoricalCard, error) {
	return s.c.get(id)
}
func (s memCards) Create(_ context.Context, card engine.HistoricalCard) (engine.HistoricalCard, error) {
	return s.c.create(card), nil
}
func (s memCards) Update(_ context.Context, id string, card engine.HistoricalCard) (engine.HistoricalCard, error) {
	return s.c.update(id, card)
}
func (s memCards) Delete(_ context.Context, id string) error { return s.c.delete(id) }
func (s memCards) BulkCreate(_ context.Context, cards []engine.HistoricalCard) ([]engine.HistoricalCard, error) {
	return s.c.bulkCreate(cards), nil
}

type memConclusions struct {
	c *collection[engine.Conclusion]
}

func (s memConclusions) List(context.Context) ([]engine.Conclusion, error) { return s.c.list(), nil }
func (s memConclusions) Get(_ context.Context, id string) (engine.Conclusion, error) {
	return s.c.get(id)
}
func (s memConclusions) Create(_ context.Context, c engine.Conclusion) (engine.Conclusion, error) {
	return s.c.create(c), nil
}
func (s memConclusions) Update(_ context.Context, id string, c engine.Conclusion) (engine.Conclusion, error) {
	return s.c.update(id, c)
}
func (s memConclusions) Delete(_ context.Context, id string) error { return s.c.delete(id) }
func (s memConclusions) BulkCreate(_ context.Context, cs []engine.Conclusion) ([]engine.Conclusion, error) {
	return s.c.bulkCreate(cs), nil
}

type memSessions struct{ c *collection[engine.Session] }

func (s memSessions) List(context.Context) ([]engine.Session, error) { return s.c.list(), nil }
func (s memSessions) Get(_ context.Context, id string) (engine.Session, error) {
	return s.c.get(id)
}
func (s memSessions) Create(_ context.Context, sess engine.Session) (engine.Session, error) {
	return s.c.create(sess), nil
}
func (s memSessions) Update(_ context.Context, id string, sess engine.Session) (engine.Session, error) {
	return s.c.update(id, sess)
}
func (s memSessions) Delete(_ context.Context, id string) error { return s.c.delete(id) }
