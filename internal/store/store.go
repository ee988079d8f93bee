// Package store provides the keyed record store backing the game: three
// collections (historical cards, conclusion tiles, game sessions) with
// create/get/update/delete/list semantics. Two implementations exist: a
// mutex-guarded in-memory store and a SQL store persisting records as JSON
// documents, switchable between sqlite and postgres.
//
// Updates are full-record replacements. The game layer always writes
// complete snapshots, so replacing the stored record and merging partial
// fields are observationally identical; the store returns the stored
// record as the authoritative post-mutation state.
package store

import (
	"context"
	"errors"

	"github.com/DavidSBennett/PlayingInThePast/engine"
)

// ErrNotFound is returned when a record id does not exist in a collection.
// It indicates a programming or data-integrity error, not a recoverable
// game condition.
var ErrNotFound = errors.New("store: record not found")

// CardStore holds the historical-document catalog.
type CardStore interface {
	List(ctx context.Context) ([]engine.HistoricalCard, error)
	Get(ctx context.Context, id string) (engine.HistoricalCard, error)
	Create(ctx context.Context, card engine.HistoricalCard) (engine.HistoricalCard, error)
	Update(ctx context.Context, id string, card engine.HistoricalCard) (engine.HistoricalCard, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, cards []engine.HistoricalCard) ([]engine.HistoricalCard, error)
}

// ConclusionStore holds the conclusion tiles.
type ConclusionStore interface {
	List(ctx context.Context) ([]engine.Conclusion, error)
	Get(ctx context.Context, id string) (engine.Conclusion, error)
	Create(ctx context.Context, c engine.Conclusion) (engine.Conclusion, error)
	Update(ctx context.Context, id string, c engine.Conclusion) (engine.Conclusion, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, cs []engine.Conclusion) ([]engine.Conclusion, error)
}

// SessionStore holds game sessions. The game is single-slot, but the store
// itself is a plain keyed collection.
type SessionStore interface {
	List(ctx context.Context) ([]engine.Session, error)
	Get(ctx context.Context, id string) (engine.Session, error)
	Create(ctx context.Context, s engine.Session) (engine.Session, error)
	Update(ctx context.Context, id string, s engine.Session) (engine.Session, error)
	Delete(ctx context.Context, id string) error
}

// Store groups the three collections behind one handle.
type Store interface {
	Cards() CardStore
	Conclusions() ConclusionStore
	Sessions() SessionStore
	Close() error
}
