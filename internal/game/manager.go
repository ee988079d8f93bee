// Package game orchestrates live sessions: it serializes mutations, runs the
// engine operations, persists replacement snapshots, and fans events out to
// subscribers. The store write is the only side effect of an applied
// operation; the in-memory view is always replaced with what the store
// returned.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DavidSBennett/PlayingInThePast/engine"
	"github.com/DavidSBennett/PlayingInThePast/internal/cache"
	"github.com/DavidSBennett/PlayingInThePast/internal/store"
)

var (
	// ErrNoSession is returned when no career is in progress.
	ErrNoSession = errors.New("game: no active session")
	// ErrInvalidAction is returned when the engine declines an operation.
	// The session is untouched and no turn is consumed.
	ErrInvalidAction = errors.New("game: action not allowed in current state")
)

// EventType tags a session event pushed to subscribers.
type EventType string

const (
	EventSessionStart    EventType = "session_start"
	EventTransfer        EventType = "transfer"
	EventDraw            EventType = "draw"
	EventMoveCard        EventType = "move_card"
	EventReturnCard      EventType = "return_card"
	EventAssignTile      EventType = "assign_conclusion"
	EventClearTile       EventType = "clear_conclusion"
	EventPublish         EventType = "publish"
	EventUpgrade         EventType = "upgrade"
	EventSessionAbandon  EventType = "session_abandon"
	EventCatalogReloaded EventType = "catalog_reloaded"
)

// Event carries the full replacement snapshot after an applied operation,
// plus the publication breakdown and any career notices raised by it.
type Event struct {
	Type           EventType              `json:"type"`
	Session        *engine.Session        `json:"session,omitempty"`
	Score          *engine.ScoreBreakdown `json:"score,omitempty"`
	Warnings       []engine.WarningKind   `json:"warnings,omitempty"`
	CareerComplete bool                   `json:"career_complete,omitempty"`
}

// BroadcastFunc receives every event in application order.
type BroadcastFunc func(Event)

// Manager owns the single active session. One mutation is in flight at a
// time; concurrent attempts queue on the mutex and each sees its
// predecessor's committed snapshot.
type Manager struct {
	store     store.Store
	historian *cache.Historian
	log       *logrus.Logger

	mu      sync.Mutex
	catalog engine.Catalog

	subMu sync.RWMutex
	subs  []BroadcastFunc

	actionIndex int

	// seedFn supplies the shuffle seed for new sessions.
	seedFn func() uint64
}

// NewManager builds a manager over the given store. The historian may be
// disabled; events are still delivered to subscribers.
func NewManager(ctx context.Context, st store.Store, historian *cache.Historian, log *logrus.Logger) (*Manager, error) {
	m := &Manager{
		store:     st,
		historian: historian,
		log:       log,
		seedFn:    func() uint64 { return uint64(time.Now().UnixNano()) },
	}
	if err := m.ReloadCatalog(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// ReloadCatalog rebuilds the in-memory catalog view from the store. Called
// after any card or conclusion edit so live sessions score against current
// data.
func (m *Manager) ReloadCatalog(ctx context.Context) error {
	cards, err := m.store.Cards().List(ctx)
	if err != nil {
		return fmt.Errorf("game: reload cards: %w", err)
	}
	conclusions, err := m.store.Conclusions().List(ctx)
	if err != nil {
		return fmt.Errorf("game: reload conclusions: %w", err)
	}
	cat := engine.Catalog{
		Cards:       make(map[string]engine.HistoricalCard, len(cards)),
		Conclusions: make(map[string]engine.Conclusion, len(conclusions)),
	}
	for _, c := range cards {
		cat.Cards[c.ID] = c
	}
	for _, c := range conclusions {
		cat.Conclusions[c.ID] = c
	}

	m.mu.Lock()
	m.catalog = cat
	m.mu.Unlock()

	m.emit(Event{Type: EventCatalogReloaded})
	return nil
}

// Catalog returns the current catalog view. Safe for concurrent use; the
// maps must be treated as read-only.
func (m *Manager) Catalog() engine.Catalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog
}

// Subscribe registers a listener for session events. Listeners are invoked
// synchronously in application order and must not block.
func (m *Manager) Subscribe(fn BroadcastFunc) {
	m.subMu.Lock()
	m.subs = append(m.subs, fn)
	m.subMu.Unlock()
}

func (m *Manager) emit(ev Event) {
	m.subMu.RLock()
	subs := m.subs
	m.subMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// logAction queues the applied operation for the historian. Publishing is
// asynchronous with a short timeout so a slow Redis never stalls play.
func (m *Manager) logAction(sessionID string, actionType EventType, payload map[string]any) {
	m.actionIndex++
	rec := cache.ActionRecord{
		SessionID:   sessionID,
		ActionIndex: m.actionIndex,
		ActionType:  string(actionType),
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.historian.PublishAction(ctx, rec); err != nil {
			m.log.WithError(err).WithField("action", rec.ActionType).Warn("failed publishing action record")
		}
	}()
}

// current returns the active session. The store is the single slot: the
// first stored session is the career in progress.
func (m *Manager) current(ctx context.Context) (engine.Session, error) {
	sessions, err := m.store.Sessions().List(ctx)
	if err != nil {
		return engine.Session{}, fmt.Errorf("game: list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return engine.Session{}, ErrNoSession
	}
	return sessions[0].Normalize(), nil
}

// Get returns the active session without mutating it.
func (m *Manager) Get(ctx context.Context) (engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current(ctx)
}

// Start abandons any existing career and deals a fresh session for the
// named player.
func (m *Manager) Start(ctx context.Context, playerName string) (engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.store.Sessions().List(ctx)
	if err != nil {
		return engine.Session{}, fmt.Errorf("game: list sessions: %w", err)
	}
	for _, old := range existing {
		if err := m.store.Sessions().Delete(ctx, old.ID); err != nil {
			return engine.Session{}, fmt.Errorf("game: abandon session %s: %w", old.ID, err)
		}
		m.emit(Event{Type: EventSessionAbandon})
	}

	cards := make([]engine.HistoricalCard, 0, len(m.catalog.Cards))
	for _, c := range m.catalog.Cards {
		cards = append(cards, c)
	}

	sess := engine.NewSession(uuid.NewString(), playerName, cards, m.seedFn())
	saved, err := m.store.Sessions().Create(ctx, sess)
	if err != nil {
		return engine.Session{}, fmt.Errorf("game: create session: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"session": saved.ID,
		"player":  saved.PlayerName,
		"archive": len(saved.ArchiveDeck),
	}).Info("career started")
	m.actionIndex = 0
	m.logAction(saved.ID, EventSessionStart, map[string]any{"player": saved.PlayerName})
	m.emit(Event{Type: EventSessionStart, Session: &saved})
	return saved, nil
}

// Abandon ends the active career and clears the session slot.
func (m *Manager) Abandon(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.store.Sessions().List(ctx)
	if err != nil {
		return fmt.Errorf("game: list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return ErrNoSession
	}
	for _, sess := range sessions {
		if err := m.store.Sessions().Delete(ctx, sess.ID); err != nil {
			return fmt.Errorf("game: abandon session %s: %w", sess.ID, err)
		}
		m.log.WithField("session", sess.ID).Info("career abandoned")
		m.logAction(sess.ID, EventSessionAbandon, nil)
	}
	m.emit(Event{Type: EventSessionAbandon})
	return nil
}

// apply runs one engine operation under the manager lock: load, mutate,
// persist, replace, notify.
func (m *Manager) apply(ctx context.Context, typ EventType, payload map[string]any,
	op func(engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool)) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.current(ctx)
	if err != nil {
		return engine.Session{}, nil, engine.TurnResult{}, err
	}

	next, score, res, ok := op(sess)
	if !ok {
		m.log.WithFields(logrus.Fields{"session": sess.ID, "action": typ}).Debug("action declined")
		return engine.Session{}, nil, engine.TurnResult{}, ErrInvalidAction
	}

	saved, err := m.store.Sessions().Update(ctx, next.ID, next)
	if err != nil {
		return engine.Session{}, nil, engine.TurnResult{}, fmt.Errorf("game: persist session: %w", err)
	}

	m.logAction(saved.ID, typ, payload)
	m.emit(Event{
		Type:           typ,
		Session:        &saved,
		Score:          score,
		Warnings:       res.Warnings,
		CareerComplete: res.CareerComplete,
	})
	return saved, score, res, nil
}

// Transfer moves cards from the archive deck into the research notebook.
func (m *Manager) Transfer(ctx context.Context) (engine.Session, engine.TurnResult, error) {
	sess, _, res, err := m.apply(ctx, EventTransfer, nil,
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			next, r, ok := s.TransferToResearch()
			return next, nil, r, ok
		})
	return sess, res, err
}

// Draw moves cards from the research notebook into the hand.
func (m *Manager) Draw(ctx context.Context) (engine.Session, engine.TurnResult, error) {
	sess, _, res, err := m.apply(ctx, EventDraw, nil,
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			next, r, ok := s.DrawToHand()
			return next, nil, r, ok
		})
	return sess, res, err
}

// MoveCard places a hand card into a project space.
func (m *Manager) MoveCard(ctx context.Context, instanceID string, space int) (engine.Session, error) {
	sess, _, _, err := m.apply(ctx, EventMoveCard, map[string]any{"instance": instanceID, "space": space},
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			next, ok := s.MoveCardToProject(instanceID, space)
			return next, nil, engine.TurnResult{}, ok
		})
	return sess, err
}

// ReturnCard moves a project space card back to the hand.
func (m *Manager) ReturnCard(ctx context.Context, instanceID string, space int) (engine.Session, error) {
	sess, _, _, err := m.apply(ctx, EventReturnCard, map[string]any{"instance": instanceID, "space": space},
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			next, ok := s.RemoveCardFromProject(instanceID, space)
			return next, nil, engine.TurnResult{}, ok
		})
	return sess, err
}

// AssignConclusion places a conclusion tile on a project space. The tile
// must exist in the catalog.
func (m *Manager) AssignConclusion(ctx context.Context, conclusionID string, space int) (engine.Session, error) {
	sess, _, _, err := m.apply(ctx, EventAssignTile, map[string]any{"conclusion": conclusionID, "space": space},
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			if _, exists := m.catalog.Conclusions[conclusionID]; !exists {
				return s, nil, engine.TurnResult{}, false
			}
			next, ok := s.AssignConclusion(conclusionID, space)
			return next, nil, engine.TurnResult{}, ok
		})
	return sess, err
}

// ClearConclusion removes the conclusion tile from a project space.
func (m *Manager) ClearConclusion(ctx context.Context, space int) (engine.Session, error) {
	sess, _, _, err := m.apply(ctx, EventClearTile, map[string]any{"space": space},
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			next, ok := s.ClearConclusion(space)
			return next, nil, engine.TurnResult{}, ok
		})
	return sess, err
}

// Publish commits a project space as a publication.
func (m *Manager) Publish(ctx context.Context, space int) (engine.Session, engine.ScoreBreakdown, engine.TurnResult, error) {
	sess, score, res, err := m.apply(ctx, EventPublish, map[string]any{"space": space},
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			next, breakdown, r, ok := s.Publish(m.catalog, space)
			if !ok {
				return s, nil, r, false
			}
			return next, &breakdown, r, true
		})
	if err != nil {
		return engine.Session{}, engine.ScoreBreakdown{}, engine.TurnResult{}, err
	}
	return sess, *score, res, nil
}

// Preview computes the live score breakdown for a project space without
// committing it.
func (m *Manager) Preview(ctx context.Context, space int) (engine.ScoreBreakdown, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.current(ctx)
	if err != nil {
		return engine.ScoreBreakdown{}, err
	}
	return sess.PreviewScore(m.catalog, space), nil
}

// Upgrade applies a permanent upgrade to the active session.
func (m *Manager) Upgrade(ctx context.Context, kind engine.UpgradeKind) (engine.Session, error) {
	sess, _, _, err := m.apply(ctx, EventUpgrade, map[string]any{"kind": string(kind)},
		func(s engine.Session) (engine.Session, *engine.ScoreBreakdown, engine.TurnResult, bool) {
			next, ok := s.AcquireUpgrade(kind)
			return next, nil, engine.TurnResult{}, ok
		})
	return sess, err
}
