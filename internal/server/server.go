// Package server exposes the game over an HTTP JSON API plus a websocket
// that pushes replacement session snapshots. Handlers stay thin: request
// decoding and status mapping here, all game semantics in internal/game.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DavidSBennett/PlayingInThePast/engine"
	"github.com/DavidSBennett/PlayingInThePast/internal/catalog"
	"github.com/DavidSBennett/PlayingInThePast/internal/game"
	"github.com/DavidSBennett/PlayingInThePast/internal/store"
)

// Server routes API requests to the session manager and the catalog store.
type Server struct {
	manager *game.Manager
	store   store.Store
	log     *logrus.Logger
	hub     *hub
}

// New wires a server over the manager and store. The websocket hub is
// subscribed to manager events immediately.
func New(manager *game.Manager, st store.Store, log *logrus.Logger) *Server {
	s := &Server{
		manager: manager,
		store:   st,
		log:     log,
		hub:     newHub(log),
	}
	manager.Subscribe(s.hub.broadcast)
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("DELETE /api/cards", s.handleClearCards)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)
	mux.HandleFunc("POST /api/cards/import", s.handleImportCards)
	mux.HandleFunc("GET /api/cards/template", s.handleCardTemplate)

	mux.HandleFunc("GET /api/conclusions", s.handleListConclusions)
	mux.HandleFunc("POST /api/conclusions", s.handleCreateConclusion)
	mux.HandleFunc("PUT /api/conclusions/{id}", s.handleUpdateConclusion)
	mux.HandleFunc("DELETE /api/conclusions/{id}", s.handleDeleteConclusion)

	mux.HandleFunc("GET /api/session", s.handleGetSession)
	mux.HandleFunc("POST /api/session", s.handleStartSession)
	mux.HandleFunc("DELETE /api/session", s.handleAbandonSession)
	mux.HandleFunc("POST /api/session/transfer", s.handleTransfer)
	mux.HandleFunc("POST /api/session/draw", s.handleDraw)
	mux.HandleFunc("POST /api/session/move", s.handleMoveCard)
	mux.HandleFunc("POST /api/session/return", s.handleReturnCard)
	mux.HandleFunc("POST /api/session/conclusion", s.handleAssignConclusion)
	mux.HandleFunc("POST /api/session/publish", s.handlePublish)
	mux.HandleFunc("POST /api/session/upgrade", s.handleUpgrade)
	mux.HandleFunc("GET /api/session/preview", s.handlePreview)

	mux.HandleFunc("GET /ws", s.handleWS)

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("failed encoding response")
	}
}

// writeError maps game and store errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNoSession), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrInvalidAction):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// --- cards ---

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.Cards().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var card engine.HistoricalCard
	if !s.decode(w, r, &card) {
		return
	}
	if card.Title == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	card.IsArchive = true
	card.SourceType = catalog.NormalizeSourceType(string(card.SourceType))
	created, err := s.store.Cards().Create(r.Context(), card)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.manager.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Cards().Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.manager.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.Cards().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, c := range cards {
		if err := s.store.Cards().Delete(r.Context(), c.ID); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if err := s.manager.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.WithField("deleted", len(cards)).Info("cleared card archive")
	s.writeJSON(w, http.StatusOK, map[string]int{"deleted": len(cards)})
}

func (s *Server) handleImportCards(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		if strings.Contains(r.Header.Get("Content-Type"), "json") {
			format = "json"
		} else {
			format = "csv"
		}
	}

	var (
		result catalog.ImportResult
		err    error
	)
	switch format {
	case "csv":
		result, err = catalog.ImportCSV(r.Body)
	case "json":
		result, err = catalog.ImportJSON(r.Body)
	default:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown format %q", format)})
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	created, err := s.store.Cards().BulkCreate(r.Context(), result.Cards)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.manager.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"imported": len(created),
		"rejected": len(result.Errors),
	}).Info("imported cards")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"imported": len(created),
		"cards":    created,
		"errors":   result.Errors,
	})
}

func (s *Server) handleCardTemplate(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("format") {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="historical_cards_template.csv"`)
		_, _ = w.Write(catalog.TemplateCSV())
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="historical_cards_template.json"`)
		_, _ = w.Write(catalog.TemplateJSON())
	default:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be csv or json"})
	}
}

// --- conclusions ---

func (s *Server) handleListConclusions(w http.ResponseWriter, r *http.Request) {
	conclusions, err := s.store.Conclusions().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conclusions)
}

func (s *Server) handleCreateConclusion(w http.ResponseWriter, r *http.Request) {
	var c engine.Conclusion
	if !s.decode(w, r, &c) {
		return
	}
	if c.Title == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	created, err := s.store.Conclusions().Create(r.Context(), c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.manager.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateConclusion(w http.ResponseWriter, r *http.Request) {
	var c engine.Conclusion
	if !s.decode(w, r, &c) {
		return
	}
	updated, err := s.store.Conclusions().Update(r.Context(), r.PathValue("id"), c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.manager.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteConclusion(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Conclusions().Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.manager.ReloadCatalog(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- session ---

// sessionView is the session response shape: the snapshot plus the derived
// career summary.
type sessionView struct {
	engine.Session
	StageName     string `json:"stage_name"`
	CareerSummary string `json:"career_summary"`
}

func (s *Server) view(sess engine.Session) sessionView {
	return sessionView{
		Session:       sess,
		StageName:     engine.StageName(sess.CareerStage),
		CareerSummary: sess.CareerSummary(),
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"player_name"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.PlayerName == "" {
		req.PlayerName = "Historian"
	}
	sess, err := s.manager.Start(r.Context(), req.PlayerName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.view(sess))
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Abandon(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// turnView wraps a snapshot with the career notices its operation raised.
type turnView struct {
	sessionView
	Warnings       []warningView `json:"warnings,omitempty"`
	CareerComplete bool          `json:"career_complete"`
}

type warningView struct {
	Kind    engine.WarningKind `json:"kind"`
	Message string             `json:"message"`
}

func (s *Server) turnView(sess engine.Session, res engine.TurnResult) turnView {
	v := turnView{sessionView: s.view(sess), CareerComplete: res.CareerComplete}
	for _, kind := range res.Warnings {
		v.Warnings = append(v.Warnings, warningView{Kind: kind, Message: engine.WarningMessage(kind)})
	}
	return v
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	sess, res, err := s.manager.Transfer(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.turnView(sess, res))
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	sess, res, err := s.manager.Draw(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.turnView(sess, res))
}

type cardMoveRequest struct {
	InstanceID string `json:"instance_id"`
	Space      int    `json:"space"`
}

func (s *Server) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var req cardMoveRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.manager.MoveCard(r.Context(), req.InstanceID, req.Space)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleReturnCard(w http.ResponseWriter, r *http.Request) {
	var req cardMoveRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.manager.ReturnCard(r.Context(), req.InstanceID, req.Space)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sess))
}

// handleAssignConclusion places or clears a conclusion tile: an empty
// conclusion_id clears the space.
func (s *Server) handleAssignConclusion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConclusionID string `json:"conclusion_id"`
		Space        int    `json:"space"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	var (
		sess engine.Session
		err  error
	)
	if req.ConclusionID == "" {
		sess, err = s.manager.ClearConclusion(r.Context(), req.Space)
	} else {
		sess, err = s.manager.AssignConclusion(r.Context(), req.ConclusionID, req.Space)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Space int `json:"space"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	sess, score, res, err := s.manager.Publish(r.Context(), req.Space)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v := struct {
		turnView
		Score engine.ScoreBreakdown `json:"score"`
	}{turnView: s.turnView(sess, res), Score: score}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind engine.UpgradeKind `json:"kind"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.manager.Upgrade(r.Context(), req.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	space, err := strconv.Atoi(r.URL.Query().Get("space"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "space must be a number"})
		return
	}
	breakdown, err := s.manager.Preview(r.Context(), space)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, breakdown)
}
