package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/scoring"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/session"
	"github.com/Rohan-flutterint/hr-voice-screen/internal/store"
)

// QuestionGenerator produces a question battery from role context.
type QuestionGenerator interface {
	Generate(ctx context.Context, jobDescription, resume, roleHint string) ([]model.QuestionRecord, error)
}

// AnswerScorer scores one candidate answer against its ideal answer.
type AnswerScorer interface {
	FinalScore(ctx context.Context, question, idealAnswer, candidateAnswer string) (scoring.Score, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	gen    QuestionGenerator
	scorer AnswerScorer
	config model.ScreenConfig

	mu   sync.Mutex
	live map[string]*liveScreen
}

// liveScreen pairs a persisted screen with its in-memory session walk.
// One candidate walks one screen linearly; the mutex serializes answers.
type liveScreen struct {
	mu      sync.Mutex
	id      int64
	session *session.Session
}

// New creates a new Handler.
func New(s *store.Store, gen QuestionGenerator, scorer AnswerScorer, cfg model.ScreenConfig) *Handler {
	return &Handler{
		store:  s,
		gen:    gen,
		scorer: scorer,
		config: cfg,
		live:   make(map[string]*liveScreen),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/screens", h.handleCreateScreen)
		r.Get("/api/screens", h.handleListScreens)
		r.Get("/api/screens/{screenID}/question", h.handleCurrentQuestion)
		r.Post("/api/screens/{screenID}/answer", h.handleAnswer)
		r.Get("/api/screens/{screenID}/summary", h.handleSummary)
	})
}

type createScreenRequest struct {
	JobDescription string `json:"job_description"`
	Resume         string `json:"resume"`
	RoleHint       string `json:"role_hint"`
	Candidate      string `json:"candidate"`
}

type createScreenResponse struct {
	ScreenID string `json:"screen_id"`
	Total    int    `json:"total"`
}

func (h *Handler) handleCreateScreen(w http.ResponseWriter, r *http.Request) {
	var req createScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" || strings.TrimSpace(req.Resume) == "" {
		writeError(w, http.StatusBadRequest, "job_description and resume are required")
		return
	}

	questions, err := h.gen.Generate(r.Context(), req.JobDescription, req.Resume, req.RoleHint)
	if err != nil {
		slog.Error("question generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "question generation failed")
		return
	}

	publicID := uuid.NewString()
	screenID, err := h.store.CreateScreen(publicID, req.Candidate, req.RoleHint, questions)
	if err != nil {
		slog.Error("failed to persist screen", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create screen")
		return
	}

	h.mu.Lock()
	h.live[publicID] = &liveScreen{id: screenID, session: session.New(questions)}
	h.mu.Unlock()

	// An empty battery is a valid degraded outcome, reported as total 0.
	writeJSON(w, http.StatusCreated, createScreenResponse{ScreenID: publicID, Total: len(questions)})
}

func (h *Handler) handleListScreens(w http.ResponseWriter, r *http.Request) {
	screens, err := h.store.ListScreens()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if screens == nil {
		screens = []model.Screen{}
	}
	writeJSON(w, http.StatusOK, screens)
}

type questionResponse struct {
	Done       bool             `json:"done"`
	Position   int              `json:"position,omitempty"`
	Total      int              `json:"total"`
	Question   string           `json:"question,omitempty"`
	Difficulty model.Difficulty `json:"difficulty,omitempty"`
}

func (h *Handler) handleCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	ls, ok := h.getLive(chi.URLParam(r, "screenID"))
	if !ok {
		writeError(w, http.StatusNotFound, "screen not found")
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	cur := ls.session.Current()
	if cur == nil {
		writeJSON(w, http.StatusOK, questionResponse{Done: true, Total: ls.session.Len()})
		return
	}
	// The ideal answer and rationale stay server-side.
	writeJSON(w, http.StatusOK, questionResponse{
		Position:   ls.session.Cursor(),
		Total:      ls.session.Len(),
		Question:   cur.Question,
		Difficulty: cur.Difficulty,
	})
}

type answerRequest struct {
	Transcript string `json:"transcript"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeError(w, http.StatusBadRequest, "transcript cannot be empty")
		return
	}

	ls, ok := h.getLive(chi.URLParam(r, "screenID"))
	if !ok {
		writeError(w, http.StatusNotFound, "screen not found")
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	cur := ls.session.Current()
	if cur == nil {
		writeError(w, http.StatusConflict, "screening already completed")
		return
	}

	score, err := h.scorer.FinalScore(r.Context(), cur.Question, cur.IdealAnswer, req.Transcript)
	if err != nil {
		slog.Error("answer scoring failed", "error", err)
		writeError(w, http.StatusBadGateway, "answer scoring failed")
		return
	}

	position := ls.session.Cursor()
	result, err := ls.session.AcceptAnswer(req.Transcript, score.Final, score.Semantic, score.Rubric, score.Details)
	if err != nil {
		writeError(w, http.StatusConflict, "screening already completed")
		return
	}

	if err := h.store.AppendAnswer(ls.id, position, result); err != nil {
		slog.Error("failed to persist answer", "screen_id", ls.id, "position", position, "error", err)
	}
	if !ls.session.HasNext() {
		if err := h.store.CompleteScreen(ls.id); err != nil {
			slog.Error("failed to mark screen completed", "screen_id", ls.id, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ls, ok := h.getLive(chi.URLParam(r, "screenID"))
	if !ok {
		writeError(w, http.StatusNotFound, "screen not found")
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	writeJSON(w, http.StatusOK, ls.session.Summary())
}

// getLive returns the in-memory walk for a screen, restoring it from the
// store after a restart.
func (h *Handler) getLive(publicID string) (*liveScreen, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ls, ok := h.live[publicID]; ok {
		return ls, true
	}

	screen, err := h.store.GetScreenByPublicID(publicID)
	if err != nil {
		slog.Error("failed to look up screen", "screen_id", publicID, "error", err)
		return nil, false
	}
	if screen == nil {
		return nil, false
	}
	questions, err := h.store.GetScreenQuestions(screen.ID)
	if err != nil {
		slog.Error("failed to load questions", "screen_id", publicID, "error", err)
		return nil, false
	}
	answers, err := h.store.GetScreenAnswers(screen.ID)
	if err != nil {
		slog.Error("failed to load answers", "screen_id", publicID, "error", err)
		return nil, false
	}

	ls := &liveScreen{id: screen.ID, session: session.Restore(questions, answers)}
	h.live[publicID] = ls
	return ls, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
