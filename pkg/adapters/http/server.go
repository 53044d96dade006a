// Package http exposes the orchestration API over JSON/HTTP for the
// case-intake pipeline and the human-review UI.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/observability"
)

// Engine defines the orchestration surface the server needs.
type Engine interface {
	CreateWorkspace(ctx context.Context, id string, createdBy domain.Actor) (*domain.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]string, error)
	ExecuteTransition(ctx context.Context, workspaceID string, toState domain.State) (*domain.TransitionResult, error)
	ExecuteNextStep(ctx context.Context, workspaceID string) (*domain.TransitionResult, error)
	ExecuteFullReasoning(ctx context.Context, workspaceID string) (*domain.RunResult, error)
	SetLock(ctx context.Context, workspaceID string, locked bool, by domain.Actor) error
	ResolveMissingElement(ctx context.Context, workspaceID, elementID string, by domain.Actor) error
}

// Server wires the engine to chi routes.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler builds the HTTP handler. Metrics may be nil, in which
// case /metrics is not mounted.
func NewHandler(engine Engine, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/workspaces", func(r chi.Router) {
		r.Post("/", s.createWorkspace)
		r.Get("/", s.listWorkspaces)
		r.Route("/{workspaceID}", func(r chi.Router) {
			r.Get("/", s.getWorkspace)
			r.Post("/transitions", s.executeTransition)
			r.Post("/step", s.executeNextStep)
			r.Post("/run", s.executeFullReasoning)
			r.Post("/lock", s.setLock)
			r.Post("/missing/{elementID}/resolve", s.resolveMissing)
		})
	})

	return r
}

// transitionResponse is the envelope every orchestration endpoint
// returns. Error text is surfaced verbatim so the review UI can show
// it and offer a retry.
type transitionResponse struct {
	Success          bool                    `json:"success"`
	NewState         domain.State            `json:"new_state,omitempty"`
	UncertaintyLevel *float64                `json:"uncertainty_level,omitempty"`
	Data             *domain.EntityDelta     `json:"data,omitempty"`
	Traces           []domain.ReasoningTrace `json:"traces,omitempty"`
	Error            string                  `json:"error,omitempty"`
}

type runResponse struct {
	Success         bool                 `json:"success"`
	FinalState      domain.State         `json:"final_state,omitempty"`
	Steps           []domain.StepOutcome `json:"steps,omitempty"`
	HaltedOnMissing bool                 `json:"halted_on_missing,omitempty"`
	Error           string               `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createWorkspaceRequest struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
}

func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var body createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if body.UserID == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	ws, err := s.engine.CreateWorkspace(r.Context(), body.ID, domain.Human(body.UserID))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.ListWorkspaces(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workspaces": ids})
}

func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.engine.GetWorkspace(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

type executeTransitionRequest struct {
	ToState string `json:"to_state"`
}

func (s *Server) executeTransition(w http.ResponseWriter, r *http.Request) {
	var body executeTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	toState, err := domain.ParseState(body.ToState)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.ExecuteTransition(r.Context(), chi.URLParam(r, "workspaceID"), toState)
	s.writeTransitionResult(w, r, result, err)
}

func (s *Server) executeNextStep(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.ExecuteNextStep(r.Context(), chi.URLParam(r, "workspaceID"))
	s.writeTransitionResult(w, r, result, err)
}

func (s *Server) executeFullReasoning(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.ExecuteFullReasoning(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		status := statusFor(err)
		s.logger.Warn("full reasoning failed", "workspace", chi.URLParam(r, "workspaceID"), "err", err)
		resp := runResponse{Success: false, Error: err.Error()}
		if result != nil {
			resp.FinalState = result.FinalState
			resp.Steps = result.Steps
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{
		Success:         true,
		FinalState:      result.FinalState,
		Steps:           result.Steps,
		HaltedOnMissing: result.HaltedOnMissing,
	})
}

type lockRequest struct {
	Locked bool   `json:"locked"`
	UserID string `json:"user_id"`
}

func (s *Server) setLock(w http.ResponseWriter, r *http.Request) {
	var body lockRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	err := s.engine.SetLock(r.Context(), chi.URLParam(r, "workspaceID"), body.Locked, domain.Human(body.UserID))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "locked": body.Locked})
}

type resolveRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) resolveMissing(w http.ResponseWriter, r *http.Request) {
	var body resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	err := s.engine.ResolveMissingElement(r.Context(),
		chi.URLParam(r, "workspaceID"), chi.URLParam(r, "elementID"), domain.Human(body.UserID))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) writeTransitionResult(w http.ResponseWriter, r *http.Request, result *domain.TransitionResult, err error) {
	if err != nil {
		s.logger.Warn("transition failed", "workspace", chi.URLParam(r, "workspaceID"), "err", err)
		writeJSON(w, statusFor(err), transitionResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		Success:          true,
		NewState:         result.NewState,
		UncertaintyLevel: &result.UncertaintyLevel,
		Data:             &result.Data,
		Traces:           result.Traces,
	})
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("request failed", "path", r.URL.Path, "err", err)
	writeJSON(w, statusFor(err), transitionResponse{Success: false, Error: err.Error()})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn("bad request", "path", r.URL.Path, "err", err)
	writeJSON(w, status, transitionResponse{Success: false, Error: err.Error()})
}

// statusFor maps the engine's error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWorkspaceNotFound), errors.Is(err, domain.ErrMissingElementNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWorkspaceExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrWorkspaceLocked):
		return http.StatusLocked
	case errors.Is(err, domain.ErrAlreadyFinal), errors.Is(err, domain.ErrRevisionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrHumanOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
