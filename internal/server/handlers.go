package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/sceneqa/internal/state"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

type ruleInfo struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Urgency  qa.Urgency `json:"urgency"`
	Fixable  bool       `json:"fixable"`
}

type loadResponse struct {
	Collection string     `json:"collection"`
	Categories []string   `json:"categories"`
	Rules      []ruleInfo `json:"rules"`
}

type resultsResponse struct {
	State   string       `json:"state"`
	RunID   string       `json:"run_id,omitempty"`
	Results []*qa.Result `json:"results"`
}

type fixRequest struct {
	Item string `json:"item"`
}

type fixResponse struct {
	qa.FixOutcome
	Result *qa.Result `json:"result,omitempty"`
}

type saveResponse struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCollections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"collections": s.cfg.Options.Catalog.Collections(),
		"loaded":      s.orch.Collection(),
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.orch.LoadCollection(name); err != nil {
		writeError(w, err)
		return
	}
	s.runID = ""

	resp := loadResponse{Collection: name, Categories: s.orch.Categories(), Rules: []ruleInfo{}}
	for _, cat := range resp.Categories {
		for _, rule := range s.orch.RulesIn(cat) {
			resp.Rules = append(resp.Rules, ruleInfo{
				ID:       rule.ID(),
				Name:     rule.Name(),
				Category: cat,
				Urgency:  rule.Urgency(),
				Fixable:  rule.Fixable(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if _, err := s.orch.RunAll(); err != nil {
		writeError(w, err)
		return
	}
	s.metrics.runs.Inc()
	s.metrics.runDuration.Observe(time.Since(start).Seconds())

	results := s.orch.Results()
	s.metrics.observeResults(results)
	s.recordRun(r.Context(), results)
	writeJSON(w, http.StatusOK, s.results())
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.results())
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Item == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be {\"item\": \"<name>\"}"})
		return
	}
	id := chi.URLParam(r, "id")
	outcome, err := s.orch.Fix(id, req.Item)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.observeFix(outcome)
	s.recordFix(r.Context(), outcome)
	s.markFixed(outcome)

	res, _ := s.orch.Result(id)
	writeJSON(w, http.StatusOK, fixResponse{FixOutcome: outcome, Result: res})
}

func (s *Server) handleFixAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary, err := s.orch.FixAll(id)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, o := range summary.Outcomes {
		s.metrics.observeFix(o)
		s.recordFix(r.Context(), o)
		s.markFixed(o)
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleSave writes the fixed scene back to the snapshot file.
func (s *Server) handleSave(w http.ResponseWriter, _ *http.Request) {
	if err := s.graph.SaveFile(s.cfg.ScenePath); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.dirty = false
	s.logger.Info("scene saved", "path", s.cfg.ScenePath)
	writeJSON(w, http.StatusOK, saveResponse{Path: s.cfg.ScenePath})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.orch.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	if err := s.orch.Undo(); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) results() resultsResponse {
	results := s.orch.Results()
	if results == nil {
		results = []*qa.Result{}
	}
	return resultsResponse{State: s.orch.State().String(), RunID: s.runID, Results: results}
}

// recordRun stores a run in the history database. History is best effort:
// a failing store is logged and never fails the request.
func (s *Server) recordRun(ctx context.Context, results []*qa.Result) {
	if s.cfg.Store == nil {
		return
	}
	run, err := s.cfg.Store.CreateRun(ctx, s.cfg.ScenePath, s.orch.Collection())
	if err != nil {
		s.logger.Warn("failed to record run", "error", err)
		return
	}
	s.runID = run.ID
	if err := s.cfg.Store.SaveResults(ctx, run.ID, results); err != nil {
		s.logger.Warn("failed to record results", "run", run.ID, "error", err)
	}
	status := state.RunStatusPassed
	for _, res := range results {
		if res.State() != qa.UrgencyNone {
			status = state.RunStatusIssues
			break
		}
	}
	if err := s.cfg.Store.CompleteRun(ctx, run.ID, status, ""); err != nil {
		s.logger.Warn("failed to complete run", "run", run.ID, "error", err)
	}
}

// markFixed flags the in-memory scene as diverged from the snapshot file.
func (s *Server) markFixed(o qa.FixOutcome) {
	if o.Success && !o.Skipped {
		s.dirty = true
	}
}

func (s *Server) recordFix(ctx context.Context, outcome qa.FixOutcome) {
	if s.cfg.Store == nil || s.runID == "" {
		return
	}
	if err := s.cfg.Store.RecordFix(ctx, s.runID, outcome); err != nil {
		s.logger.Warn("failed to record fix", "run", s.runID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps orchestrator errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		unknownCollection *qa.UnknownCollectionError
		unknownRule       *qa.UnknownRuleError
	)
	switch {
	case errors.As(err, &unknownCollection), errors.As(err, &unknownRule):
		status = http.StatusNotFound
	case errors.Is(err, qa.ErrNotLoaded), errors.Is(err, qa.ErrNotEvaluated):
		status = http.StatusConflict
	case errors.Is(err, qa.ErrNotFixable):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
