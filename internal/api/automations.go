package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/spritewire/internal/automation"
)

// maxIDLen limits path parameter length.
const maxIDLen = 100

// handleListAutomations returns the full automation catalog.
func (s *Server) handleListAutomations(w http.ResponseWriter, r *http.Request) {
	automations, err := s.repo.List(r.Context())
	if err != nil {
		s.logger.Error("listing automations", "error", err)
		writeInternalError(w, "failed to list automations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"automations": automations,
		"count":       len(automations),
	})
}

// handleGetAutomation returns a single automation by ID.
func (s *Server) handleGetAutomation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid automation ID")
		return
	}

	auto, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, automation.ErrNotFound) {
			writeNotFound(w, "automation not found")
			return
		}
		s.logger.Error("getting automation", "id", id, "error", err)
		writeInternalError(w, "failed to get automation")
		return
	}

	writeJSON(w, http.StatusOK, auto)
}

// handleCreateAutomation creates a new automation. A missing id is
// generated; webhook source types must name a registered adapter.
func (s *Server) handleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	var auto automation.Automation
	if err := json.NewDecoder(r.Body).Decode(&auto); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if auto.ID == "" {
		auto.ID = automation.GenerateID()
	}

	if err := automation.ValidateAutomation(&auto); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	if msg, ok := s.checkSourceKnown(auto.Source); !ok {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	if err := s.repo.Create(r.Context(), &auto); err != nil {
		if errors.Is(err, automation.ErrExists) {
			writeConflict(w, "automation already exists")
			return
		}
		s.logger.Error("creating automation", "id", auto.ID, "error", err)
		writeInternalError(w, "failed to create automation")
		return
	}

	s.reconcileSchedules(r)
	writeJSON(w, http.StatusCreated, auto)
}

// handleUpdateAutomation replaces an automation definition.
func (s *Server) handleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid automation ID")
		return
	}

	var auto automation.Automation
	if err := json.NewDecoder(r.Body).Decode(&auto); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if auto.ID == "" {
		auto.ID = id
	}
	if auto.ID != id {
		writeBadRequest(w, "body id does not match path")
		return
	}

	if err := automation.ValidateAutomation(&auto); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	if msg, ok := s.checkSourceKnown(auto.Source); !ok {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	if err := s.repo.Update(r.Context(), &auto); err != nil {
		if errors.Is(err, automation.ErrNotFound) {
			writeNotFound(w, "automation not found")
			return
		}
		s.logger.Error("updating automation", "id", id, "error", err)
		writeInternalError(w, "failed to update automation")
		return
	}

	s.reconcileSchedules(r)
	writeJSON(w, http.StatusOK, auto)
}

// handleDeleteAutomation removes an automation.
func (s *Server) handleDeleteAutomation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid automation ID")
		return
	}

	if err := s.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, automation.ErrNotFound) {
			writeNotFound(w, "automation not found")
			return
		}
		s.logger.Error("deleting automation", "id", id, "error", err)
		writeInternalError(w, "failed to delete automation")
		return
	}

	s.reconcileSchedules(r)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// checkSourceKnown verifies a webhook source names a registered adapter.
// Structural validation has already run; this is the only check that
// needs the registry.
func (s *Server) checkSourceKnown(src automation.Source) (string, bool) {
	if src.IsCron() {
		return "", true
	}
	if !slices.Contains(s.registry.Names(), src.Type) {
		return "unrecognised source type: " + src.Type, false
	}
	return "", true
}

// reconcileSchedules resynchronises cron timers after a catalog
// mutation. Failures are logged, not surfaced: the mutation itself has
// already committed.
func (s *Server) reconcileSchedules(r *http.Request) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.Reconcile(r.Context()); err != nil {
		s.logger.Error("reconciling schedules after catalog change", "error", err)
	}
}
