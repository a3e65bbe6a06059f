package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/spritewire/internal/dispatch"
	"github.com/nerrad567/spritewire/internal/source"
)

// handleHook receives one inbound webhook, hands it to the dispatcher
// and maps the outcome onto the response.
//
// The body is read exactly once here; adapters recompute signatures over
// the captured bytes rather than re-reading the stream.
func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	sourceName := chi.URLParam(r, "source")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "unable to read request body")
		return
	}

	outcome, err := s.dispatcher.Dispatch(r.Context(), sourceName, source.Request{
		Header: r.Header,
		Body:   body,
	})
	if err != nil {
		s.writeDispatchError(w, sourceName, err)
		return
	}

	if outcome.Handshake {
		writeJSON(w, http.StatusOK, map[string]any{"challenge": outcome.Challenge})
		return
	}

	response := map[string]any{
		"event":   outcome.Event,
		"matched": len(outcome.Results),
		"results": outcome.Results,
		"success": outcome.Success(),
	}
	if !outcome.Success() {
		writeJSON(w, http.StatusInternalServerError, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// writeDispatchError maps dispatcher sentinels onto HTTP status codes:
// authenticity failures are client errors, configuration and catalog
// failures are server errors.
func (s *Server) writeDispatchError(w http.ResponseWriter, sourceName string, err error) {
	switch {
	case errors.Is(err, dispatch.ErrUnknownSource):
		writeNotFound(w, "unrecognised source")
	case errors.Is(err, dispatch.ErrValidationFailed):
		writeUnauthorized(w, "signature validation failed")
	case errors.Is(err, dispatch.ErrMalformedPayload):
		writeBadRequest(w, "malformed payload")
	case errors.Is(err, dispatch.ErrMissingSecret):
		writeInternalError(w, "source not configured")
	default:
		s.logger.Error("dispatch failed", "source", sourceName, "error", err)
		writeInternalError(w, "dispatch failed")
	}
}
