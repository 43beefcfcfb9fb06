// Package httpapi serves the request/response side: match previews for the
// join screen and the health check. The live channel lives in ws.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mquell/undercover/internal/registry"
	"github.com/mquell/undercover/internal/store"
)

const previewTimeout = 2 * time.Second

// API answers lightweight queries about matches.
type API struct {
	registry *registry.Registry
	store    store.Store // nil when persistence is unavailable
}

// New creates the query API.
func New(reg *registry.Registry, st store.Store) *API {
	return &API{registry: reg, store: st}
}

// RegisterRoutes registers the query endpoints.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/matches/{id}/preview", a.handlePreview)
	mux.HandleFunc("/health", handleHealth)
}

// handlePreview resolves a match preview from the in-memory registry first,
// falling back to the persistence collaborator on a miss.
func (a *API) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	preview, err := a.registry.Preview(id)
	if err == nil {
		writeJSON(w, http.StatusOK, preview)
		return
	}
	if !errors.Is(err, registry.ErrNotFound) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}

	if a.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), previewTimeout)
		defer cancel()
		snap, err := a.store.Get(ctx, id)
		if err == nil {
			writeJSON(w, http.StatusOK, registry.PreviewOfSnapshot(snap))
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("match_id", id).Msg("preview store lookup failed")
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Debug().Err(err).Msg("failed to write health response")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to encode response")
	}
}
