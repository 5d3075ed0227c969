package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/dbschema/internal/engine"
	"github.com/leapstack-labs/dbschema/internal/selection"
	"github.com/leapstack-labs/dbschema/pkg/core"
)

// maxRequestBody bounds POST /api/schema bodies.
const maxRequestBody = 1 << 20

type handlers struct {
	svc      Service
	notifier *notifier
	logger   *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("failed to write response", "error", err)
	}
}

// writeError maps configuration errors to 400, missing tables to 404 and
// everything else to 500.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case selection.IsConfigurationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrTableNotFound):
		status = http.StatusNotFound
	default:
		h.logger.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) modules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.svc.Modules(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if modules == nil {
		modules = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"modules": modules})
}

func (h *handlers) tables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	module := q.Get("module")
	tables, err := h.svc.Candidates(r.Context(), module, q["pattern"]...)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	h.writeJSON(w, http.StatusOK, struct {
		Module string   `json:"module,omitempty"`
		Tables []string `json:"tables"`
	}{module, tables})
}

func (h *handlers) describe(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.Describe(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, table)
}

func (h *handlers) relations(w http.ResponseWriter, r *http.Request) {
	rel, err := h.svc.Relations(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rel)
}

func (h *handlers) schema(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	res, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// events streams catalog reload events as server-sent events.
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.notifier.subscribe()
	defer h.notifier.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
