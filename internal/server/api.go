package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/internal/journal"
	"github.com/msto63/rechenwerk/pkg/core/logging"
	"github.com/msto63/rechenwerk/pkg/core/version"
)

const maxBodyBytes = 1 << 20

// apiHandler serves the stateless REST routes. Every calc request runs on a
// fresh session.
type apiHandler struct {
	deps    Deps
	version string
	logger  *logging.Logger
}

// OperationInfo describes one callable operation
type OperationInfo struct {
	Name         string `json:"name"`
	NeedsOperand bool   `json:"needs_operand"`
	Mutates      bool   `json:"mutates"`
}

func (h *apiHandler) handleCalc(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Failed to read request body")
		return
	}

	session, err := h.deps.NewSession()
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "Session unavailable")
		return
	}

	results, err := session.Dispatch(r.Context(), string(body))
	if results == nil && err != nil {
		p := newErrorPayload(err)
		h.writeError(w, http.StatusBadRequest, p.Code, p.Message)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, buildResultPayload(session, results, err))
}

func (h *apiHandler) handleOperations(w http.ResponseWriter, r *http.Request) {
	ops := dispatch.Operations()
	out := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		out = append(out, OperationInfo{
			Name:         op.String(),
			NeedsOperand: op.NeedsOperand(),
			Mutates:      op.Mutates(),
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *apiHandler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, version.Get())
}

func (h *apiHandler) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.deps.Journal.List(r.Context(), r.URL.Query().Get("session"), limit)
	if err != nil {
		h.logger.Error("Journal query failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Journal query failed")
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *apiHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", "error", err)
	}
}

func (h *apiHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorPayload{Code: code, Message: message})
}
