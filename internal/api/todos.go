package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/viapip/pothos-todo-sub004/internal/auth"
	"github.com/viapip/pothos-todo-sub004/internal/engine"
)

type createTodosRequest struct {
	Todos []engine.Todo `json:"todos"`
}

// handleCreateTodos bulk-loads todos into the execution engine. It exists
// for seeding and import flows; single-item creation normally goes through
// the NL pipeline.
func handleCreateTodos(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ingestor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "INGEST_NOT_CONFIGURED", "todo ingestion is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleWriter); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request createTodosRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid todos request body", false, map[string]any{"details": err.Error()})
		return
	}
	if len(request.Todos) == 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "TODOS_REQUIRED", "at least one todo is required", false, nil)
		return
	}
	for i, todo := range request.Todos {
		if strings.TrimSpace(todo.Title) == "" {
			writeError(r.Context(), w, http.StatusBadRequest, "TITLE_REQUIRED", "todo title is required", false, map[string]any{"index": i})
			return
		}
	}

	ingested, err := deps.Ingestor.IngestTodos(r.Context(), request.Todos)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "INGEST_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ingested": ingested})
}
