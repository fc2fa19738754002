package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tasknest.dev/internal/audit"
	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/todo"
)

// todoCreator reports whether the caller created the todo attached to
// the policy input.
func todoCreator(in auth.Input) bool {
	td, ok := in.Resource.(*todo.Todo)
	if !ok || td == nil {
		return false
	}
	return td.CreatedBy == in.Auth.UserID
}

var (
	updateTodoPolicy = auth.RequireCreatorOrPermission(auth.PermTodoUpdate, todoCreator)
	deleteTodoPolicy = auth.RequireCreatorOrPermission(auth.PermTodoDelete, todoCreator)
)

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

func (a *API) orgID(r *http.Request) string {
	if oc, ok := auth.OrgFromContext(r.Context()); ok {
		return oc.OrganizationID
	}
	return chi.URLParam(r, "orgID")
}

func (a *API) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := a.todos.ListByOrg(r.Context(), a.orgID(r))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "could not list todos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": todos})
}

func (a *API) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	ac, _ := auth.AuthFromContext(r.Context())
	td, err := a.todos.Create(r.Context(), a.orgID(r), ac.UserID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, todo.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "could not create todo")
		return
	}
	_ = audit.LogEvent(r.Context(), "todo.create", zap.String("todo_id", td.ID))
	writeJSON(w, http.StatusCreated, td)
}

func (a *API) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	td, err := a.todos.Find(r.Context(), a.orgID(r), chi.URLParam(r, "todoID"))
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "todo not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "could not load todo")
		return
	}
	writeJSON(w, http.StatusOK, td)
}

// handleUpdateTodo loads the todo first so the creator check can run
// against the stored record, then applies the partial update.
func (a *API) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	orgID, todoID := a.orgID(r), chi.URLParam(r, "todoID")
	td, err := a.todos.Find(r.Context(), orgID, todoID)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "todo not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "could not load todo")
		return
	}
	if !a.authorize(w, r, updateTodoPolicy, td) {
		return
	}

	var req updateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	updated, err := a.todos.Apply(r.Context(), orgID, todoID, todo.Update{
		Title:       req.Title,
		Description: req.Description,
		Done:        req.Done,
	})
	if err != nil {
		if errors.Is(err, todo.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if errors.Is(err, todo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "todo not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "could not update todo")
		return
	}
	_ = audit.LogEvent(r.Context(), "todo.update", zap.String("todo_id", todoID))
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	orgID, todoID := a.orgID(r), chi.URLParam(r, "todoID")
	td, err := a.todos.Find(r.Context(), orgID, todoID)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "todo not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "could not load todo")
		return
	}
	if !a.authorize(w, r, deleteTodoPolicy, td) {
		return
	}
	if err := a.todos.Delete(r.Context(), orgID, todoID); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "todo not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal", "could not delete todo")
		return
	}
	_ = audit.LogEvent(r.Context(), "todo.delete", zap.String("todo_id", todoID))
	w.WriteHeader(http.StatusNoContent)
}
