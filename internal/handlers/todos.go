package handlers

import (
	"net/http"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// TodoHandler provides HTTP handlers for todos.
type TodoHandler struct {
	todoService *services.TodoService
	views       enricher
}

func NewTodoHandler(todoService *services.TodoService, names NameResolver) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		views:       enricher{names: names},
	}
}

// TodoRouter registers todo routes on the given router.
func TodoRouter(
	r chi.Router,
	todoService *services.TodoService,
	names NameResolver,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTodoHandler(todoService, names)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateTodo)
	r.Get("/", handler.ListTodos)
	r.Route("/{todoID}", func(r chi.Router) {
		r.Get("/", handler.GetTodo)
		r.Put("/", handler.UpdateTodo)
		r.Delete("/", handler.DeleteTodo)
		r.Post("/complete", handler.CompleteTodo)
	})
}

type CreateTodoRequest struct {
	Title      string      `json:"title" validate:"required,max=100"`
	Content    *string     `json:"content"`
	DueDate    *types.Date `json:"due_date"`
	Priority   string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status     string      `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	AssignedTo *int        `json:"assigned_to" validate:"omitempty,gt=0"`
}

type UpdateTodoRequest struct {
	Title      types.Nullable[string]     `json:"title" validate:"omitempty,min=1,max=100"`
	Content    types.Nullable[string]     `json:"content"`
	DueDate    types.Nullable[types.Date] `json:"due_date"`
	Priority   types.Nullable[string]     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status     types.Nullable[string]     `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	AssignedTo types.Nullable[int]        `json:"assigned_to" validate:"omitempty,gt=0"`
}

func (req UpdateTodoRequest) patch() (types.TodoPatch, error) {
	err := rejectNulls(
		nullField{"title", req.Title.IsNull()},
		nullField{"priority", req.Priority.IsNull()},
		nullField{"status", req.Status.IsNull()},
	)
	return types.TodoPatch{
		Title:      req.Title.Value,
		Content:    req.Content,
		DueDate:    req.DueDate,
		Priority:   req.Priority.Value,
		Status:     req.Status.Value,
		AssignedTo: req.AssignedTo,
	}, err
}

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	var req CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.todoService.Create(r.Context(), acc, types.Todo{
		Title:      req.Title,
		Content:    req.Content,
		DueDate:    req.DueDate,
		Priority:   req.Priority,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, created)
}

func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}

	filter := types.TodoFilter{
		Status:   queryString(r, "status"),
		Priority: queryString(r, "priority"),
	}
	var err error
	if filter.AssignedTo, err = queryInt(r, "assigned_to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	todos, err := h.todoService.List(r.Context(), acc, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.views.todos(r.Context(), todos)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "todoID")
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), acc, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, todo)
}

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "todoID")
	if !ok {
		return
	}
	var req UpdateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.todoService.Update(r.Context(), acc, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, updated)
}

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "todoID")
	if !ok {
		return
	}

	if err := h.todoService.Delete(r.Context(), acc, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Todo deleted successfully"})
}

func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	acc, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "todoID")
	if !ok {
		return
	}

	completed, err := h.todoService.Complete(r.Context(), acc, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, completed)
}

func (h *TodoHandler) respond(w http.ResponseWriter, r *http.Request, status int, todo types.Todo) {
	resp, err := h.views.todo(r.Context(), todo)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, status, resp)
}
