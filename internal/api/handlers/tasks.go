package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/api/dto"
	"github.com/hward/taskboard/internal/api/middleware"
	"github.com/hward/taskboard/internal/api/validation"
	"github.com/hward/taskboard/internal/database/models"
	"github.com/hward/taskboard/internal/permissions"
	"github.com/hward/taskboard/internal/tasks"
)

type TaskHandler struct {
	svc   *tasks.Service
	perms *permissions.Service
}

func NewTaskHandler(svc *tasks.Service, perms *permissions.Service) *TaskHandler {
	return &TaskHandler{svc: svc, perms: perms}
}

// TaskListResponse is the envelope for the filter-style list endpoints:
// a 1-based page of tasks plus scope statistics.
type TaskListResponse struct {
	dto.PaginatedResponse
	Stats *tasks.Stats `json:"stats,omitempty"`
}

func taskToResponse(task *models.Task) dto.TaskResponse {
	resp := dto.TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		StatusLabel: task.Status.DisplayName(),
		OwnerID:     task.OwnerID.String(),
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339),
	}
	if task.Owner != nil {
		resp.OwnerName = task.Owner.DisplayName
		resp.OwnerEmail = task.Owner.Email
	}
	if task.CompletedAt != nil {
		resp.CompletedAt = task.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// parseTaskFilter builds a tasks.Filter from list query parameters.
// Unknown values fall back to the defaults rather than erroring.
func parseTaskFilter(r *http.Request) tasks.Filter {
	f := tasks.DefaultFilter()
	q := r.URL.Query()

	f.SearchTerm = q.Get("search")

	if v := q.Get("status"); v != "" {
		if status, ok := models.ParseTaskStatus(v); ok {
			f.Status = &status
		}
	}

	if v := q.Get("owner_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.OwnerID = &id
		}
	}

	if v := q.Get("start_date"); v != "" {
		if t, err := parseDate(v); err == nil {
			f.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := parseDate(v); err == nil {
			f.EndDate = &t
		}
	}

	if v := q.Get("include_completed"); v != "" {
		f.IncludeCompleted = v != "false" && v != "0"
	}

	p := dto.PaginationParams{Page: f.Page, PerPage: f.PageSize}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		p.PerPage = v
	}
	p.Normalize()
	f.Page = p.Page
	f.PageSize = p.PerPage

	if v := q.Get("sort_by"); v != "" {
		f.SortBy = v
	}
	f.SortDesc = q.Get("sort_dir") != "asc"

	return f
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func writeTaskPage(w http.ResponseWriter, page *tasks.TaskPage, f tasks.Filter) {
	data := make([]dto.TaskResponse, len(page.Tasks))
	for i := range page.Tasks {
		data[i] = taskToResponse(&page.Tasks[i])
	}

	totalPages := int(page.Total) / f.PageSize
	if int(page.Total)%f.PageSize > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, TaskListResponse{
		PaginatedResponse: dto.PaginatedResponse{
			Data:       data,
			Total:      page.Total,
			Page:       f.Page,
			PerPage:    f.PageSize,
			TotalPages: totalPages,
		},
		Stats: page.Stats,
	})
}

// List handles GET /api/v1/tasks: the caller's own tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	f := parseTaskFilter(r)

	page, err := h.svc.ListMine(r.Context(), f, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list tasks"})
		return
	}

	writeTaskPage(w, page, f)
}

// ListAll handles GET /api/v1/tasks/all: every task across owners for
// admins, an empty page for everyone else.
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	f := parseTaskFilter(r)

	page, err := h.svc.ListAll(r.Context(), f, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list tasks"})
		return
	}

	writeTaskPage(w, page, f)
}

// Grid handles GET /api/v1/tasks/grid: the 0-based data-grid path, for
// either the caller's tasks or (with all=true) every task.
func (h *TaskHandler) Grid(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	p := dto.GridParams{}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		p.PageSize = v
	}
	p.Normalize()

	grid := tasks.GridQuery{
		Page:     p.Page,
		PageSize: p.PageSize,
		SortBy:   q.Get("sort_by"),
		SortDesc: q.Get("sort_dir") != "asc",
	}

	viewAll := q.Get("all") == "true"

	page, err := h.svc.Grid(r.Context(), grid, userID, viewAll)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load grid"})
		return
	}

	items := make([]dto.TaskResponse, len(page.Items))
	for i := range page.Items {
		items[i] = taskToResponse(&page.Items[i])
	}

	writeJSON(w, http.StatusOK, dto.GridResponse{Items: items, Total: page.Total})
}

// Create handles POST /api/v1/tasks. The ReadOnly role is gated here, at
// the caller layer; the task service trusts its callers on creation.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	role, err := h.perms.ResolveRole(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to resolve role"})
		return
	}
	if role == models.RoleReadOnly {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Read-only users cannot create tasks"})
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	input := tasks.CreateInput{
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
	}
	if req.Status != "" {
		status, _ := models.ParseTaskStatus(req.Status)
		input.Status = status
	}

	task, err := h.svc.Create(r.Context(), input, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create task"})
		return
	}

	writeJSON(w, http.StatusCreated, taskToResponse(task))
}

// Get handles GET /api/v1/tasks/{id}. Absence and denial are both 404.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return
	}

	task, err := h.svc.Get(r.Context(), taskID, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
		return
	}

	writeJSON(w, http.StatusOK, taskToResponse(task))
}

// Update handles PUT /api/v1/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	status, _ := models.ParseTaskStatus(req.Status)
	task, err := h.svc.Update(r.Context(), taskID, tasks.UpdateInput{
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
		Status:      status,
	}, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
		return
	}

	writeJSON(w, http.StatusOK, taskToResponse(task))
}

// UpdateStatus handles PUT /api/v1/tasks/{id}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return
	}

	var req dto.UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	status, _ := models.ParseTaskStatus(req.Status)
	ok, err := h.svc.UpdateStatus(r.Context(), taskID, status, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update task status"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Status updated"})
}

// Delete handles DELETE /api/v1/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return
	}

	ok, err := h.svc.Delete(r.Context(), taskID, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete task"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Task deleted"})
}

// BulkDelete handles POST /api/v1/tasks/bulk-delete. Tasks the caller may
// not delete are skipped; 404 only when nothing could be removed.
func (h *TaskHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.TaskIDs))
	for _, raw := range req.TaskIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err == nil {
			ids = append(ids, id)
		}
	}

	ok, err := h.svc.DeleteMany(r.Context(), ids, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete tasks"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No tasks deleted"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Tasks deleted"})
}

// Stats handles GET /api/v1/tasks/stats: the caller's own statistics.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.svc.StatsFor(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// StatsAll handles GET /api/v1/tasks/stats/all: cross-user statistics,
// empty below Admin.
func (h *TaskHandler) StatsAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.svc.StatsAll(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to compute stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
