package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/api/dto"
	"github.com/hward/taskboard/internal/api/middleware"
	"github.com/hward/taskboard/internal/database/models"
	"github.com/hward/taskboard/internal/permissions"
)

type PermissionHandler struct {
	svc *permissions.Service
}

func NewPermissionHandler(svc *permissions.Service) *PermissionHandler {
	return &PermissionHandler{svc: svc}
}

func permissionToResponse(p *models.Permission) dto.PermissionResponse {
	resp := dto.PermissionResponse{
		ID:        p.ID.String(),
		UserID:    p.UserID.String(),
		Role:      string(p.Role),
		RoleLabel: p.Role.DisplayName(),
	}
	if p.User != nil {
		resp.UserName = p.User.DisplayName
		resp.UserEmail = p.User.Email
	}
	if p.TaskID != nil {
		id := p.TaskID.String()
		resp.TaskID = &id
	}
	if !p.CreatedAt.IsZero() {
		resp.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

// pendingFromRequest converts the request's unsaved edits into the shape
// the permission service merges into a grid page.
func pendingFromRequest(req dto.PermissionGridRequest) *permissions.PendingChanges {
	if len(req.Additions) == 0 && len(req.Removals) == 0 {
		return nil
	}

	pending := &permissions.PendingChanges{}
	for _, grant := range req.Additions {
		userID, err := uuid.Parse(strings.TrimSpace(grant.UserID))
		if err != nil {
			continue
		}
		role, _ := models.ParseRole(grant.Role)
		record := models.Permission{UserID: userID, Role: role}
		if grant.TaskID != nil {
			if taskID, err := uuid.Parse(strings.TrimSpace(*grant.TaskID)); err == nil {
				record.TaskID = &taskID
			}
		}
		pending.Additions = append(pending.Additions, record)
	}
	for _, raw := range req.Removals {
		if id, err := uuid.Parse(strings.TrimSpace(raw)); err == nil {
			pending.Removals = append(pending.Removals, id)
		}
	}
	return pending
}

// Grid handles POST /api/v1/permissions/grid: one page of permission
// records, with the caller's unsaved edits merged in when the caller may
// edit permissions.
func (h *PermissionHandler) Grid(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	allowed, err := h.svc.CanManagePermissions(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check permissions"})
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not authorized"})
		return
	}

	var req dto.PermissionGridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	query := permissions.GridQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	}
	if req.Role != "" {
		role, _ := models.ParseRole(req.Role)
		query.Role = role
	}

	page, err := h.svc.List(r.Context(), query, userID, pendingFromRequest(req))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list permissions"})
		return
	}

	items := make([]dto.PermissionResponse, len(page.Items))
	for i := range page.Items {
		items[i] = permissionToResponse(&page.Items[i])
	}

	writeJSON(w, http.StatusOK, dto.GridResponse{Items: items, Total: page.Total})
}

// Save handles POST /api/v1/permissions/save. The batch is atomic: a
// rejected removal rolls back every change in it.
func (h *PermissionHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.SavePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	additions := make([]permissions.GrantInput, 0, len(req.Additions))
	for _, grant := range req.Additions {
		grantee, err := uuid.Parse(strings.TrimSpace(grant.UserID))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
			return
		}
		input := permissions.GrantInput{UserID: grantee}
		input.Role, _ = models.ParseRole(grant.Role)
		if grant.TaskID != nil {
			taskID, err := uuid.Parse(strings.TrimSpace(*grant.TaskID))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
				return
			}
			input.TaskID = &taskID
		}
		additions = append(additions, input)
	}

	removals := make([]uuid.UUID, 0, len(req.Removals))
	for _, raw := range req.Removals {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid permission ID"})
			return
		}
		removals = append(removals, id)
	}

	if err := h.svc.Save(r.Context(), additions, removals, userID); err != nil {
		switch {
		case errors.Is(err, permissions.ErrNotAuthorized):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not authorized to edit permissions"})
		case errors.Is(err, permissions.ErrSelfRemoval):
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "You cannot remove your own access"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to save permissions"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Permissions saved"})
}

// AvailableUsers handles GET /api/v1/permissions/users: every user that
// can be granted a role, ordered by display name.
func (h *PermissionHandler) AvailableUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	allowed, err := h.svc.CanManagePermissions(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check permissions"})
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not authorized"})
		return
	}

	users, err := h.svc.AvailableUsers(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list users"})
		return
	}

	out := make([]dto.UserDTO, len(users))
	for i := range users {
		out[i] = userToDTO(&users[i])
	}

	writeJSON(w, http.StatusOK, out)
}

// SearchUsers handles GET /api/v1/users/search?q=. Results are capped at
// ten; a blank query returns the first ten users by name.
func (h *PermissionHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	allowed, err := h.svc.CanManagePermissions(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check permissions"})
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Not authorized"})
		return
	}

	users, err := h.svc.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to search users"})
		return
	}

	out := make([]dto.UserDTO, len(users))
	for i := range users {
		out[i] = userToDTO(&users[i])
	}

	writeJSON(w, http.StatusOK, out)
}
