package dto

import (
	"strings"

	"github.com/hward/taskboard/internal/api/validation"
	"github.com/hward/taskboard/internal/database/models"
)

// PermissionGrant is one pending role assignment in a save batch.
type PermissionGrant struct {
	UserID string  `json:"user_id"`
	Role   string  `json:"role"`
	TaskID *string `json:"task_id,omitempty"`
}

// SavePermissionsRequest carries a batch of in-flight permission edits:
// assignments to apply and persisted record IDs to remove. The batch is
// all-or-nothing on the server.
type SavePermissionsRequest struct {
	Additions []PermissionGrant `json:"additions"`
	Removals  []string          `json:"removals"`
}

func (r SavePermissionsRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.Additions) == 0 && len(r.Removals) == 0 {
		errors["changes"] = "Nothing to save"
		return errors
	}
	for _, grant := range r.Additions {
		if !validation.IsValidUUID(strings.TrimSpace(grant.UserID)) {
			errors["additions"] = "All user ids must be valid UUIDs"
			break
		}
		if _, ok := models.ParseRole(grant.Role); !ok {
			errors["additions"] = "Unknown role: " + grant.Role
			break
		}
		if grant.TaskID != nil && !validation.IsValidUUID(strings.TrimSpace(*grant.TaskID)) {
			errors["additions"] = "Task scope must be a valid UUID"
			break
		}
	}
	for _, id := range r.Removals {
		if !validation.IsValidUUID(strings.TrimSpace(id)) {
			errors["removals"] = "All permission ids must be valid UUIDs"
			break
		}
	}
	return errors
}

// PermissionGridRequest is the query for one grid page of permission
// records, optionally carrying the caller's unsaved edits so the page
// reflects them before a save happens.
type PermissionGridRequest struct {
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
	Search    string            `json:"search,omitempty"`
	Role      string            `json:"role,omitempty"`
	Additions []PermissionGrant `json:"additions,omitempty"`
	Removals  []string          `json:"removals,omitempty"`
}

func (r PermissionGridRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Role != "" {
		if _, ok := models.ParseRole(r.Role); !ok {
			errors["role"] = "Unknown role: " + r.Role
		}
	}
	for _, grant := range r.Additions {
		if !validation.IsValidUUID(strings.TrimSpace(grant.UserID)) {
			errors["additions"] = "All user ids must be valid UUIDs"
			break
		}
		if _, ok := models.ParseRole(grant.Role); !ok {
			errors["additions"] = "Unknown role: " + grant.Role
			break
		}
	}
	for _, id := range r.Removals {
		if !validation.IsValidUUID(strings.TrimSpace(id)) {
			errors["removals"] = "All permission ids must be valid UUIDs"
			break
		}
	}
	return errors
}

// PermissionResponse represents a permission record in API responses.
type PermissionResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name,omitempty"`
	UserEmail string  `json:"user_email,omitempty"`
	Role      string  `json:"role"`
	RoleLabel string  `json:"role_label"`
	TaskID    *string `json:"task_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}
