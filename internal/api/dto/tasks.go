package dto

import (
	"strings"

	"github.com/hward/taskboard/internal/api/validation"
	"github.com/hward/taskboard/internal/database/models"
)

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (r CreateTaskRequest) Validate() map[string]string {
	errors := validation.ValidateTaskFields(r.Title, r.Description)
	if r.Status != "" {
		if _, ok := models.ParseTaskStatus(r.Status); !ok {
			errors["status"] = "Unknown task status"
		}
	}
	return errors
}

type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

func (r UpdateTaskRequest) Validate() map[string]string {
	errors := validation.ValidateTaskFields(r.Title, r.Description)
	if _, ok := models.ParseTaskStatus(r.Status); !ok {
		errors["status"] = "Unknown task status"
	}
	return errors
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

func (r UpdateTaskStatusRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if _, ok := models.ParseTaskStatus(r.Status); !ok {
		errors["status"] = "Unknown task status"
	}
	return errors
}

type BulkDeleteRequest struct {
	TaskIDs []string `json:"task_ids"`
}

func (r BulkDeleteRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.TaskIDs) == 0 {
		errors["task_ids"] = "At least one task id is required"
		return errors
	}
	for _, id := range r.TaskIDs {
		if !validation.IsValidUUID(strings.TrimSpace(id)) {
			errors["task_ids"] = "All task ids must be valid UUIDs"
			break
		}
	}
	return errors
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	OwnerID     string `json:"owner_id"`
	OwnerName   string `json:"owner_name,omitempty"`
	OwnerEmail  string `json:"owner_email,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}
