package tasks

import (
	"context"

	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/database/models"
)

// Authorizer is the sole source of authorization decisions for task
// operations. Satisfied by *permissions.Service.
type Authorizer interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error)
	CanViewTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error)
	CanEditTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error)
	CanDeleteTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error)
}
