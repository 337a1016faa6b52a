package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/database/models"
	"gorm.io/gorm"
)

// Service implements the task lifecycle and the filtered/paged task
// queries. Permission failures surface as nil/false soft results so a
// caller cannot tell a denied task from a missing one; only storage
// failures return errors.
//
// Mutating operations assume the caller layer has already gated the
// ReadOnly role for creation; every other operation re-checks permissions
// here.
type Service struct {
	db    *gorm.DB
	log   *slog.Logger
	perms Authorizer
}

func NewService(db *gorm.DB, perms Authorizer, log *slog.Logger) *Service {
	return &Service{db: db, perms: perms, log: log}
}

// CreateInput holds the caller-supplied fields for a new task.
type CreateInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
}

// UpdateInput holds the caller-supplied fields for a full task update.
// Owner is absent on purpose; ownership never changes.
type UpdateInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
}

// TaskPage is one page of tasks plus the unpaged total and the statistics
// for the same scope.
type TaskPage struct {
	Tasks []models.Task
	Total int64
	Stats *Stats
}

// GridPage is one page of tasks for the data-grid path, without stats.
type GridPage struct {
	Items []models.Task
	Total int64
}

// Get returns the task when it exists and the caller may view it, nil
// otherwise. Absence and denial are indistinguishable on purpose.
func (s *Service) Get(ctx context.Context, taskID, callerID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Preload("Owner").First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading task %s: %w", taskID, err)
	}

	ok, err := s.perms.CanViewTask(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn("task view denied", "task_id", taskID, "user_id", callerID)
		return nil, nil
	}

	return &task, nil
}

// Create inserts a new task owned by ownerID. Title and description are
// trimmed; the completion timestamp is set here too when the task is
// created already completed.
func (s *Service) Create(ctx context.Context, input CreateInput, ownerID uuid.UUID) (*models.Task, error) {
	status := input.Status
	if status == "" {
		status = models.TaskStatusOpen
	}

	task := models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		OwnerID:     ownerID,
	}
	task.SetStatus(status)

	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.log.Info("task created", "task_id", task.ID, "user_id", ownerID)
	return &task, nil
}

// Update applies a full update when the caller may edit the task, nil
// otherwise.
func (s *Service) Update(ctx context.Context, taskID uuid.UUID, input UpdateInput, callerID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("task not found for update", "task_id", taskID)
			return nil, nil
		}
		return nil, fmt.Errorf("loading task %s: %w", taskID, err)
	}

	ok, err := s.perms.CanEditTask(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn("task edit denied", "task_id", taskID, "user_id", callerID)
		return nil, nil
	}

	task.Title = strings.TrimSpace(input.Title)
	task.Description = strings.TrimSpace(input.Description)
	task.SetStatus(input.Status)

	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}

	s.log.Info("task updated", "task_id", taskID, "user_id", callerID)
	return &task, nil
}

// UpdateStatus changes only the status, bypassing title/description
// validation. Returns false when the task is absent or the caller may not
// edit it.
func (s *Service) UpdateStatus(ctx context.Context, taskID uuid.UUID, status models.TaskStatus, callerID uuid.UUID) (bool, error) {
	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading task %s: %w", taskID, err)
	}

	ok, err := s.perms.CanEditTask(ctx, taskID, callerID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	task.SetStatus(status)

	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		return false, fmt.Errorf("updating task status %s: %w", taskID, err)
	}

	return true, nil
}

// Delete removes the task when the caller may delete it.
func (s *Service) Delete(ctx context.Context, taskID, callerID uuid.UUID) (bool, error) {
	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("task not found for deletion", "task_id", taskID)
			return false, nil
		}
		return false, fmt.Errorf("loading task %s: %w", taskID, err)
	}

	ok, err := s.perms.CanDeleteTask(ctx, taskID, callerID)
	if err != nil {
		return false, err
	}
	if !ok {
		s.log.Warn("task delete denied", "task_id", taskID, "user_id", callerID)
		return false, nil
	}

	if err := s.db.WithContext(ctx).Delete(&task).Error; err != nil {
		return false, fmt.Errorf("deleting task %s: %w", taskID, err)
	}

	s.log.Info("task deleted", "task_id", taskID, "user_id", callerID)
	return true, nil
}

// DeleteMany removes every listed task the caller may delete, silently
// skipping the rest. True when at least one task was removed.
func (s *Service) DeleteMany(ctx context.Context, taskIDs []uuid.UUID, callerID uuid.UUID) (bool, error) {
	var items []models.Task
	if err := s.db.WithContext(ctx).Where("id IN ?", taskIDs).Find(&items).Error; err != nil {
		return false, fmt.Errorf("loading tasks for deletion: %w", err)
	}

	deletable := make([]uuid.UUID, 0, len(items))
	for _, task := range items {
		ok, err := s.perms.CanDeleteTask(ctx, task.ID, callerID)
		if err != nil {
			return false, err
		}
		if ok {
			deletable = append(deletable, task.ID)
		}
	}

	if len(deletable) == 0 {
		return false, nil
	}

	if err := s.db.WithContext(ctx).
		Where("id IN ?", deletable).
		Delete(&models.Task{}).Error; err != nil {
		return false, fmt.Errorf("deleting tasks: %w", err)
	}

	s.log.Info("tasks deleted", "count", len(deletable), "user_id", callerID)
	return true, nil
}

// ListMine returns the caller's own tasks, filtered, sorted and paged,
// together with the caller's statistics.
func (s *Service) ListMine(ctx context.Context, f Filter, callerID uuid.UUID) (*TaskPage, error) {
	f.normalize()

	query := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Preload("Owner").
		Where("owner_id = ?", callerID)
	query = applyFilters(query, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	var items []models.Task
	if err := applySorting(query, f.SortBy, f.SortDesc).
		Offset(f.offset()).
		Limit(f.PageSize).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	stats, err := s.StatsFor(ctx, callerID)
	if err != nil {
		return nil, err
	}

	return &TaskPage{Tasks: items, Total: total, Stats: stats}, nil
}

// ListAll returns every task across owners for SuperAdmin and Admin
// callers, and an empty page for everyone else. Denial here is an empty
// result, not an error.
func (s *Service) ListAll(ctx context.Context, f Filter, callerID uuid.UUID) (*TaskPage, error) {
	role, err := s.perms.ResolveRole(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleSuperAdmin && role != models.RoleAdmin {
		s.log.Warn("all-tasks view denied", "user_id", callerID, "role", role)
		return &TaskPage{Tasks: []models.Task{}, Stats: &Stats{TasksByStatus: map[string]int{}}}, nil
	}

	f.normalize()

	query := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Preload("Owner")
	query = applyFilters(query, f)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	var items []models.Task
	if err := applySorting(query, f.SortBy, f.SortDesc).
		Offset(f.offset()).
		Limit(f.PageSize).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	stats, err := s.StatsAll(ctx, callerID)
	if err != nil {
		return nil, err
	}

	return &TaskPage{Tasks: items, Total: total, Stats: stats}, nil
}

// Grid returns one 0-based page of tasks for the data-grid path. With
// viewAll set, non-admin callers get an empty page.
func (s *Service) Grid(ctx context.Context, q GridQuery, callerID uuid.UUID, viewAll bool) (*GridPage, error) {
	q.normalize()

	query := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Preload("Owner")

	if viewAll {
		role, err := s.perms.ResolveRole(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if role != models.RoleSuperAdmin && role != models.RoleAdmin {
			return &GridPage{Items: []models.Task{}}, nil
		}
	} else {
		query = query.Where("owner_id = ?", callerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	var items []models.Task
	if err := applySorting(query, q.SortBy, q.SortDesc).
		Offset(q.Page * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	return &GridPage{Items: items, Total: total}, nil
}

// StatsFor computes statistics over one user's tasks.
func (s *Service) StatsFor(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	var items []models.Task
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("loading tasks for stats: %w", err)
	}
	return computeStats(items), nil
}

// StatsAll computes cross-user statistics, grouped by owner display name.
// Callers below Admin get empty stats rather than an error.
func (s *Service) StatsAll(ctx context.Context, callerID uuid.UUID) (*Stats, error) {
	role, err := s.perms.ResolveRole(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleSuperAdmin && role != models.RoleAdmin {
		return &Stats{TasksByStatus: map[string]int{}}, nil
	}

	var items []models.Task
	if err := s.db.WithContext(ctx).
		Preload("Owner").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("loading tasks for stats: %w", err)
	}

	stats := computeStats(items)

	byOwner := make(map[string]int)
	for _, t := range items {
		name := ""
		if t.Owner != nil {
			name = t.Owner.DisplayName
		}
		byOwner[name]++
	}
	stats.TasksByOwner = byOwner

	return stats, nil
}
