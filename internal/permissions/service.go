package permissions

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

var (
	// ErrNotAuthorized is returned when a caller without edit rights
	// attempts to change permission records.
	ErrNotAuthorized = errors.New("not authorized to edit permissions")

	// ErrSelfRemoval is returned when a save batch tries to remove the
	// caller's own permission record. The whole batch is rolled back.
	ErrSelfRemoval = errors.New("cannot remove your own permission")
)

// Service answers every authorization question in the system and manages
// permission records. Role lookups hit storage on every call so that role
// changes take effect immediately; nothing here caches across requests.
type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

// ResolveRole returns the user's current role. An unknown user resolves to
// RoleUser rather than being rejected; that is the deliberate default for
// accounts whose permission record has not materialized yet.
func (s *Service) ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("role").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RoleUser, nil
		}
		return "", fmt.Errorf("resolving role for user %s: %w", userID, err)
	}
	if !user.Role.Valid() {
		return models.RoleUser, nil
	}
	return user.Role, nil
}

// CanViewTask reports whether the user may read the given task.
// SuperAdmin and Admin see everything; everyone else only their own tasks.
func (s *Service) CanViewTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	role, err := s.ResolveRole(ctx, userID)
	if err != nil {
		return false, err
	}
	if role == models.RoleSuperAdmin || role == models.RoleAdmin {
		return true, nil
	}
	return s.ownsTask(ctx, taskID, userID)
}

// CanEditTask reports whether the user may modify the given task.
// ReadOnly never edits; SuperAdmin and Admin edit everything; others only
// their own tasks.
func (s *Service) CanEditTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	role, err := s.ResolveRole(ctx, userID)
	if err != nil {
		return false, err
	}
	switch role {
	case models.RoleReadOnly:
		return false, nil
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true, nil
	}
	return s.ownsTask(ctx, taskID, userID)
}

// CanDeleteTask reports whether the user may delete the given task. Admin
// may edit any task but never delete one; only SuperAdmin deletes across
// owners.
func (s *Service) CanDeleteTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	role, err := s.ResolveRole(ctx, userID)
	if err != nil {
		return false, err
	}
	switch role {
	case models.RoleReadOnly, models.RoleAdmin:
		return false, nil
	case models.RoleSuperAdmin:
		return true, nil
	}
	return s.ownsTask(ctx, taskID, userID)
}

// CanManagePermissions reports whether the user may open the permission
// management view. Every role except ReadOnly may.
func (s *Service) CanManagePermissions(ctx context.Context, userID uuid.UUID) (bool, error) {
	role, err := s.ResolveRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role != models.RoleReadOnly, nil
}

// CanEditPermissions reports whether the user may change permission
// records. Only SuperAdmin may.
func (s *Service) CanEditPermissions(ctx context.Context, userID uuid.UUID) (bool, error) {
	role, err := s.ResolveRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleSuperAdmin, nil
}

func (s *Service) ownsTask(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Select("owner_id").First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading task %s: %w", taskID, err)
	}
	return task.OwnerID == userID, nil
}

// GridQuery describes one page of the permission management grid.
// Page is 0-based; this is the data-grid convention, distinct from the
// 1-based task filter API.
type GridQuery struct {
	Page     int
	PageSize int
	Search   string      // matches user display name or email
	Role     models.Role // optional exact role filter
}

func (q *GridQuery) normalize() {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
}

// GrantInput is a not-yet-saved permission assignment.
type GrantInput struct {
	UserID uuid.UUID
	Role   models.Role
	TaskID *uuid.UUID
}

// PendingChanges holds a caller's in-flight edits: new assignments plus
// removals of persisted records keyed by record ID.
type PendingChanges struct {
	Additions []models.Permission
	Removals  []uuid.UUID
}

// GridPage is one page of permission records plus the adjusted total.
type GridPage struct {
	Items []models.Permission
	Total int64
}

// List returns a page of permission records visible to the caller.
// Non-SuperAdmin callers only ever see their own records. Pending local
// changes are merged into the page only when the caller holds edit rights;
// a caller without edit rights gets the persisted page untouched no matter
// what pending edits are passed in.
func (s *Service) List(ctx context.Context, q GridQuery, callerID uuid.UUID, pending *PendingChanges) (*GridPage, error) {
	q.normalize()

	role, err := s.ResolveRole(ctx, callerID)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Model(&models.Permission{}).
		Joins("JOIN users ON users.id = permissions.user_id").
		Preload("User").
		Preload("Task")

	if role != models.RoleSuperAdmin {
		query = query.Where("permissions.user_id = ?", callerID)
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(users.display_name) LIKE ? OR LOWER(users.email) LIKE ?",
			pattern, pattern,
		)
	}

	if q.Role != "" {
		query = query.Where("permissions.role = ?", q.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting permissions: %w", err)
	}

	var items []models.Permission
	if err := query.
		Order("permissions.created_at ASC").
		Offset(q.Page * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}

	canEdit, err := s.CanEditPermissions(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if canEdit && pending != nil {
		items = append(items, pending.Additions...)
		if len(pending.Removals) > 0 {
			removed := make(map[uuid.UUID]struct{}, len(pending.Removals))
			for _, id := range pending.Removals {
				removed[id] = struct{}{}
			}
			kept := items[:0]
			for _, item := range items {
				if _, gone := removed[item.ID]; !gone {
					kept = append(kept, item)
				}
			}
			items = kept
		}
		total = total + int64(len(pending.Additions)) - int64(len(pending.Removals))
	}

	return &GridPage{Items: items, Total: total}, nil
}

// Save applies a batch of permission additions and removals atomically.
// A user who already holds a permission record gets the role replaced on
// the existing record rather than a second record. Removing the caller's
// own record aborts the entire batch. The user's denormalized role is kept
// in step inside the same transaction.
func (s *Service) Save(ctx context.Context, additions []GrantInput, removals []uuid.UUID, callerID uuid.UUID) error {
	canEdit, err := s.CanEditPermissions(ctx, callerID)
	if err != nil {
		return err
	}
	if !canEdit {
		s.log.Warn("permission save denied", "user_id", callerID)
		return ErrNotAuthorized
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, grant := range additions {
			var existing models.Permission
			err := tx.Where("user_id = ?", grant.UserID).First(&existing).Error
			switch {
			case err == nil:
				existing.Role = grant.Role
				existing.TaskID = grant.TaskID
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("updating permission for user %s: %w", grant.UserID, err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				record := models.Permission{
					UserID: grant.UserID,
					Role:   grant.Role,
					TaskID: grant.TaskID,
				}
				if err := tx.Create(&record).Error; err != nil {
					return fmt.Errorf("creating permission for user %s: %w", grant.UserID, err)
				}
			default:
				return fmt.Errorf("loading permission for user %s: %w", grant.UserID, err)
			}

			if err := tx.Model(&models.User{}).
				Where("id = ?", grant.UserID).
				Update("role", grant.Role).Error; err != nil {
				return fmt.Errorf("syncing role for user %s: %w", grant.UserID, err)
			}
		}

		for _, id := range removals {
			var existing models.Permission
			err := tx.First(&existing, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("loading permission %s: %w", id, err)
			}

			if existing.UserID == callerID {
				return ErrSelfRemoval
			}

			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("deleting permission %s: %w", id, err)
			}

			// A user without a permission record falls back to the
			// default role.
			if err := tx.Model(&models.User{}).
				Where("id = ?", existing.UserID).
				Update("role", models.RoleUser).Error; err != nil {
				return fmt.Errorf("resetting role for user %s: %w", existing.UserID, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("permission changes saved",
		"added", len(additions),
		"removed", len(removals),
		"by", callerID,
	)
	return nil
}

// AvailableUsers returns every user ordered by display name, for the
// assignment picker.
func (s *Service) AvailableUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).
		Order("display_name ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// SearchUsers returns up to ten users whose name or email contains the
// search text.
func (s *Service) SearchUsers(ctx context.Context, text string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	if term := strings.TrimSpace(text); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern,
		)
	}

	var users []models.User
	if err := query.
		Order("display_name ASC").
		Limit(10).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return users, nil
}
