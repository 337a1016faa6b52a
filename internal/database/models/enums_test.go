package models_test

import (
	"testing"
	"time"

	"github.com/hward/taskboard/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole(t *testing.T) {
	t.Run("display names", func(t *testing.T) {
		assert.Equal(t, "Super Admin", models.RoleSuperAdmin.DisplayName())
		assert.Equal(t, "Admin", models.RoleAdmin.DisplayName())
		assert.Equal(t, "Standard User", models.RoleUser.DisplayName())
		assert.Equal(t, "Read Only", models.RoleReadOnly.DisplayName())
	})

	t.Run("validity", func(t *testing.T) {
		for _, role := range models.AllRoles() {
			assert.True(t, role.Valid(), string(role))
		}
		assert.False(t, models.Role("Wizard").Valid())
	})

	t.Run("parse accepts identifier and label", func(t *testing.T) {
		role, ok := models.ParseRole("SuperAdmin")
		require.True(t, ok)
		assert.Equal(t, models.RoleSuperAdmin, role)

		role, ok = models.ParseRole("Standard User")
		require.True(t, ok)
		assert.Equal(t, models.RoleUser, role)

		_, ok = models.ParseRole("nonsense")
		assert.False(t, ok)
	})
}

func TestTaskStatus(t *testing.T) {
	t.Run("display names", func(t *testing.T) {
		assert.Equal(t, "In Progress", models.TaskStatusInProgress.DisplayName())
		assert.Equal(t, "On Hold", models.TaskStatusOnHold.DisplayName())
	})

	t.Run("parse accepts identifier and label", func(t *testing.T) {
		status, ok := models.ParseTaskStatus("InProgress")
		require.True(t, ok)
		assert.Equal(t, models.TaskStatusInProgress, status)

		status, ok = models.ParseTaskStatus("In Progress")
		require.True(t, ok)
		assert.Equal(t, models.TaskStatusInProgress, status)

		_, ok = models.ParseTaskStatus("Paused")
		assert.False(t, ok)
	})
}

func TestTaskSetStatus(t *testing.T) {
	t.Run("entering completed stamps the time once", func(t *testing.T) {
		task := models.Task{Title: "x", Status: models.TaskStatusOpen}

		task.SetStatus(models.TaskStatusCompleted)
		require.NotNil(t, task.CompletedAt)
		first := *task.CompletedAt

		task.SetStatus(models.TaskStatusCompleted)
		assert.Equal(t, first, *task.CompletedAt, "timestamp must not move on re-completion")
	})

	t.Run("leaving completed clears the time", func(t *testing.T) {
		now := time.Now().UTC()
		task := models.Task{Title: "x", Status: models.TaskStatusCompleted, CompletedAt: &now}

		task.SetStatus(models.TaskStatusInProgress)
		assert.Nil(t, task.CompletedAt)
		assert.Equal(t, models.TaskStatusInProgress, task.Status)
	})
}
