package tasks_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/database/models"
	"github.com/hward/taskboard/internal/permissions"
	"github.com/hward/taskboard/internal/tasks"
	"github.com/hward/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*tasks.Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	perms := permissions.NewService(db, log)
	return tasks.NewService(db, perms, log), db
}

func TestCreate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, models.RoleUser)

	t.Run("defaults to open and trims fields", func(t *testing.T) {
		task, err := svc.Create(ctx, tasks.CreateInput{
			Title:       "  Write release notes  ",
			Description: "  for 2.3  ",
		}, owner.ID)
		require.NoError(t, err)

		assert.Equal(t, "Write release notes", task.Title)
		assert.Equal(t, "for 2.3", task.Description)
		assert.Equal(t, models.TaskStatusOpen, task.Status)
		assert.Nil(t, task.CompletedAt)
		assert.Equal(t, owner.ID, task.OwnerID)
	})

	t.Run("created completed gets a completion timestamp", func(t *testing.T) {
		task, err := svc.Create(ctx, tasks.CreateInput{
			Title:  "Already done",
			Status: models.TaskStatusCompleted,
		}, owner.ID)
		require.NoError(t, err)

		require.NotNil(t, task.CompletedAt)
		assert.WithinDuration(t, time.Now().UTC(), *task.CompletedAt, 5*time.Second)
	})
}

func TestGet(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db, models.RoleUser)
	stranger := testutil.CreateTestUser(t, db, models.RoleUser)
	admin := testutil.CreateTestUser(t, db, models.RoleAdmin)
	task := testutil.CreateTestTask(t, db, owner.ID, "Private task", models.TaskStatusOpen)

	t.Run("owner sees own task with owner preloaded", func(t *testing.T) {
		got, err := svc.Get(ctx, task.ID, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.Owner)
		assert.Equal(t, owner.Email, got.Owner.Email)
	})

	t.Run("admin sees any task", func(t *testing.T) {
		got, err := svc.Get(ctx, task.ID, admin.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("denied and missing are indistinguishable", func(t *testing.T) {
		denied, err := svc.Get(ctx, task.ID, stranger.ID)
		require.NoError(t, err)
		assert.Nil(t, denied)

		missing, err := svc.Get(ctx, uuid.New(), owner.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestUpdate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db, models.RoleUser)
	stranger := testutil.CreateTestUser(t, db, models.RoleUser)

	t.Run("completing sets the timestamp", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, owner.ID, "Finish report", models.TaskStatusInProgress)

		updated, err := svc.Update(ctx, task.ID, tasks.UpdateInput{
			Title:  "Finish report",
			Status: models.TaskStatusCompleted,
		}, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, updated)
		require.NotNil(t, updated.CompletedAt)
	})

	t.Run("reopening clears the timestamp", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, owner.ID, "Done thing", models.TaskStatusCompleted)
		require.NotNil(t, task.CompletedAt)

		updated, err := svc.Update(ctx, task.ID, tasks.UpdateInput{
			Title:  "Done thing",
			Status: models.TaskStatusOpen,
		}, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Nil(t, updated.CompletedAt)
	})

	t.Run("non-owner gets soft nil", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, owner.ID, "Untouchable", models.TaskStatusOpen)

		updated, err := svc.Update(ctx, task.ID, tasks.UpdateInput{
			Title:  "Hijacked",
			Status: models.TaskStatusOpen,
		}, stranger.ID)
		require.NoError(t, err)
		assert.Nil(t, updated)

		var fresh models.Task
		require.NoError(t, db.First(&fresh, "id = ?", task.ID).Error)
		assert.Equal(t, "Untouchable", fresh.Title)
	})
}

func TestUpdateStatus(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db, models.RoleUser)
	reader := testutil.CreateTestUser(t, db, models.RoleReadOnly)
	task := testutil.CreateTestTask(t, db, owner.ID, "Status flips", models.TaskStatusOpen)

	t.Run("owner flips status", func(t *testing.T) {
		ok, err := svc.UpdateStatus(ctx, task.ID, models.TaskStatusCompleted, owner.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		var fresh models.Task
		require.NoError(t, db.First(&fresh, "id = ?", task.ID).Error)
		assert.Equal(t, models.TaskStatusCompleted, fresh.Status)
		assert.NotNil(t, fresh.CompletedAt)
	})

	t.Run("readonly is refused", func(t *testing.T) {
		ok, err := svc.UpdateStatus(ctx, task.ID, models.TaskStatusOpen, reader.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing task", func(t *testing.T) {
		ok, err := svc.UpdateStatus(ctx, uuid.New(), models.TaskStatusOpen, owner.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDelete(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db, models.RoleUser)
	admin := testutil.CreateTestUser(t, db, models.RoleAdmin)
	super := testutil.CreateTestUser(t, db, models.RoleSuperAdmin)

	t.Run("admin may edit but not delete", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, owner.ID, "Admin hands off", models.TaskStatusOpen)

		ok, err := svc.Delete(ctx, task.ID, admin.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		var count int64
		require.NoError(t, db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("superadmin deletes anything", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, owner.ID, "Gone soon", models.TaskStatusOpen)

		ok, err := svc.Delete(ctx, task.ID, super.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("owner deletes own", func(t *testing.T) {
		task := testutil.CreateTestTask(t, db, owner.ID, "Mine to remove", models.TaskStatusOpen)

		ok, err := svc.Delete(ctx, task.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestDeleteMany(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db, models.RoleUser)
	other := testutil.CreateTestUser(t, db, models.RoleUser)

	mine := testutil.CreateTestTask(t, db, owner.ID, "Mine", models.TaskStatusOpen)
	theirs := testutil.CreateTestTask(t, db, other.ID, "Theirs", models.TaskStatusOpen)

	t.Run("partial batch deletes only what the caller may", func(t *testing.T) {
		ok, err := svc.DeleteMany(ctx, []uuid.UUID{mine.ID, theirs.ID}, owner.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		var count int64
		require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		require.NoError(t, db.Model(&models.Task{}).Where("id = ?", theirs.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("nothing deletable returns false", func(t *testing.T) {
		ok, err := svc.DeleteMany(ctx, []uuid.UUID{theirs.ID}, owner.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestListMine(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db, models.RoleUser)
	other := testutil.CreateTestUser(t, db, models.RoleUser)

	for i := 1; i <= 45; i++ {
		testutil.CreateTestTask(t, db, owner.ID, fmt.Sprintf("Task %02d", i), models.TaskStatusOpen)
	}
	testutil.CreateTestTask(t, db, other.ID, "Someone else's", models.TaskStatusOpen)

	t.Run("pages and scopes to owner", func(t *testing.T) {
		f := tasks.DefaultFilter()
		f.Page = 2
		f.PageSize = 20
		f.SortBy = "title"
		f.SortDesc = false

		page, err := svc.ListMine(ctx, f, owner.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(45), page.Total)
		require.Len(t, page.Tasks, 20)
		assert.Equal(t, "Task 21", page.Tasks[0].Title)
		assert.Equal(t, "Task 40", page.Tasks[19].Title)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		f := tasks.DefaultFilter()
		f.SearchTerm = "task 07"

		page, err := svc.ListMine(ctx, f, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("excluding completed filters them out", func(t *testing.T) {
		done := testutil.CreateTestTask(t, db, owner.ID, "Wrapped up", models.TaskStatusCompleted)

		f := tasks.DefaultFilter()
		f.IncludeCompleted = false

		page, err := svc.ListMine(ctx, f, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(45), page.Total)

		require.NoError(t, db.Delete(&models.Task{}, "id = ?", done.ID).Error)
	})

	t.Run("stats cover the whole scope not just the page", func(t *testing.T) {
		f := tasks.DefaultFilter()
		f.PageSize = 5

		page, err := svc.ListMine(ctx, f, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, page.Stats)
		assert.Equal(t, 45, page.Stats.TotalTasks)
	})
}

func TestListAll(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	admin := testutil.CreateTestUser(t, db, models.RoleAdmin)
	alice := testutil.CreateTestUser(t, db, models.RoleUser)
	bob := testutil.CreateTestUser(t, db, models.RoleUser)

	testutil.CreateTestTask(t, db, alice.ID, "Alice one", models.TaskStatusOpen)
	testutil.CreateTestTask(t, db, bob.ID, "Bob one", models.TaskStatusCompleted)

	t.Run("admin sees every owner", func(t *testing.T) {
		page, err := svc.ListAll(ctx, tasks.DefaultFilter(), admin.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		require.NotNil(t, page.Stats)
		assert.Equal(t, 2, page.Stats.TotalTasks)
		assert.Equal(t, 1, page.Stats.TasksByOwner[alice.DisplayName])
	})

	t.Run("regular user gets empty page not error", func(t *testing.T) {
		page, err := svc.ListAll(ctx, tasks.DefaultFilter(), alice.ID)
		require.NoError(t, err)
		assert.Empty(t, page.Tasks)
		assert.Equal(t, int64(0), page.Total)
	})
}

func TestGrid(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	admin := testutil.CreateTestUser(t, db, models.RoleAdmin)
	user := testutil.CreateTestUser(t, db, models.RoleUser)

	for i := 0; i < 3; i++ {
		testutil.CreateTestTask(t, db, user.ID, fmt.Sprintf("Grid %d", i), models.TaskStatusOpen)
	}
	testutil.CreateTestTask(t, db, admin.ID, "Admin task", models.TaskStatusOpen)

	t.Run("zero-based paging over own tasks", func(t *testing.T) {
		page, err := svc.Grid(ctx, tasks.GridQuery{Page: 0, PageSize: 2, SortBy: "title"}, user.ID, false)
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Len(t, page.Items, 2)

		second, err := svc.Grid(ctx, tasks.GridQuery{Page: 1, PageSize: 2, SortBy: "title"}, user.ID, false)
		require.NoError(t, err)
		assert.Len(t, second.Items, 1)
	})

	t.Run("view-all for admin", func(t *testing.T) {
		page, err := svc.Grid(ctx, tasks.GridQuery{}, admin.ID, true)
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Total)
	})

	t.Run("view-all for regular user is empty", func(t *testing.T) {
		page, err := svc.Grid(ctx, tasks.GridQuery{}, user.ID, true)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})
}

func TestStats(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	owner := testutil.CreateTestUser(t, db, models.RoleUser)

	t.Run("empty scope has zero rate", func(t *testing.T) {
		stats, err := svc.StatsFor(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalTasks)
		assert.Equal(t, float64(0), stats.CompletionRate)
	})

	t.Run("rate rounds to two decimals", func(t *testing.T) {
		testutil.CreateTestTask(t, db, owner.ID, "a", models.TaskStatusOpen)
		testutil.CreateTestTask(t, db, owner.ID, "b", models.TaskStatusInProgress)
		testutil.CreateTestTask(t, db, owner.ID, "c", models.TaskStatusCompleted)

		stats, err := svc.StatsFor(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalTasks)
		assert.Equal(t, 1, stats.CompletedTasks)
		assert.InDelta(t, 33.33, stats.CompletionRate, 0.001)
		assert.Equal(t, 1, stats.TasksByStatus[models.TaskStatusOpen.DisplayName()])
	})
}
