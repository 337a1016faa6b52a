package tasks

import (
	"math"

	"github.com/hward/taskboard/internal/database/models"
)

// Stats summarizes a task collection. It is computed from already
// authorized query results and performs no authorization of its own.
type Stats struct {
	TotalTasks      int            `json:"total_tasks"`
	OpenTasks       int            `json:"open_tasks"`
	InProgressTasks int            `json:"in_progress_tasks"`
	CompletedTasks  int            `json:"completed_tasks"`
	OnHoldTasks     int            `json:"on_hold_tasks"`
	CancelledTasks  int            `json:"cancelled_tasks"`
	CompletionRate  float64        `json:"completion_rate"`
	TasksByStatus   map[string]int `json:"tasks_by_status"`
	TasksByOwner    map[string]int `json:"tasks_by_owner,omitempty"`
}

func computeStats(items []models.Task) *Stats {
	stats := &Stats{}
	for _, t := range items {
		stats.TotalTasks++
		switch t.Status {
		case models.TaskStatusOpen:
			stats.OpenTasks++
		case models.TaskStatusInProgress:
			stats.InProgressTasks++
		case models.TaskStatusCompleted:
			stats.CompletedTasks++
		case models.TaskStatusOnHold:
			stats.OnHoldTasks++
		case models.TaskStatusCancelled:
			stats.CancelledTasks++
		}
	}

	// Completion rate is defined as zero for an empty collection.
	if stats.TotalTasks > 0 {
		rate := float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
		stats.CompletionRate = math.Round(rate*100) / 100
	}

	stats.TasksByStatus = map[string]int{
		models.TaskStatusOpen.DisplayName():       stats.OpenTasks,
		models.TaskStatusInProgress.DisplayName(): stats.InProgressTasks,
		models.TaskStatusCompleted.DisplayName():  stats.CompletedTasks,
		models.TaskStatusOnHold.DisplayName():     stats.OnHoldTasks,
		models.TaskStatusCancelled.DisplayName():  stats.CancelledTasks,
	}

	return stats
}
