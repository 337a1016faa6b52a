package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskTitleMaxLen       = 200
	TaskDescriptionMaxLen = 4000
)

type Task struct {
	Base
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:4000" json:"description,omitempty"`
	Status      TaskStatus `gorm:"size:50;not null;index;default:'Open'" json:"status"`

	// Owner is fixed at creation and never reassigned.
	OwnerID uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`

	// Non-nil exactly while Status == Completed.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// SetStatus applies a status change and keeps CompletedAt consistent with
// it. Every status-affecting write goes through here.
func (t *Task) SetStatus(status TaskStatus) {
	t.Status = status
	if status == TaskStatusCompleted {
		if t.CompletedAt == nil {
			now := time.Now().UTC()
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
	}
}
