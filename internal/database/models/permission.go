package models

import "github.com/google/uuid"

// Permission is a role grant for a user. TaskID optionally scopes the grant
// to a single task; the column exists in the schema but no access rule
// branches on it.
type Permission struct {
	Base
	UserID uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Role   Role       `gorm:"size:50;not null" json:"role"`
	TaskID *uuid.UUID `gorm:"type:uuid" json:"task_id,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Task *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"task,omitempty"`
}

func (Permission) TableName() string {
	return "permissions"
}
