package models

type User struct {
	Base
	// Stable identifier issued by the external identity provider.
	ExternalUID string `gorm:"uniqueIndex;size:128;not null" json:"external_uid"`
	Email       string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DisplayName string `gorm:"size:255;not null" json:"display_name"`

	// Current effective role, kept in sync with the user's permission
	// record by the permission-save flow.
	Role Role `gorm:"size:50;not null;default:'User'" json:"role"`

	// Relationships. Permissions go with the user; tasks block deletion
	// until reassigned or removed.
	Permissions []Permission `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks       []Task       `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (User) TableName() string {
	return "users"
}
