package models

// Role is a user's permission level. The string value is what gets
// persisted; human-readable labels live in roleDisplayNames so the storage
// representation and the display representation can evolve independently.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleUser       Role = "User"
	RoleReadOnly   Role = "ReadOnly"
)

var roleDisplayNames = map[Role]string{
	RoleSuperAdmin: "Super Admin",
	RoleAdmin:      "Admin",
	RoleUser:       "Standard User",
	RoleReadOnly:   "Read Only",
}

// AllRoles lists every role in capability order.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleUser, RoleReadOnly}
}

func (r Role) Valid() bool {
	_, ok := roleDisplayNames[r]
	return ok
}

func (r Role) DisplayName() string {
	if name, ok := roleDisplayNames[r]; ok {
		return name
	}
	return string(r)
}

// ParseRole maps an inbound string to a Role, accepting either the
// persisted identifier or the display label.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if r.Valid() {
		return r, true
	}
	for role, name := range roleDisplayNames {
		if name == s {
			return role, true
		}
	}
	return "", false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "Open"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusOnHold     TaskStatus = "OnHold"
	TaskStatusCancelled  TaskStatus = "Cancelled"
)

var taskStatusDisplayNames = map[TaskStatus]string{
	TaskStatusOpen:       "Open",
	TaskStatusInProgress: "In Progress",
	TaskStatusCompleted:  "Completed",
	TaskStatusOnHold:     "On Hold",
	TaskStatusCancelled:  "Cancelled",
}

// AllTaskStatuses lists every status in lifecycle order.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusOpen,
		TaskStatusInProgress,
		TaskStatusCompleted,
		TaskStatusOnHold,
		TaskStatusCancelled,
	}
}

func (s TaskStatus) Valid() bool {
	_, ok := taskStatusDisplayNames[s]
	return ok
}

func (s TaskStatus) DisplayName() string {
	if name, ok := taskStatusDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

func ParseTaskStatus(v string) (TaskStatus, bool) {
	s := TaskStatus(v)
	if s.Valid() {
		return s, true
	}
	for status, name := range taskStatusDisplayNames {
		if name == v {
			return status, true
		}
	}
	return "", false
}
