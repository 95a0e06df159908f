package task

import "time"

// Status represents the state of a task. It is a closed set; anything
// outside the four constants below is rejected at the service boundary.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Statuses returns all known statuses, in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// TaskType is a named category for tasks.
type TaskType struct {
	ID          string `gorm:"primaryKey;type:text" json:"id"`
	Name        string `gorm:"uniqueIndex;not null;type:text" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for the TaskType entity.
func (TaskType) TableName() string {
	return "task_types"
}

// Task is a unit of work with a status and an optional category.
// CreatedAt is set once at creation and never updated; CompletedAt is
// stamped the first time the task reaches StatusCompleted and is never
// cleared afterwards.
type Task struct {
	ID          string           `gorm:"primaryKey;type:text" json:"id"`
	Name        string           `gorm:"not null;type:text" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Status      Status           `gorm:"not null;default:pending;type:text" json:"status"`
	TaskTypeID  *string          `gorm:"type:text;index" json:"task_type_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// TaskAssignment binds one user to one task, recording who performed the
// assignment and when. The (task_id, user_id) pair is unique: assigning an
// already-assigned user is a no-op that keeps the existing record.
type TaskAssignment struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	TaskID       string    `gorm:"uniqueIndex:idx_task_user;not null;type:text" json:"task_id"`
	UserID       string    `gorm:"uniqueIndex:idx_task_user;not null;type:text" json:"user_id"`
	AssignedAt   time.Time `json:"assigned_at"`
	AssignedByID *string   `gorm:"type:text" json:"assigned_by_id,omitempty"`
}

// TableName returns the table name for the TaskAssignment entity.
func (TaskAssignment) TableName() string {
	return "task_assignments"
}
