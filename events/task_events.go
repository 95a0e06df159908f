package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a new task is created.
type TaskCreatedEvent struct {
	TaskID    string    `json:"task_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskStatusChangedEvent is emitted whenever a task's status changes,
// whether through a direct update, a complete action or a cancel action.
type TaskStatusChangedEvent struct {
	TaskID      string     `json:"task_id"`
	Name        string     `json:"name"`
	FromStatus  string     `json:"from_status"`
	ToStatus    string     `json:"to_status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ChangedAt   time.Time  `json:"changed_at"`
}

// TaskStatusChangedV1 is the typed event definition for status changes.
// Subject: events.task.v1.task-status-changed
var TaskStatusChangedV1 = helper.EventDefinition[TaskStatusChangedEvent](
	"task", "TaskStatusChanged", "v1",
)

// TaskAssignedEvent is emitted for each newly created assignment. It is
// not emitted for assignments that already existed when an assign or
// reconcile request repeats a (task, user) pairing.
type TaskAssignedEvent struct {
	TaskID       string    `json:"task_id"`
	UserID       string    `json:"user_id"`
	AssignedByID *string   `json:"assigned_by_id,omitempty"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// TaskAssignedV1 is the typed event definition for new assignments.
// Subject: events.task.v1.task-assigned
var TaskAssignedV1 = helper.EventDefinition[TaskAssignedEvent](
	"task", "TaskAssigned", "v1",
)
