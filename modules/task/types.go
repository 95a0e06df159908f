package task

import (
	"time"

	domain "github.com/example/taskboard/domain/task"
	userdomain "github.com/example/taskboard/domain/user"
)

// TaskTypeResponse is the wire shape of a task type.
type TaskTypeResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTaskTypeResponse converts a task type entity to its wire shape.
func NewTaskTypeResponse(t *domain.TaskType) TaskTypeResponse {
	return TaskTypeResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// AssignmentRecord is the wire shape of one task assignment. User and
// AssignedBy are only populated on detail reads, where assignment users
// are resolved to summaries.
type AssignmentRecord struct {
	ID           string              `json:"id"`
	TaskID       string              `json:"task_id"`
	UserID       string              `json:"user_id"`
	AssignedAt   time.Time           `json:"assigned_at"`
	AssignedByID *string             `json:"assigned_by_id,omitempty"`
	User         *userdomain.Summary `json:"user,omitempty"`
	AssignedBy   *userdomain.Summary `json:"assigned_by,omitempty"`
}

// TaskResponse is the wire shape of a task. TaskType is populated on
// detail reads when the task has a type.
type TaskResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Status      string             `json:"status"`
	TaskTypeID  *string            `json:"task_type_id,omitempty"`
	TaskType    *TaskTypeResponse  `json:"task_type,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Assignments []AssignmentRecord `json:"assignments"`
}

// NewTaskResponse converts a task entity to its wire shape, carrying raw
// assignment rows without resolved user summaries.
func NewTaskResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		TaskTypeID:  t.TaskTypeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
		Assignments: make([]AssignmentRecord, 0, len(t.Assignments)),
	}
	for _, a := range t.Assignments {
		resp.Assignments = append(resp.Assignments, AssignmentRecord{
			ID:           a.ID,
			TaskID:       a.TaskID,
			UserID:       a.UserID,
			AssignedAt:   a.AssignedAt,
			AssignedByID: a.AssignedByID,
		})
	}
	return resp
}

// NewTaskDetailResponse converts a resolved Detail to the wire shape,
// attaching the type and the user summaries gathered for the assignments.
func NewTaskDetailResponse(d *Detail) TaskResponse {
	resp := NewTaskResponse(d.Task)
	if d.Type != nil {
		tt := NewTaskTypeResponse(d.Type)
		resp.TaskType = &tt
	}
	for i := range resp.Assignments {
		if summary, ok := d.Users[resp.Assignments[i].UserID]; ok {
			s := summary
			resp.Assignments[i].User = &s
		}
		if by := resp.Assignments[i].AssignedByID; by != nil {
			if summary, ok := d.Users[*by]; ok {
				s := summary
				resp.Assignments[i].AssignedBy = &s
			}
		}
	}
	return resp
}

// CreateTaskTypeRequest is the request for the create-task-type service.
type CreateTaskTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// GetTaskTypeRequest is the request for the get-task-type service.
type GetTaskTypeRequest struct {
	TypeID string `json:"type_id"`
}

// ListTaskTypesRequest is the request for the list-task-types service.
type ListTaskTypesRequest struct {
	Search string `json:"search,omitempty"`
}

// ListTaskTypesResponse is the response for the list-task-types service.
type ListTaskTypesResponse struct {
	TaskTypes []TaskTypeResponse `json:"task_types"`
	Total     int                `json:"total"`
}

// UpdateTaskTypeRequest is the request for the update-task-type service.
// Nil fields are left unchanged.
type UpdateTaskTypeRequest struct {
	TypeID      string  `json:"type_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DeleteTaskTypeRequest is the request for the delete-task-type service.
type DeleteTaskTypeRequest struct {
	TypeID string `json:"type_id"`
}

// DeleteTaskTypeResponse is the response for the delete-task-type service.
type DeleteTaskTypeResponse struct {
	Deleted bool `json:"deleted"`
}

// CreateTaskRequest is the request for the create-task service. An empty
// status defaults to pending.
type CreateTaskRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	TaskTypeID  *string `json:"task_type_id,omitempty"`
}

// GetTaskRequest is the request for the get-task service.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// ListTasksRequest is the request for the list-tasks service. Empty
// filters match everything.
type ListTasksRequest struct {
	Status     string `json:"status,omitempty"`
	TaskTypeID string `json:"task_type_id,omitempty"`
	Search     string `json:"search,omitempty"`
}

// ListTasksResponse is the response for the list-tasks and
// list-user-tasks services.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// UpdateTaskRequest is the request for the update-task service. Nil
// fields are left unchanged; a pointer to the empty string on TaskTypeID
// clears the task's type.
type UpdateTaskRequest struct {
	TaskID      string  `json:"task_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	TaskTypeID  *string `json:"task_type_id,omitempty"`
}

// DeleteTaskRequest is the request for the delete-task service.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// DeleteTaskResponse is the response for the delete-task service.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// AssignTaskRequest is the request for the assign-task service: each
// listed user is added to the task's assignees, existing assignees stay.
type AssignTaskRequest struct {
	TaskID       string   `json:"task_id"`
	UserIDs      []string `json:"user_ids"`
	ActingUserID string   `json:"acting_user_id,omitempty"`
}

// AssignTaskResponse is the response for the assign-task service,
// carrying the full assignment list after the operation.
type AssignTaskResponse struct {
	TaskID      string             `json:"task_id"`
	Assignments []AssignmentRecord `json:"assignments"`
}

// ReconcileAssigneesRequest is the request for the reconcile-assignees
// service: the task's assignee set is replaced by UserIDs.
type ReconcileAssigneesRequest struct {
	TaskID       string   `json:"task_id"`
	UserIDs      []string `json:"user_ids"`
	ActingUserID string   `json:"acting_user_id,omitempty"`
}

// ReconcileAssigneesResponse is the response for the reconcile-assignees
// service, echoing the final assignee set in sorted order.
type ReconcileAssigneesResponse struct {
	TaskID  string   `json:"task_id"`
	UserIDs []string `json:"user_ids"`
}

// CompleteTaskRequest is the request for the complete-task service.
type CompleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// CancelTaskRequest is the request for the cancel-task service.
type CancelTaskRequest struct {
	TaskID string `json:"task_id"`
}

// ListUserTasksRequest is the request for the list-user-tasks service.
type ListUserTasksRequest struct {
	UserID string `json:"user_id"`
	Status string `json:"status,omitempty"`
}
