package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the interface for task operations used by other
// modules.
type TaskPort interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error)
	GetTask(ctx context.Context, taskID string) (*TaskResponse, error)
	ListTasks(ctx context.Context, status, taskTypeID, search string) (*ListTasksResponse, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, taskID string) error

	CreateTaskType(ctx context.Context, name, description string) (*TaskTypeResponse, error)
	GetTaskType(ctx context.Context, typeID string) (*TaskTypeResponse, error)
	ListTaskTypes(ctx context.Context, search string) (*ListTaskTypesResponse, error)
	UpdateTaskType(ctx context.Context, req UpdateTaskTypeRequest) (*TaskTypeResponse, error)
	DeleteTaskType(ctx context.Context, typeID string) error

	ReconcileAssignees(ctx context.Context, taskID string, userIDs []string, actingUserID string) (*ReconcileAssigneesResponse, error)
	CompleteTask(ctx context.Context, taskID string) (*TaskResponse, error)
	CancelTask(ctx context.Context, taskID string) (*TaskResponse, error)
	ListUserTasks(ctx context.Context, userID, status string) (*ListTasksResponse, error)
}

// taskAdapter implements TaskPort using the service container.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via
// SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func (a *taskAdapter) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-task service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) GetTask(ctx context.Context, taskID string) (*TaskResponse, error) {
	req := GetTaskRequest{TaskID: taskID}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-task service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) ListTasks(ctx context.Context, status, taskTypeID, search string) (*ListTasksResponse, error) {
	req := ListTasksRequest{Status: status, TaskTypeID: taskTypeID, Search: search}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-tasks", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) UpdateTask(ctx context.Context, req UpdateTaskRequest) (*TaskResponse, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "update-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("update-task service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) DeleteTask(ctx context.Context, taskID string) error {
	req := DeleteTaskRequest{TaskID: taskID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "delete-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("delete-task service call failed: %w", err)
	}
	return nil
}

func (a *taskAdapter) CreateTaskType(ctx context.Context, name, description string) (*TaskTypeResponse, error) {
	req := CreateTaskTypeRequest{Name: name, Description: description}
	var resp TaskTypeResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-task-type", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-task-type service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) GetTaskType(ctx context.Context, typeID string) (*TaskTypeResponse, error) {
	req := GetTaskTypeRequest{TypeID: typeID}
	var resp TaskTypeResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-task-type", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-task-type service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) ListTaskTypes(ctx context.Context, search string) (*ListTaskTypesResponse, error) {
	req := ListTaskTypesRequest{Search: search}
	var resp ListTaskTypesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-task-types", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-task-types service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) UpdateTaskType(ctx context.Context, req UpdateTaskTypeRequest) (*TaskTypeResponse, error) {
	var resp TaskTypeResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "update-task-type", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("update-task-type service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) DeleteTaskType(ctx context.Context, typeID string) error {
	req := DeleteTaskTypeRequest{TypeID: typeID}
	var resp DeleteTaskTypeResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "delete-task-type", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("delete-task-type service call failed: %w", err)
	}
	return nil
}

func (a *taskAdapter) ReconcileAssignees(ctx context.Context, taskID string, userIDs []string, actingUserID string) (*ReconcileAssigneesResponse, error) {
	req := ReconcileAssigneesRequest{TaskID: taskID, UserIDs: userIDs, ActingUserID: actingUserID}
	var resp ReconcileAssigneesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "reconcile-assignees", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("reconcile-assignees service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) CompleteTask(ctx context.Context, taskID string) (*TaskResponse, error) {
	req := CompleteTaskRequest{TaskID: taskID}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "complete-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("complete-task service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) CancelTask(ctx context.Context, taskID string) (*TaskResponse, error) {
	req := CancelTaskRequest{TaskID: taskID}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "cancel-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("cancel-task service call failed: %w", err)
	}
	return &resp, nil
}

func (a *taskAdapter) ListUserTasks(ctx context.Context, userID, status string) (*ListTasksResponse, error) {
	req := ListUserTasksRequest{UserID: userID, Status: status}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-user-tasks", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-user-tasks service call failed: %w", err)
	}
	return &resp, nil
}
