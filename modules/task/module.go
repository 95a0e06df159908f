package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/events"
	"github.com/example/taskboard/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TaskModule provides task, task type and assignment services (core domain).
type TaskModule struct {
	db       *gorm.DB
	repo     *TaskRepository
	service  *TaskService
	users    auth.AuthPort
	eventBus mono.EventBus
	dbPath   string
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule() *TaskModule {
	dbPath := os.Getenv("TASKBOARD_TASK_DB_PATH")
	if dbPath == "" {
		dbPath = "taskboard-tasks.db"
	}
	return &TaskModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Dependencies declares the modules this module calls into.
func (m *TaskModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives dependency containers before Start.
func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.users = auth.NewAuthAdapter(container)
	}
}

// SetEventBus receives the event bus before Start.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskStatusChangedV1.ToBase(),
		events.TaskAssignedV1.ToBase(),
	}
}

// Start initializes the task module.
func (m *TaskModule) Start(_ context.Context) error {
	if m.users == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.TaskType{}, &domain.Task{}, &domain.TaskAssignment{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.repo = NewTaskRepository(db)
	m.service = NewTaskService(m.repo, m.users, m.eventBus)

	log.Printf("[task] Module started (database: %s, depends on: auth)", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TaskModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	var tasks, assignments int64
	m.db.Model(&domain.Task{}).Count(&tasks)
	m.db.Model(&domain.TaskAssignment{}).Count(&assignments)

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database":    m.dbPath,
			"tasks":       tasks,
			"assignments": assignments,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.handleCreateTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.handleGetTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.handleListTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.handleUpdateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.handleDeleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task-type", json.Unmarshal, json.Marshal, m.handleCreateTaskType,
	); err != nil {
		return fmt.Errorf("failed to register create-task-type service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task-type", json.Unmarshal, json.Marshal, m.handleGetTaskType,
	); err != nil {
		return fmt.Errorf("failed to register get-task-type service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-task-types", json.Unmarshal, json.Marshal, m.handleListTaskTypes,
	); err != nil {
		return fmt.Errorf("failed to register list-task-types service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task-type", json.Unmarshal, json.Marshal, m.handleUpdateTaskType,
	); err != nil {
		return fmt.Errorf("failed to register update-task-type service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task-type", json.Unmarshal, json.Marshal, m.handleDeleteTaskType,
	); err != nil {
		return fmt.Errorf("failed to register delete-task-type service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "assign-task", json.Unmarshal, json.Marshal, m.handleAssignTask,
	); err != nil {
		return fmt.Errorf("failed to register assign-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "reconcile-assignees", json.Unmarshal, json.Marshal, m.handleReconcileAssignees,
	); err != nil {
		return fmt.Errorf("failed to register reconcile-assignees service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "complete-task", json.Unmarshal, json.Marshal, m.handleCompleteTask,
	); err != nil {
		return fmt.Errorf("failed to register complete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "cancel-task", json.Unmarshal, json.Marshal, m.handleCancelTask,
	); err != nil {
		return fmt.Errorf("failed to register cancel-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-user-tasks", json.Unmarshal, json.Marshal, m.handleListUserTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-user-tasks service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, get-task, list-tasks, update-task, delete-task, " +
		"create-task-type, get-task-type, list-task-types, update-task-type, delete-task-type, " +
		"assign-task, reconcile-assignees, complete-task, cancel-task, list-user-tasks")
	return nil
}

// handleCreateTask handles task creation.
func (m *TaskModule) handleCreateTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.CreateTask(ctx, CreateTaskParams{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		TaskTypeID:  req.TaskTypeID,
	})
	if err != nil {
		return TaskResponse{}, err
	}
	return NewTaskResponse(t), nil
}

// handleGetTask handles single task reads, with assignment users resolved.
func (m *TaskModule) handleGetTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	detail, err := m.service.TaskDetail(ctx, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return NewTaskDetailResponse(detail), nil
}

// handleListTasks handles task listing with filters.
func (m *TaskModule) handleListTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListTasks(ctx, req.Status, req.TaskTypeID, req.Search)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return newListTasksResponse(tasks), nil
}

// handleUpdateTask handles partial task updates.
func (m *TaskModule) handleUpdateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.UpdateTask(ctx, UpdateTaskParams{
		TaskID:      req.TaskID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		TaskTypeID:  req.TaskTypeID,
	})
	if err != nil {
		return TaskResponse{}, err
	}
	return NewTaskResponse(t), nil
}

// handleDeleteTask handles task deletion.
func (m *TaskModule) handleDeleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTask(ctx, req.TaskID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

// handleCreateTaskType handles task type creation.
func (m *TaskModule) handleCreateTaskType(ctx context.Context, req CreateTaskTypeRequest, _ *mono.Msg) (TaskTypeResponse, error) {
	t, err := m.service.CreateType(ctx, req.Name, req.Description)
	if err != nil {
		return TaskTypeResponse{}, err
	}
	return NewTaskTypeResponse(t), nil
}

// handleGetTaskType handles single task type reads.
func (m *TaskModule) handleGetTaskType(ctx context.Context, req GetTaskTypeRequest, _ *mono.Msg) (TaskTypeResponse, error) {
	t, err := m.service.GetType(ctx, req.TypeID)
	if err != nil {
		return TaskTypeResponse{}, err
	}
	return NewTaskTypeResponse(t), nil
}

// handleListTaskTypes handles task type listing.
func (m *TaskModule) handleListTaskTypes(ctx context.Context, req ListTaskTypesRequest, _ *mono.Msg) (ListTaskTypesResponse, error) {
	types, err := m.service.ListTypes(ctx, req.Search)
	if err != nil {
		return ListTaskTypesResponse{}, err
	}

	records := make([]TaskTypeResponse, 0, len(types))
	for i := range types {
		records = append(records, NewTaskTypeResponse(&types[i]))
	}
	return ListTaskTypesResponse{TaskTypes: records, Total: len(records)}, nil
}

// handleUpdateTaskType handles partial task type updates.
func (m *TaskModule) handleUpdateTaskType(ctx context.Context, req UpdateTaskTypeRequest, _ *mono.Msg) (TaskTypeResponse, error) {
	t, err := m.service.UpdateType(ctx, req.TypeID, req.Name, req.Description)
	if err != nil {
		return TaskTypeResponse{}, err
	}
	return NewTaskTypeResponse(t), nil
}

// handleDeleteTaskType handles task type deletion.
func (m *TaskModule) handleDeleteTaskType(ctx context.Context, req DeleteTaskTypeRequest, _ *mono.Msg) (DeleteTaskTypeResponse, error) {
	if err := m.service.DeleteType(ctx, req.TypeID); err != nil {
		return DeleteTaskTypeResponse{}, err
	}
	return DeleteTaskTypeResponse{Deleted: true}, nil
}

// handleAssignTask handles additive assignment of users to a task.
func (m *TaskModule) handleAssignTask(ctx context.Context, req AssignTaskRequest, _ *mono.Msg) (AssignTaskResponse, error) {
	assignments, err := m.service.AssignUsers(ctx, req.TaskID, req.UserIDs, req.ActingUserID)
	if err != nil {
		return AssignTaskResponse{}, err
	}

	records := make([]AssignmentRecord, 0, len(assignments))
	for _, a := range assignments {
		records = append(records, AssignmentRecord{
			ID:           a.ID,
			TaskID:       a.TaskID,
			UserID:       a.UserID,
			AssignedAt:   a.AssignedAt,
			AssignedByID: a.AssignedByID,
		})
	}
	return AssignTaskResponse{TaskID: req.TaskID, Assignments: records}, nil
}

// handleReconcileAssignees handles assignee set replacement.
func (m *TaskModule) handleReconcileAssignees(ctx context.Context, req ReconcileAssigneesRequest, _ *mono.Msg) (ReconcileAssigneesResponse, error) {
	final, err := m.service.ReconcileAssignees(ctx, req.TaskID, req.UserIDs, req.ActingUserID)
	if err != nil {
		return ReconcileAssigneesResponse{}, err
	}
	return ReconcileAssigneesResponse{TaskID: req.TaskID, UserIDs: final}, nil
}

// handleCompleteTask handles task completion.
func (m *TaskModule) handleCompleteTask(ctx context.Context, req CompleteTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Complete(ctx, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return NewTaskResponse(t), nil
}

// handleCancelTask handles task cancellation.
func (m *TaskModule) handleCancelTask(ctx context.Context, req CancelTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Cancel(ctx, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return NewTaskResponse(t), nil
}

// handleListUserTasks handles listing the tasks assigned to one user.
func (m *TaskModule) handleListUserTasks(ctx context.Context, req ListUserTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListUserTasks(ctx, req.UserID, req.Status)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return newListTasksResponse(tasks), nil
}

func newListTasksResponse(tasks []domain.Task) ListTasksResponse {
	records := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		records = append(records, NewTaskResponse(&tasks[i]))
	}
	return ListTasksResponse{Tasks: records, Total: len(records)}
}
