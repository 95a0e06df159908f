package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	domain "github.com/example/taskboard/domain/task"
	userdomain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/events"
	"github.com/example/taskboard/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
)

var (
	// ErrInvalidStatus is returned when a status value is outside the known set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrCompletedOnCreate is returned when a task is created directly in completed status.
	ErrCompletedOnCreate = errors.New("a task cannot be created with status completed")
	// ErrEmptyAssigneeSet is returned when an assignment operation receives no user ids.
	ErrEmptyAssigneeSet = errors.New("at least one user id is required")
)

// UnknownUsersError reports every user id in an assignment request that did
// not resolve to an existing user. Nothing is mutated when it is returned.
type UnknownUsersError struct {
	MissingIDs []string
}

func (e *UnknownUsersError) Error() string {
	return fmt.Sprintf("users with these ids do not exist: %s", strings.Join(e.MissingIDs, ", "))
}

// UnknownTypeError reports a task create/update referencing a task type id
// with no backing record. It is a validation failure, distinct from looking
// up a task type resource directly.
type UnknownTypeError struct {
	TypeID string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("task type with this id does not exist: %s", e.TypeID)
}

// CreateTaskParams carries the fields accepted at task creation. An empty
// Status means pending.
type CreateTaskParams struct {
	Name        string
	Description string
	Status      string
	TaskTypeID  *string
}

// UpdateTaskParams carries a partial task update. Nil pointers leave the
// field untouched; a pointer to the empty string on TaskTypeID clears the
// type.
type UpdateTaskParams struct {
	TaskID      string
	Name        *string
	Description *string
	Status      *string
	TaskTypeID  *string
}

// Detail bundles everything the presentation layer needs for one task:
// the task with assignments, its type if any, and the user summaries
// referenced by the assignments.
type Detail struct {
	Task  *domain.Task
	Type  *domain.TaskType
	Users map[string]userdomain.Summary
}

// TaskService implements the task rules: the status lifecycle, the
// assignment reconciler and the additive assign, plus plain type and task
// CRUD. Completion stamping happens here, inside the write that changes
// the status; there is no save hook behind it.
type TaskService struct {
	repo     *TaskRepository
	users    auth.AuthPort
	eventBus mono.EventBus
}

// NewTaskService creates a new TaskService. eventBus may be nil, in which
// case no events are published.
func NewTaskService(repo *TaskRepository, users auth.AuthPort, eventBus mono.EventBus) *TaskService {
	return &TaskService{
		repo:     repo,
		users:    users,
		eventBus: eventBus,
	}
}

// --- task types ---

// CreateType creates a new task type. The name must be unique.
func (s *TaskService) CreateType(_ context.Context, name, description string) (*domain.TaskType, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	t := &domain.TaskType{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
	}
	if err := s.repo.CreateType(t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetType retrieves a task type by id.
func (s *TaskService) GetType(_ context.Context, id string) (*domain.TaskType, error) {
	return s.repo.FindTypeByID(id)
}

// ListTypes lists task types, optionally filtered by a search term.
func (s *TaskService) ListTypes(_ context.Context, search string) ([]domain.TaskType, error) {
	return s.repo.ListTypes(search)
}

// UpdateType applies a partial update to a task type.
func (s *TaskService) UpdateType(_ context.Context, id string, name, description *string) (*domain.TaskType, error) {
	t, err := s.repo.FindTypeByID(id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" {
			return nil, fmt.Errorf("name is required")
		}
		t.Name = *name
	}
	if description != nil {
		t.Description = *description
	}

	if err := s.repo.UpdateType(t); err != nil {
		return nil, err
	}
	return s.repo.FindTypeByID(id)
}

// DeleteType removes a task type; referencing tasks keep existing with
// their type cleared.
func (s *TaskService) DeleteType(_ context.Context, id string) error {
	return s.repo.DeleteType(id)
}

// --- tasks ---

// CreateTask creates a task. Status defaults to pending; an explicit
// initial status must be valid and must not be completed. A referenced
// task type must exist.
func (s *TaskService) CreateTask(_ context.Context, params CreateTaskParams) (*domain.Task, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	status := domain.StatusPending
	if params.Status != "" {
		status = domain.Status(params.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, params.Status)
		}
		if status == domain.StatusCompleted {
			return nil, ErrCompletedOnCreate
		}
	}

	if params.TaskTypeID != nil && *params.TaskTypeID != "" {
		if _, err := s.repo.FindTypeByID(*params.TaskTypeID); err != nil {
			if errors.Is(err, ErrTypeNotFound) {
				return nil, &UnknownTypeError{TypeID: *params.TaskTypeID}
			}
			return nil, err
		}
	} else {
		params.TaskTypeID = nil
	}

	t := &domain.Task{
		ID:          uuid.New().String(),
		Name:        params.Name,
		Description: params.Description,
		Status:      status,
		TaskTypeID:  params.TaskTypeID,
	}
	if err := s.repo.CreateTask(t); err != nil {
		return nil, err
	}

	s.publishCreated(t)
	return t, nil
}

// GetTask retrieves a task with its assignments, without resolving user
// summaries.
func (s *TaskService) GetTask(_ context.Context, id string) (*domain.Task, error) {
	return s.repo.FindTaskWithAssignments(id)
}

// TaskDetail retrieves a task with assignments, its type and the user
// summaries behind every assignee and assigner.
func (s *TaskService) TaskDetail(ctx context.Context, id string) (*Detail, error) {
	t, err := s.repo.FindTaskWithAssignments(id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Task: t, Users: map[string]userdomain.Summary{}}

	if t.TaskTypeID != nil {
		tt, err := s.repo.FindTypeByID(*t.TaskTypeID)
		if err != nil && !errors.Is(err, ErrTypeNotFound) {
			return nil, err
		}
		detail.Type = tt
	}

	ids := make([]string, 0, len(t.Assignments)*2)
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
		if a.AssignedByID != nil {
			ids = append(ids, *a.AssignedByID)
		}
	}
	if len(ids) > 0 {
		summaries, _, err := s.users.ResolveUsers(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignment users: %w", err)
		}
		for _, summary := range summaries {
			detail.Users[summary.ID] = summary
		}
	}

	return detail, nil
}

// ListTasks lists tasks with optional status, type and search filters.
func (s *TaskService) ListTasks(_ context.Context, status, typeID, search string) ([]domain.Task, error) {
	var st domain.Status
	if status != "" {
		st = domain.Status(status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
		}
	}
	return s.repo.ListTasks(st, typeID, search)
}

// ListUserTasks lists the tasks a user is assigned to, optionally filtered
// by status. The user must exist.
func (s *TaskService) ListUserTasks(ctx context.Context, userID, status string) ([]domain.Task, error) {
	var st domain.Status
	if status != "" {
		st = domain.Status(status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
		}
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	return s.repo.ListTasksForUser(userID, st)
}

// UpdateTask applies a partial update. A status change goes through the
// same completion rule as UpdateStatus: reaching completed stamps
// CompletedAt when it is still unset, in the same write.
func (s *TaskService) UpdateTask(_ context.Context, params UpdateTaskParams) (*domain.Task, error) {
	t, err := s.repo.FindTaskByID(params.TaskID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, fmt.Errorf("name is required")
		}
		t.Name = *params.Name
	}
	if params.Description != nil {
		t.Description = *params.Description
	}
	if params.TaskTypeID != nil {
		if *params.TaskTypeID == "" {
			t.TaskTypeID = nil
		} else {
			if _, err := s.repo.FindTypeByID(*params.TaskTypeID); err != nil {
				if errors.Is(err, ErrTypeNotFound) {
					return nil, &UnknownTypeError{TypeID: *params.TaskTypeID}
				}
				return nil, err
			}
			t.TaskTypeID = params.TaskTypeID
		}
	}

	from := t.Status
	if params.Status != nil {
		st := domain.Status(*params.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *params.Status)
		}
		applyStatus(t, st)
	}

	if err := s.repo.SaveTask(t); err != nil {
		return nil, err
	}

	if from != t.Status {
		s.publishStatusChanged(t, from)
	}
	return t, nil
}

// Complete marks a task completed. The first completion stamps
// CompletedAt; repeating the call leaves the stamp untouched.
func (s *TaskService) Complete(_ context.Context, id string) (*domain.Task, error) {
	t, err := s.repo.FindTaskByID(id)
	if err != nil {
		return nil, err
	}

	from := t.Status
	applyStatus(t, domain.StatusCompleted)
	if err := s.repo.SaveTask(t); err != nil {
		return nil, err
	}

	if from != t.Status {
		s.publishStatusChanged(t, from)
	}
	return t, nil
}

// Cancel marks a task cancelled. No timestamp side effect.
func (s *TaskService) Cancel(_ context.Context, id string) (*domain.Task, error) {
	t, err := s.repo.FindTaskByID(id)
	if err != nil {
		return nil, err
	}

	from := t.Status
	applyStatus(t, domain.StatusCancelled)
	if err := s.repo.SaveTask(t); err != nil {
		return nil, err
	}

	if from != t.Status {
		s.publishStatusChanged(t, from)
	}
	return t, nil
}

// DeleteTask removes a task together with its assignments.
func (s *TaskService) DeleteTask(_ context.Context, id string) error {
	return s.repo.DeleteTask(id)
}

// --- assignments ---

// AssignUsers is the additive assignment: each listed user is
// get-or-create assigned to the task and nobody is removed, regardless of
// who else is currently assigned. Every id must resolve to an existing
// user.
func (s *TaskService) AssignUsers(ctx context.Context, taskID string, userIDs []string, actingUserID string) ([]domain.TaskAssignment, error) {
	if _, err := s.repo.FindTaskByID(taskID); err != nil {
		return nil, err
	}

	desired, err := s.resolveAssignees(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	assignedBy := assignerRef(actingUserID)
	now := time.Now()
	for _, userID := range desired {
		candidate := domain.TaskAssignment{
			ID:           uuid.New().String(),
			TaskID:       taskID,
			UserID:       userID,
			AssignedAt:   now,
			AssignedByID: assignedBy,
		}
		rec, created, err := s.repo.GetOrCreateAssignment(candidate)
		if err != nil {
			return nil, err
		}
		if created {
			s.publishAssigned(rec)
		}
	}

	return s.repo.AssignmentsForTask(taskID)
}

// ReconcileAssignees replaces the task's assignee set with the desired
// set, atomically: assignments outside the set are deleted, missing ones
// are created with the acting user recorded as assigner, and surviving
// ones keep their original assigned-at and assigned-by. Validation
// failures (empty set, unknown ids) abort before any mutation.
func (s *TaskService) ReconcileAssignees(ctx context.Context, taskID string, userIDs []string, actingUserID string) ([]string, error) {
	if _, err := s.repo.FindTaskByID(taskID); err != nil {
		return nil, err
	}

	desired, err := s.resolveAssignees(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	assignedBy := assignerRef(actingUserID)
	now := time.Now()
	created, err := s.repo.ReconcileAssignments(taskID, desired, func(userID string) domain.TaskAssignment {
		return domain.TaskAssignment{
			ID:           uuid.New().String(),
			TaskID:       taskID,
			UserID:       userID,
			AssignedAt:   now,
			AssignedByID: assignedBy,
		}
	})
	if err != nil {
		return nil, err
	}

	for i := range created {
		s.publishAssigned(&created[i])
	}

	assignments, err := s.repo.AssignmentsForTask(taskID)
	if err != nil {
		return nil, err
	}
	final := make([]string, 0, len(assignments))
	for _, a := range assignments {
		final = append(final, a.UserID)
	}
	sort.Strings(final)
	return final, nil
}

// resolveAssignees validates an assignment id list: it must be non-empty
// and every id must reference an existing user. Unknown ids are collected
// into a single UnknownUsersError. Returns the deduplicated id list.
func (s *TaskService) resolveAssignees(ctx context.Context, userIDs []string) ([]string, error) {
	unique := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, ErrEmptyAssigneeSet
	}

	_, missing, err := s.users.ResolveUsers(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	if len(missing) > 0 {
		return nil, &UnknownUsersError{MissingIDs: missing}
	}

	return unique, nil
}

// applyStatus is the single place a task's status changes. Reaching
// completed stamps CompletedAt when unset; the stamp is never cleared or
// overwritten, so repeating a completion keeps the original time and
// moving a completed task elsewhere preserves history.
func applyStatus(t *domain.Task, to domain.Status) {
	t.Status = to
	if to == domain.StatusCompleted && t.CompletedAt == nil {
		now := time.Now()
		t.CompletedAt = &now
	}
}

// assignerRef converts an acting user id into the nullable assigned-by
// reference stored on assignments.
func assignerRef(actingUserID string) *string {
	if actingUserID == "" {
		return nil
	}
	return &actingUserID
}

// --- events ---

func (s *TaskService) publishCreated(t *domain.Task) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskCreatedEvent{
		TaskID:    t.ID,
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
	if err := events.TaskCreatedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
	}
}

func (s *TaskService) publishStatusChanged(t *domain.Task, from domain.Status) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskStatusChangedEvent{
		TaskID:      t.ID,
		Name:        t.Name,
		FromStatus:  string(from),
		ToStatus:    string(t.Status),
		CompletedAt: t.CompletedAt,
		ChangedAt:   time.Now(),
	}
	if err := events.TaskStatusChangedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskStatusChanged event for task %s: %v", t.ID, err)
	}
}

func (s *TaskService) publishAssigned(a *domain.TaskAssignment) {
	if s.eventBus == nil {
		return
	}
	event := events.TaskAssignedEvent{
		TaskID:       a.TaskID,
		UserID:       a.UserID,
		AssignedByID: a.AssignedByID,
		AssignedAt:   a.AssignedAt,
	}
	if err := events.TaskAssignedV1.Publish(s.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskAssigned event for task %s: %v", a.TaskID, err)
	}
}
