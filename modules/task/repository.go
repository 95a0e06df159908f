package task

import (
	"errors"
	"fmt"

	domain "github.com/example/taskboard/domain/task"
	"gorm.io/gorm"
)

var (
	// ErrTaskNotFound is returned when a task is not found.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTypeNotFound is returned when a task type is not found.
	ErrTypeNotFound = errors.New("task type not found")
	// ErrTypeNameTaken is returned when a task type name is already in use.
	ErrTypeNameTaken = errors.New("task type with this name already exists")
)

// TaskRepository handles task, task type and assignment persistence using
// GORM. Referential rules (nulling task types, removing assignments with
// their task) are enforced here inside transactions rather than by
// database-level cascade.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// --- task types ---

// CreateType saves a new task type.
func (r *TaskRepository) CreateType(t *domain.TaskType) error {
	if err := r.db.Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTypeNameTaken
		}
		return fmt.Errorf("failed to create task type: %w", err)
	}
	return nil
}

// FindTypeByID retrieves a task type by its ID.
func (r *TaskRepository) FindTypeByID(id string) (*domain.TaskType, error) {
	var t domain.TaskType
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTypeNotFound
		}
		return nil, fmt.Errorf("failed to find task type: %w", err)
	}
	return &t, nil
}

// ListTypes retrieves task types ordered by name, optionally filtered by a
// search term over name and description.
func (r *TaskRepository) ListTypes(search string) ([]domain.TaskType, error) {
	query := r.db.Model(&domain.TaskType{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var types []domain.TaskType
	if err := query.Order("name ASC").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to list task types: %w", err)
	}
	return types, nil
}

// UpdateType saves changes to an existing task type.
func (r *TaskRepository) UpdateType(t *domain.TaskType) error {
	result := r.db.Model(&domain.TaskType{}).Where("id = ?", t.ID).
		Updates(map[string]any{
			"name":        t.Name,
			"description": t.Description,
		})
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTypeNameTaken
		}
		return fmt.Errorf("failed to update task type: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTypeNotFound
	}
	return nil
}

// DeleteType removes a task type. Tasks referencing it keep existing with
// their type cleared, performed in the same transaction as the delete.
func (r *TaskRepository) DeleteType(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Task{}).
			Where("task_type_id = ?", id).
			Update("task_type_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach tasks from type: %w", err)
		}

		result := tx.Delete(&domain.TaskType{}, "id = ?", id)
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete task type: %w", err)
		}
		if result.RowsAffected == 0 {
			return ErrTypeNotFound
		}
		return nil
	})
}

// --- tasks ---

// CreateTask saves a new task.
func (r *TaskRepository) CreateTask(t *domain.Task) error {
	if err := r.db.Omit("Assignments").Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindTaskByID retrieves a task without its assignments. Used by mutation
// paths so that a later save never touches assignment rows.
func (r *TaskRepository) FindTaskByID(id string) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// FindTaskWithAssignments retrieves a task with its assignments preloaded.
func (r *TaskRepository) FindTaskWithAssignments(id string) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.Preload("Assignments").First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// ListTasks retrieves tasks newest first with assignments preloaded.
// status and typeID filter when non-empty; search matches name and
// description.
func (r *TaskRepository) ListTasks(status domain.Status, typeID, search string) ([]domain.Task, error) {
	query := r.db.Model(&domain.Task{}).Preload("Assignments")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if typeID != "" {
		query = query.Where("task_type_id = ?", typeID)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var tasks []domain.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListTasksForUser retrieves the tasks a user is assigned to, newest
// first, optionally filtered by status.
func (r *TaskRepository) ListTasksForUser(userID string, status domain.Status) ([]domain.Task, error) {
	query := r.db.Model(&domain.Task{}).Preload("Assignments").
		Joins("JOIN task_assignments ON task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID)
	if status != "" {
		query = query.Where("tasks.status = ?", status)
	}

	var tasks []domain.Task
	if err := query.Order("tasks.created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks for user: %w", err)
	}
	return tasks, nil
}

// SaveTask persists the current state of a task loaded via FindTaskByID.
// Assignments are never written through this path.
func (r *TaskRepository) SaveTask(t *domain.Task) error {
	if err := r.db.Omit("Assignments").Save(t).Error; err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// DeleteTask removes a task and its assignments in one transaction.
func (r *TaskRepository) DeleteTask(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.TaskAssignment{}, "task_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete task assignments: %w", err)
		}

		result := tx.Delete(&domain.Task{}, "id = ?", id)
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

// --- assignments ---

// AssignmentsForTask retrieves a task's assignments oldest first.
func (r *TaskRepository) AssignmentsForTask(taskID string) ([]domain.TaskAssignment, error) {
	var assignments []domain.TaskAssignment
	if err := r.db.Where("task_id = ?", taskID).
		Order("assigned_at ASC").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// GetOrCreateAssignment ensures the (task, user) pairing of the candidate
// exists. When the pairing is already present the stored record is
// returned untouched; a duplicate-key race on insert is absorbed by
// re-reading the winner's row. The second return reports whether a row was
// created.
func (r *TaskRepository) GetOrCreateAssignment(candidate domain.TaskAssignment) (*domain.TaskAssignment, bool, error) {
	return getOrCreateAssignment(r.db, candidate)
}

// ReconcileAssignments atomically replaces the assignee set of a task:
// assignments for users outside desiredUserIDs are deleted and a candidate
// built via build is inserted for every desired user without one. Existing
// pairings keep their original row. A failure rolls the whole set change
// back. Returns the newly created assignments.
func (r *TaskRepository) ReconcileAssignments(taskID string, desiredUserIDs []string, build func(userID string) domain.TaskAssignment) ([]domain.TaskAssignment, error) {
	var created []domain.TaskAssignment

	err := r.db.Transaction(func(tx *gorm.DB) error {
		created = nil

		if err := tx.Where("task_id = ? AND user_id NOT IN ?", taskID, desiredUserIDs).
			Delete(&domain.TaskAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to remove stale assignments: %w", err)
		}

		for _, userID := range desiredUserIDs {
			rec, wasCreated, err := getOrCreateAssignment(tx, build(userID))
			if err != nil {
				return err
			}
			if wasCreated {
				created = append(created, *rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// getOrCreateAssignment is the shared get-or-create step used both
// standalone and inside the reconcile transaction.
func getOrCreateAssignment(db *gorm.DB, candidate domain.TaskAssignment) (*domain.TaskAssignment, bool, error) {
	var existing domain.TaskAssignment
	err := db.First(&existing, "task_id = ? AND user_id = ?", candidate.TaskID, candidate.UserID).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up assignment: %w", err)
	}

	if err := db.Create(&candidate).Error; err != nil {
		// A concurrent writer inserted the same pairing first; the end
		// state matches intent, so adopt the stored row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := db.First(&existing, "task_id = ? AND user_id = ?", candidate.TaskID, candidate.UserID).Error; err != nil {
				return nil, false, fmt.Errorf("failed to reload assignment after duplicate insert: %w", err)
			}
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create assignment: %w", err)
	}
	return &candidate, true, nil
}
