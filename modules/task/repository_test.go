package task

import (
	"errors"
	"testing"
	"time"

	domain "github.com/example/taskboard/domain/task"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&domain.TaskType{}, &domain.Task{}, &domain.TaskAssignment{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func mustCreateType(t *testing.T, repo *TaskRepository, name string) *domain.TaskType {
	t.Helper()

	taskType := &domain.TaskType{
		ID:   uuid.New().String(),
		Name: name,
	}
	if err := repo.CreateType(taskType); err != nil {
		t.Fatalf("CreateType(%s) error = %v", name, err)
	}
	return taskType
}

func mustCreateTask(t *testing.T, repo *TaskRepository, name string, status domain.Status) *domain.Task {
	t.Helper()

	task := &domain.Task{
		ID:     uuid.New().String(),
		Name:   name,
		Status: status,
	}
	if err := repo.CreateTask(task); err != nil {
		t.Fatalf("CreateTask(%s) error = %v", name, err)
	}
	return task
}

func mustAssign(t *testing.T, repo *TaskRepository, taskID, userID string) *domain.TaskAssignment {
	t.Helper()

	rec, created, err := repo.GetOrCreateAssignment(domain.TaskAssignment{
		ID:         uuid.New().String(),
		TaskID:     taskID,
		UserID:     userID,
		AssignedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("GetOrCreateAssignment(%s, %s) error = %v", taskID, userID, err)
	}
	if !created {
		t.Fatalf("GetOrCreateAssignment(%s, %s) created = false, want true", taskID, userID)
	}
	return rec
}

func TestTaskRepository_CreateType_Duplicate(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	mustCreateType(t, repo, "Bug")

	err := repo.CreateType(&domain.TaskType{ID: uuid.New().String(), Name: "Bug"})
	if !errors.Is(err, ErrTypeNameTaken) {
		t.Errorf("CreateType() error = %v, want %v", err, ErrTypeNameTaken)
	}
}

func TestTaskRepository_UpdateType(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	taskType := mustCreateType(t, repo, "Bug")
	taskType.Name = "Defect"
	taskType.Description = "Broken behavior"

	if err := repo.UpdateType(taskType); err != nil {
		t.Fatalf("UpdateType() error = %v", err)
	}

	stored, err := repo.FindTypeByID(taskType.ID)
	if err != nil {
		t.Fatalf("FindTypeByID() error = %v", err)
	}
	if stored.Name != "Defect" {
		t.Errorf("Name = %v, want Defect", stored.Name)
	}
	if stored.Description != "Broken behavior" {
		t.Errorf("Description = %v, want Broken behavior", stored.Description)
	}
}

func TestTaskRepository_UpdateType_NotFound(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	err := repo.UpdateType(&domain.TaskType{ID: "missing", Name: "Ghost"})
	if !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("UpdateType() error = %v, want %v", err, ErrTypeNotFound)
	}
}

func TestTaskRepository_DeleteType_DetachesTasks(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	taskType := mustCreateType(t, repo, "Chore")
	task := &domain.Task{
		ID:         uuid.New().String(),
		Name:       "Empty the bin",
		Status:     domain.StatusPending,
		TaskTypeID: &taskType.ID,
	}
	if err := repo.CreateTask(task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if err := repo.DeleteType(taskType.ID); err != nil {
		t.Fatalf("DeleteType() error = %v", err)
	}

	if _, err := repo.FindTypeByID(taskType.ID); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("FindTypeByID() error = %v, want %v", err, ErrTypeNotFound)
	}

	stored, err := repo.FindTaskByID(task.ID)
	if err != nil {
		t.Fatalf("FindTaskByID() error = %v", err)
	}
	if stored.TaskTypeID != nil {
		t.Errorf("TaskTypeID = %v, want nil after type deletion", *stored.TaskTypeID)
	}
}

func TestTaskRepository_DeleteType_NotFound(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	if err := repo.DeleteType("missing"); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("DeleteType() error = %v, want %v", err, ErrTypeNotFound)
	}
}

func TestTaskRepository_ListTypes_Search(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	mustCreateType(t, repo, "Bug")
	mustCreateType(t, repo, "Feature")
	mustCreateType(t, repo, "Chore")

	types, err := repo.ListTypes("")
	if err != nil {
		t.Fatalf("ListTypes() error = %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("ListTypes() returned %d types, want 3", len(types))
	}
	// Ordered by name.
	if types[0].Name != "Bug" || types[1].Name != "Chore" || types[2].Name != "Feature" {
		t.Errorf("ListTypes() order = %v, %v, %v", types[0].Name, types[1].Name, types[2].Name)
	}

	types, err = repo.ListTypes("feat")
	if err != nil {
		t.Fatalf("ListTypes(feat) error = %v", err)
	}
	if len(types) != 1 || types[0].Name != "Feature" {
		t.Errorf("ListTypes(feat) = %v, want only Feature", types)
	}
}

func TestTaskRepository_ListTasks_Filters(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	taskType := mustCreateType(t, repo, "Bug")

	now := time.Now()
	seed := []*domain.Task{
		{ID: uuid.New().String(), Name: "Fix login crash", Status: domain.StatusPending, TaskTypeID: &taskType.ID, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: uuid.New().String(), Name: "Write release notes", Status: domain.StatusInProgress, CreatedAt: now.Add(-time.Hour)},
		{ID: uuid.New().String(), Name: "Fix logout crash", Status: domain.StatusCompleted, TaskTypeID: &taskType.ID, CreatedAt: now},
	}
	for _, task := range seed {
		if err := repo.CreateTask(task); err != nil {
			t.Fatalf("CreateTask(%s) error = %v", task.Name, err)
		}
	}

	tests := []struct {
		name      string
		status    domain.Status
		typeID    string
		search    string
		wantNames []string
	}{
		{
			name:      "no filters newest first",
			wantNames: []string{"Fix logout crash", "Write release notes", "Fix login crash"},
		},
		{
			name:      "by status",
			status:    domain.StatusPending,
			wantNames: []string{"Fix login crash"},
		},
		{
			name:      "by type",
			typeID:    taskType.ID,
			wantNames: []string{"Fix logout crash", "Fix login crash"},
		},
		{
			name:      "by search",
			search:    "crash",
			wantNames: []string{"Fix logout crash", "Fix login crash"},
		},
		{
			name:      "status and type combined",
			status:    domain.StatusCompleted,
			typeID:    taskType.ID,
			wantNames: []string{"Fix logout crash"},
		},
		{
			name:      "no matches",
			search:    "nonexistent",
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := repo.ListTasks(tt.status, tt.typeID, tt.search)
			if err != nil {
				t.Fatalf("ListTasks() error = %v", err)
			}
			if len(tasks) != len(tt.wantNames) {
				t.Fatalf("ListTasks() returned %d tasks, want %d", len(tasks), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if tasks[i].Name != want {
					t.Errorf("tasks[%d].Name = %v, want %v", i, tasks[i].Name, want)
				}
			}
		})
	}
}

func TestTaskRepository_ListTasksForUser(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	first := mustCreateTask(t, repo, "First", domain.StatusPending)
	second := mustCreateTask(t, repo, "Second", domain.StatusCompleted)
	mustCreateTask(t, repo, "Unassigned", domain.StatusPending)

	mustAssign(t, repo, first.ID, "user-1")
	mustAssign(t, repo, second.ID, "user-1")
	mustAssign(t, repo, second.ID, "user-2")

	tasks, err := repo.ListTasksForUser("user-1", "")
	if err != nil {
		t.Fatalf("ListTasksForUser() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("ListTasksForUser() returned %d tasks, want 2", len(tasks))
	}

	tasks, err = repo.ListTasksForUser("user-1", domain.StatusCompleted)
	if err != nil {
		t.Fatalf("ListTasksForUser(completed) error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != second.ID {
		t.Errorf("ListTasksForUser(completed) = %v, want only the completed task", tasks)
	}

	tasks, err = repo.ListTasksForUser("user-3", "")
	if err != nil {
		t.Fatalf("ListTasksForUser(user-3) error = %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("ListTasksForUser(user-3) returned %d tasks, want 0", len(tasks))
	}
}

func TestTaskRepository_DeleteTask_RemovesAssignments(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	task := mustCreateTask(t, repo, "Doomed", domain.StatusPending)
	mustAssign(t, repo, task.ID, "user-1")
	mustAssign(t, repo, task.ID, "user-2")

	if err := repo.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}

	if _, err := repo.FindTaskByID(task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("FindTaskByID() error = %v, want %v", err, ErrTaskNotFound)
	}

	assignments, err := repo.AssignmentsForTask(task.ID)
	if err != nil {
		t.Fatalf("AssignmentsForTask() error = %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("AssignmentsForTask() returned %d assignments, want 0", len(assignments))
	}
}

func TestTaskRepository_DeleteTask_NotFound(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	if err := repo.DeleteTask("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("DeleteTask() error = %v, want %v", err, ErrTaskNotFound)
	}
}

func TestTaskRepository_GetOrCreateAssignment(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	task := mustCreateTask(t, repo, "Shared", domain.StatusPending)

	first, created, err := repo.GetOrCreateAssignment(domain.TaskAssignment{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		UserID:     "user-1",
		AssignedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("GetOrCreateAssignment() error = %v", err)
	}
	if !created {
		t.Error("first GetOrCreateAssignment() created = false, want true")
	}

	// Same pairing again keeps the stored row.
	second, created, err := repo.GetOrCreateAssignment(domain.TaskAssignment{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		UserID:     "user-1",
		AssignedAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("repeat GetOrCreateAssignment() error = %v", err)
	}
	if created {
		t.Error("repeat GetOrCreateAssignment() created = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("repeat returned ID %v, want original %v", second.ID, first.ID)
	}

	assignments, err := repo.AssignmentsForTask(task.ID)
	if err != nil {
		t.Fatalf("AssignmentsForTask() error = %v", err)
	}
	if len(assignments) != 1 {
		t.Errorf("AssignmentsForTask() returned %d assignments, want 1", len(assignments))
	}
}

func TestTaskRepository_ReconcileAssignments(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	task := mustCreateTask(t, repo, "Rotating", domain.StatusPending)
	assignedBy := "manager-1"

	alice := mustAssign(t, repo, task.ID, "alice")
	survivor, created, err := repo.GetOrCreateAssignment(domain.TaskAssignment{
		ID:           uuid.New().String(),
		TaskID:       task.ID,
		UserID:       "bob",
		AssignedAt:   time.Now().Add(-time.Hour),
		AssignedByID: &assignedBy,
	})
	if err != nil || !created {
		t.Fatalf("seed assignment for bob failed: created = %v, err = %v", created, err)
	}

	// {alice, bob} -> {bob, carol}: alice removed, bob untouched, carol added.
	newRecords, err := repo.ReconcileAssignments(task.ID, []string{"bob", "carol"}, func(userID string) domain.TaskAssignment {
		return domain.TaskAssignment{
			ID:         uuid.New().String(),
			TaskID:     task.ID,
			UserID:     userID,
			AssignedAt: time.Now(),
		}
	})
	if err != nil {
		t.Fatalf("ReconcileAssignments() error = %v", err)
	}
	if len(newRecords) != 1 || newRecords[0].UserID != "carol" {
		t.Fatalf("ReconcileAssignments() created = %v, want only carol", newRecords)
	}

	assignments, err := repo.AssignmentsForTask(task.ID)
	if err != nil {
		t.Fatalf("AssignmentsForTask() error = %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("AssignmentsForTask() returned %d assignments, want 2", len(assignments))
	}

	byUser := make(map[string]domain.TaskAssignment, len(assignments))
	for _, a := range assignments {
		byUser[a.UserID] = a
	}
	if _, ok := byUser["alice"]; ok {
		t.Errorf("alice still assigned after reconcile, her row was %v", alice.ID)
	}

	bob, ok := byUser["bob"]
	if !ok {
		t.Fatal("bob missing after reconcile")
	}
	if bob.ID != survivor.ID {
		t.Errorf("bob's row ID = %v, want original %v", bob.ID, survivor.ID)
	}
	if bob.AssignedByID == nil || *bob.AssignedByID != assignedBy {
		t.Errorf("bob's AssignedByID = %v, want %v", bob.AssignedByID, assignedBy)
	}
	if bob.AssignedAt.Unix() != survivor.AssignedAt.Unix() {
		t.Errorf("bob's AssignedAt = %v, want original %v", bob.AssignedAt, survivor.AssignedAt)
	}

	if _, ok := byUser["carol"]; !ok {
		t.Error("carol missing after reconcile")
	}
}

func TestTaskRepository_ReconcileAssignments_Idempotent(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	task := mustCreateTask(t, repo, "Steady", domain.StatusPending)
	mustAssign(t, repo, task.ID, "alice")
	mustAssign(t, repo, task.ID, "bob")

	before, err := repo.AssignmentsForTask(task.ID)
	if err != nil {
		t.Fatalf("AssignmentsForTask() error = %v", err)
	}

	newRecords, err := repo.ReconcileAssignments(task.ID, []string{"alice", "bob"}, func(userID string) domain.TaskAssignment {
		return domain.TaskAssignment{
			ID:         uuid.New().String(),
			TaskID:     task.ID,
			UserID:     userID,
			AssignedAt: time.Now(),
		}
	})
	if err != nil {
		t.Fatalf("ReconcileAssignments() error = %v", err)
	}
	if len(newRecords) != 0 {
		t.Errorf("ReconcileAssignments() created %d records, want 0", len(newRecords))
	}

	after, err := repo.AssignmentsForTask(task.ID)
	if err != nil {
		t.Fatalf("AssignmentsForTask() error = %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("assignment count changed from %d to %d", len(before), len(after))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Errorf("assignment %d row ID changed from %v to %v", i, before[i].ID, after[i].ID)
		}
	}
}

func TestTaskRepository_FindTaskWithAssignments(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))

	task := mustCreateTask(t, repo, "Loaded", domain.StatusPending)
	mustAssign(t, repo, task.ID, "user-1")

	stored, err := repo.FindTaskWithAssignments(task.ID)
	if err != nil {
		t.Fatalf("FindTaskWithAssignments() error = %v", err)
	}
	if len(stored.Assignments) != 1 || stored.Assignments[0].UserID != "user-1" {
		t.Errorf("Assignments = %v, want one for user-1", stored.Assignments)
	}

	if _, err := repo.FindTaskWithAssignments("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("FindTaskWithAssignments(missing) error = %v, want %v", err, ErrTaskNotFound)
	}
}
