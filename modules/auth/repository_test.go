package auth

import (
	"errors"
	"testing"

	domain "github.com/example/taskboard/domain/user"
	"github.com/google/uuid"
)

func newTestUser(username string) *domain.User {
	return &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "x",
		IsActive:     true,
	}
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	if err := repo.Create(newTestUser("alice")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(newTestUser("alice"))
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	_, err := repo.FindByID("missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_FindByUsername(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	user := newTestUser("alice")
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("found.ID = %v, want %v", found.ID, user.ID)
	}

	if _, err := repo.FindByUsername("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_FindByIDs(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	alice := newTestUser("alice")
	bob := newTestUser("bob")
	for _, u := range []*domain.User{alice, bob} {
		if err := repo.Create(u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	// Empty input is not an error
	users, err := repo.FindByIDs(nil)
	if err != nil {
		t.Fatalf("FindByIDs(nil) error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("len(users) = %v, want 0", len(users))
	}

	// Unknown ids are simply absent from the result
	users, err = repo.FindByIDs([]string{alice.ID, "ghost", bob.ID})
	if err != nil {
		t.Fatalf("FindByIDs() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %v, want 2", len(users))
	}
}

func TestUserRepository_UsernameExists(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	if err := repo.Create(newTestUser("alice")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	exists, err := repo.UsernameExists("alice")
	if err != nil {
		t.Fatalf("UsernameExists() error = %v", err)
	}
	if !exists {
		t.Error("UsernameExists(alice) = false, want true")
	}

	exists, err = repo.UsernameExists("nobody")
	if err != nil {
		t.Fatalf("UsernameExists() error = %v", err)
	}
	if exists {
		t.Error("UsernameExists(nobody) = true, want false")
	}
}
