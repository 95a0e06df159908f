package auth

import (
	"errors"

	domain "github.com/example/taskboard/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this username already exists")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *UserRepository) Create(user *domain.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(id string) (*domain.User, error) {
	var user domain.User
	result := r.db.First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindByUsername finds a user by username.
func (r *UserRepository) FindByUsername(username string) (*domain.User, error) {
	var user domain.User
	result := r.db.First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindByIDs returns every user whose ID is in the given list. IDs with no
// matching row are simply absent from the result; callers diff the sets.
func (r *UserRepository) FindByIDs(ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []domain.User
	result := r.db.Where("id IN ?", ids).Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

// List returns users ordered by username. isActive filters on the active
// flag when non-nil; a non-empty search term matches username, email, name
// or mobile.
func (r *UserRepository) List(isActive *bool, search string) ([]domain.User, error) {
	query := r.db.Model(&domain.User{})
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"username LIKE ? OR email LIKE ? OR name LIKE ? OR mobile LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var users []domain.User
	result := query.Order("username ASC").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

// UsernameExists checks if a user with the given username exists.
func (r *UserRepository) UsernameExists(username string) (bool, error) {
	var count int64
	result := r.db.Model(&domain.User{}).Where("username = ?", username).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}
