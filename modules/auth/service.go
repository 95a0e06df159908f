package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"time"

	domain "github.com/example/taskboard/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserDisabled is returned when a deactivated user attempts to log in.
	ErrUserDisabled = errors.New("user account is disabled")
	// ErrInvalidUsername is returned when the username format is invalid.
	ErrInvalidUsername = errors.New("username must be 3-50 characters of letters, digits, dot, dash or underscore")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// RegisterParams carries the fields accepted at account creation.
// Username and Password are required; the rest is optional profile data.
type RegisterParams struct {
	Username string
	Password string
	Email    string
	Name     string
	Mobile   string
}

// ResolveResult is the outcome of a batch user lookup: the users that
// resolved and the sorted ids that did not.
type ResolveResult struct {
	Found   []domain.User
	Missing []string
}

// AuthService handles authentication and user directory logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new active user account.
func (s *AuthService) Register(_ context.Context, params RegisterParams) (*domain.User, error) {
	if !validUsername(params.Username) {
		return nil, ErrInvalidUsername
	}

	// bcrypt has a 72-byte input limit
	if len(params.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(params.Password) > 72 {
		return nil, ErrPasswordTooLong
	}

	if params.Email != "" {
		if _, err := mail.ParseAddress(params.Email); err != nil {
			return nil, ErrInvalidEmail
		}
	}

	exists, err := s.repo.UsernameExists(params.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     params.Username,
		Email:        params.Email,
		Name:         params.Name,
		Mobile:       params.Mobile,
		IsActive:     true,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns tokens. Deactivated accounts are
// rejected even with correct credentials.
func (s *AuthService) Login(_ context.Context, username, password string) (*domain.TokenPair, error) {
	user, err := s.repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	return s.generateTokenPair(user.ID, user.Username)
}

// RefreshTokens generates new access and refresh tokens.
func (s *AuthService) RefreshTokens(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// Verify user still exists and is still active
	user, err := s.repo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	return s.generateTokenPair(user.ID, user.Username)
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(userID)
}

// ListUsers returns users matching the optional active filter and search term.
func (s *AuthService) ListUsers(_ context.Context, isActive *bool, search string) ([]domain.User, error) {
	return s.repo.List(isActive, search)
}

// ResolveUsers looks up a batch of user ids. Every id that does not
// resolve is collected into Missing; the call itself only fails on storage
// errors.
func (s *AuthService) ResolveUsers(_ context.Context, ids []string) (*ResolveResult, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.repo.FindByIDs(unique)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}

	resolved := make(map[string]struct{}, len(found))
	for _, u := range found {
		resolved[u.ID] = struct{}{}
	}

	var missing []string
	for _, id := range unique {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	return &ResolveResult{Found: found, Missing: missing}, nil
}

// generateTokenPair generates both access and refresh tokens.
func (s *AuthService) generateTokenPair(userID, username string) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

// validUsername reports whether the username satisfies the account rules.
func validUsername(username string) bool {
	if len(username) < 3 || len(username) > 50 {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
