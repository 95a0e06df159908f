package auth

import (
	"time"

	domain "github.com/example/taskboard/domain/user"
)

// UserRecord is the full directory projection of a user. It never carries
// credential material.
type UserRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Mobile    string    `json:"mobile,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserRecord builds the directory projection from a domain user.
func NewUserRecord(u *domain.User) UserRecord {
	return UserRecord{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Mobile:    u.Mobile,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest represents an account creation request.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
}

// RegisterResponse represents an account creation response.
type RegisterResponse struct {
	User UserRecord `json:"user"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a user login response with tokens.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse represents a token refresh response.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	User UserRecord `json:"user"`
}

// ListUsersRequest represents a user directory listing request.
type ListUsersRequest struct {
	IsActive *bool  `json:"is_active,omitempty"`
	Search   string `json:"search,omitempty"`
}

// ListUsersResponse represents a user directory listing response.
type ListUsersResponse struct {
	Users []UserRecord `json:"users"`
	Total int          `json:"total"`
}

// ResolveUsersRequest represents a batch user lookup request.
type ResolveUsersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// ResolveUsersResponse represents a batch user lookup response. MissingIDs
// lists, sorted, every requested id that did not resolve.
type ResolveUsersResponse struct {
	Users      []domain.Summary `json:"users"`
	MissingIDs []string         `json:"missing_ids,omitempty"`
}
