package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/taskboard/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication and user directory
// operations. This is the port that other modules use to reach the auth
// module.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*UserRecord, error)
	ListUsers(ctx context.Context, isActive *bool, search string) ([]UserRecord, error)
	// ResolveUsers returns the summaries of every id that resolved and the
	// sorted list of ids that did not.
	ResolveUsers(ctx context.Context, userIDs []string) ([]domain.Summary, []string, error)
}

// authAdapter implements AuthPort using the service container.
type authAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new adapter for auth services.
// container is the ServiceContainer from the auth module received via
// SetDependencyServiceContainer.
func NewAuthAdapter(container mono.ServiceContainer) AuthPort {
	if container == nil {
		panic("auth adapter requires non-nil ServiceContainer")
	}
	return &authAdapter{container: container}
}

// ValidateToken validates an access token and returns claims.
func (a *authAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token service call failed: %w", err)
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Error)
	}

	return &domain.Claims{
		UserID:   resp.UserID,
		Username: resp.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *authAdapter) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user service call failed: %w", err)
	}

	return &resp.User, nil
}

// ListUsers lists directory users with the optional filters.
func (a *authAdapter) ListUsers(ctx context.Context, isActive *bool, search string) ([]UserRecord, error) {
	req := ListUsersRequest{IsActive: isActive, Search: search}
	var resp ListUsersResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-users",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-users service call failed: %w", err)
	}

	return resp.Users, nil
}

// ResolveUsers looks up a batch of user ids.
func (a *authAdapter) ResolveUsers(ctx context.Context, userIDs []string) ([]domain.Summary, []string, error) {
	req := ResolveUsersRequest{UserIDs: userIDs}
	var resp ResolveUsersResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"resolve-users",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, nil, fmt.Errorf("resolve-users service call failed: %w", err)
	}

	return resp.Users, resp.MissingIDs, nil
}
