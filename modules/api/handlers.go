package api

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	userdomain "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authContainer mono.ServiceContainer
	authAdapter   auth.AuthPort
	tasks         task.TaskPort
	activities    activity.ActivityPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authContainer mono.ServiceContainer, authAdapter auth.AuthPort, tasks task.TaskPort, activities activity.ActivityPort) *Handlers {
	return &Handlers{
		authContainer: authContainer,
		authAdapter:   authAdapter,
		tasks:         tasks,
		activities:    activities,
	}
}

// Register handles account registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	authReq := auth.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Name:     req.Name,
		Mobile:   req.Mobile,
	}
	var resp auth.RegisterResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"register",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp.User)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	authReq := auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	}
	var resp auth.LoginResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"login",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	authReq := auth.RefreshRequest{
		RefreshToken: req.RefreshToken,
	}
	var resp auth.RefreshResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"refresh-token",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// ListUsers handles directory listing with optional filters.
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "Invalid is_active filter, expected true or false")
		}
		isActive = &parsed
	}

	users, err := h.authAdapter.ListUsers(c.UserContext(), isActive, c.Query("search"))
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": users,
		"total": len(users),
	})
}

// GetUser handles single user retrieval.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	user, err := h.authAdapter.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// GetUserTasks lists the tasks assigned to a user.
func (h *Handlers) GetUserTasks(c *fiber.Ctx) error {
	resp, err := h.tasks.ListUserTasks(c.UserContext(), c.Params("id"), c.Query("status"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// CreateTaskType handles task type creation.
func (h *Handlers) CreateTaskType(c *fiber.Ctx) error {
	var req TaskTypeBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Name == nil || *req.Name == "" {
		return badRequest(c, "Name is required")
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	resp, err := h.tasks.CreateTaskType(c.UserContext(), *req.Name, description)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListTaskTypes handles task type listing.
func (h *Handlers) ListTaskTypes(c *fiber.Ctx) error {
	resp, err := h.tasks.ListTaskTypes(c.UserContext(), c.Query("search"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// GetTaskType handles single task type retrieval.
func (h *Handlers) GetTaskType(c *fiber.Ctx) error {
	resp, err := h.tasks.GetTaskType(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// UpdateTaskType handles task type updates.
func (h *Handlers) UpdateTaskType(c *fiber.Ctx) error {
	var req TaskTypeBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.tasks.UpdateTaskType(c.UserContext(), task.UpdateTaskTypeRequest{
		TypeID:      c.Params("id"),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// DeleteTaskType handles task type deletion. Tasks referencing the type
// keep existing with their type cleared.
func (h *Handlers) DeleteTaskType(c *fiber.Ctx) error {
	if err := h.tasks.DeleteTaskType(c.UserContext(), c.Params("id")); err != nil {
		return h.handleTaskError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CreateTask handles task creation.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Name == "" {
		return badRequest(c, "Name is required")
	}

	resp, err := h.tasks.CreateTask(c.UserContext(), task.CreateTaskRequest{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		TaskTypeID:  req.TaskTypeID,
	})
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListTasks handles task listing with optional filters.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	resp, err := h.tasks.ListTasks(c.UserContext(), c.Query("status"), c.Query("task_type_id"), c.Query("search"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// MyTasks lists the tasks assigned to the authenticated user.
func (h *Handlers) MyTasks(c *fiber.Ctx) error {
	claims, ok := c.Locals(UserContextKey).(*userdomain.Claims)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.tasks.ListUserTasks(c.UserContext(), claims.UserID, c.Query("status"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// GetTask handles single task retrieval with full assignment detail.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	resp, err := h.tasks.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// UpdateTask handles task updates.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var req UpdateTaskBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.tasks.UpdateTask(c.UserContext(), task.UpdateTaskRequest{
		TaskID:      c.Params("id"),
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		TaskTypeID:  req.TaskTypeID,
	})
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// DeleteTask handles task deletion, removing its assignments with it.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.tasks.DeleteTask(c.UserContext(), c.Params("id")); err != nil {
		return h.handleTaskError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AssignTask replaces a task's assignee set with the posted user ids and
// returns the updated task. The authenticated caller is recorded as the
// assigner of every newly created assignment.
func (h *Handlers) AssignTask(c *fiber.Ctx) error {
	claims, ok := c.Locals(UserContextKey).(*userdomain.Claims)
	if !ok {
		return unauthorized(c)
	}

	var req AssignBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if len(req.UserIDs) == 0 {
		return badRequest(c, "At least one user id is required")
	}

	taskID := c.Params("id")
	if _, err := h.tasks.ReconcileAssignees(c.UserContext(), taskID, req.UserIDs, claims.UserID); err != nil {
		return h.handleTaskError(c, err)
	}

	resp, err := h.tasks.GetTask(c.UserContext(), taskID)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// CompleteTask marks a task completed.
func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	resp, err := h.tasks.CompleteTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// CancelTask marks a task cancelled.
func (h *Handlers) CancelTask(c *fiber.Ctx) error {
	resp, err := h.tasks.CancelTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Activity returns the recent activity feed, newest first.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return badRequest(c, "Invalid limit, expected a non-negative integer")
		}
		limit = parsed
	}

	entries, err := h.activities.RecentActivity(c.UserContext(), limit)
	if err != nil {
		log.Printf("[api] Internal error: %v", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"entries": entries,
		"total":   len(entries),
	})
}

// handleAuthError maps auth service errors to HTTP responses without
// exposing internals.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid username or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid username or password",
		})
	case strings.Contains(errStr, "user account is disabled"):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "User account is disabled",
		})
	case strings.Contains(errStr, "user with this username already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this username already exists",
		})
	case strings.Contains(errStr, "username must be"):
		return badRequest(c, "Username must be 3-50 characters of letters, digits, dot, dash or underscore")
	case strings.Contains(errStr, "invalid email format"):
		return badRequest(c, "Invalid email format")
	case strings.Contains(errStr, "password must be at least"):
		return badRequest(c, "Password must be at least 8 characters")
	case strings.Contains(errStr, "password must be at most"):
		return badRequest(c, "Password must be at most 72 characters")
	case strings.Contains(errStr, "user not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	default:
		// Log the actual error but don't expose it to the client
		log.Printf("[api] Internal error: %v", err)
		return internalError(c)
	}
}

// handleTaskError maps task service errors to HTTP responses. Validation
// failures that carry detail (unknown user ids, unknown type id, invalid
// status values) pass their message through so the caller sees which
// value was rejected.
func (h *Handlers) handleTaskError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "users with these ids do not exist"):
		return badRequest(c, trailingMessage(errStr, "users with these ids do not exist"))
	case strings.Contains(errStr, "task type with this id does not exist"):
		return badRequest(c, trailingMessage(errStr, "task type with this id does not exist"))
	case strings.Contains(errStr, "invalid status"):
		return badRequest(c, trailingMessage(errStr, "invalid status"))
	case strings.Contains(errStr, "a task cannot be created with status completed"):
		return badRequest(c, "A task cannot be created with status completed")
	case strings.Contains(errStr, "at least one user id is required"):
		return badRequest(c, "At least one user id is required")
	case strings.Contains(errStr, "name is required"):
		return badRequest(c, "Name is required")
	case strings.Contains(errStr, "task type with this name already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Task type with this name already exists",
		})
	case strings.Contains(errStr, "task type not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task type not found",
		})
	case strings.Contains(errStr, "task not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case strings.Contains(errStr, "user not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return internalError(c)
	}
}

// trailingMessage extracts the service error message starting at marker,
// stripping the wrapping added by adapter and transport layers.
func trailingMessage(errStr, marker string) string {
	if i := strings.Index(errStr, marker); i >= 0 {
		return errStr[i:]
	}
	return marker
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
