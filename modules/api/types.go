package api

// RegisterBody represents an account registration request.
type RegisterBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
}

// LoginBody represents a login request.
type LoginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshBody represents a token refresh request.
type RefreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// TaskTypeBody represents a task type create or update request. On
// update, absent fields are left unchanged.
type TaskTypeBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateTaskBody represents a task creation request.
type CreateTaskBody struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	TaskTypeID  *string `json:"task_type_id,omitempty"`
}

// UpdateTaskBody represents a task update request. Absent fields are left
// unchanged; an explicit empty task_type_id clears the task's type.
type UpdateTaskBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	TaskTypeID  *string `json:"task_type_id"`
}

// AssignBody represents an assignee set for a task. The task's
// assignments are reconciled to exactly this set.
type AssignBody struct {
	UserIDs []string `json:"user_ids"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
