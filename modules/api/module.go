package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/auth"
	ratelimitmod "github.com/example/taskboard/modules/ratelimit"
	"github.com/example/taskboard/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP API module.
type APIModule struct {
	app             *fiber.App
	authContainer   mono.ServiceContainer
	authAdapter     auth.AuthPort
	taskAdapter     task.TaskPort
	activityAdapter activity.ActivityPort
	rateLimitModule *ratelimitmod.Module
	port            int
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule() *APIModule {
	port := 3000
	if value := os.Getenv("TASKBOARD_HTTP_PORT"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			port = parsed
		} else {
			log.Printf("[api] Warning: invalid TASKBOARD_HTTP_PORT %q, using default %d", value, port)
		}
	}
	return &APIModule{port: port}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "activity":
		m.activityAdapter = activity.NewActivityAdapter(container)
	}
}

// SetRateLimitModule sets the optional rate limiting module. When unset,
// requests are not rate limited.
func (m *APIModule) SetRateLimitModule(rlm *ratelimitmod.Module) {
	m.rateLimitModule = rlm
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authContainer == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.taskAdapter == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.activityAdapter == nil {
		return fmt.Errorf("activity dependency not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	// Add middleware
	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	// Setup routes
	m.setupRoutes()

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", m.port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes() {
	handlers := NewHandlers(m.authContainer, m.authAdapter, m.taskAdapter, m.activityAdapter)

	var limiter *ratelimitmod.Middleware
	if m.rateLimitModule != nil {
		limiter = m.rateLimitModule.GetMiddleware()
	}

	// Health check endpoint, never rate limited
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	// API v1 routes
	v1 := m.app.Group("/api/v1")

	// Public auth routes, IP rate limited when a limiter is configured
	authRoutes := v1.Group("/auth")
	if limiter != nil {
		authRoutes.Use(limiter.IPRateLimit())
	}
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Post("/refresh", handlers.Refresh)

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.authAdapter))
	if limiter != nil {
		protected.Use(limiter.UserRateLimit())
	}

	protected.Get("/users", handlers.ListUsers)
	protected.Get("/users/:id", handlers.GetUser)
	protected.Get("/users/:id/tasks", handlers.GetUserTasks)

	protected.Get("/task-types", handlers.ListTaskTypes)
	protected.Post("/task-types", handlers.CreateTaskType)
	protected.Get("/task-types/:id", handlers.GetTaskType)
	protected.Put("/task-types/:id", handlers.UpdateTaskType)
	protected.Delete("/task-types/:id", handlers.DeleteTaskType)

	protected.Get("/tasks", handlers.ListTasks)
	protected.Post("/tasks", handlers.CreateTask)
	// Registered before /tasks/:id so "my-tasks" is not captured as an id
	protected.Get("/tasks/my-tasks", handlers.MyTasks)
	protected.Get("/tasks/:id", handlers.GetTask)
	protected.Put("/tasks/:id", handlers.UpdateTask)
	protected.Delete("/tasks/:id", handlers.DeleteTask)
	protected.Post("/tasks/:id/assign", handlers.AssignTask)
	protected.Post("/tasks/:id/complete", handlers.CompleteTask)
	protected.Post("/tasks/:id/cancel", handlers.CancelTask)

	protected.Get("/activity", handlers.Activity)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
