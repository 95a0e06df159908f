// Taskboard - a task assignment record-keeper.
//
// The application is a mono monolith with four core modules:
// - auth: accounts, JWT tokens and the user directory
// - task: tasks, task types and assignment reconciliation
// - activity: bounded feed of task events
// - api: Fiber HTTP server exposing everything over REST
//
// An optional rate-limiter module is registered when a Redis address is
// configured.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/taskboard/modules/activity"
	"github.com/example/taskboard/modules/api"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/ratelimit"
	"github.com/example/taskboard/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Taskboard ===")

	redisAddr := os.Getenv("TASKBOARD_REDIS_ADDR")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	apiModule := api.NewModule()

	// Rate limiting is optional and only wired up when Redis is configured
	var rateLimitModule *ratelimit.Module
	if redisAddr != "" {
		rateLimitModule = ratelimit.NewModule(redisAddr)
		apiModule.SetRateLimitModule(rateLimitModule)
	}

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule())     // Independent module (accounts, tokens, directory)
	app.Register(task.NewModule())     // Depends on auth module
	app.Register(activity.NewModule()) // Consumes task events
	if rateLimitModule != nil {
		app.Register(rateLimitModule) // Owns the Redis connection
	}
	app.Register(apiModule) // Depends on auth, task and activity modules

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(redisAddr != "")

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(rateLimited bool) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("REST API Endpoints (http://localhost:3000):")
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register        - Register a new account")
	log.Println("  POST   /api/v1/auth/login           - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh         - Refresh access token")
	log.Println("  GET    /health                      - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/users                - List users (?is_active=&search=)")
	log.Println("  GET    /api/v1/users/:id            - Get user")
	log.Println("  GET    /api/v1/users/:id/tasks      - User's assigned tasks (?status=)")
	log.Println("  GET    /api/v1/task-types           - List task types (?search=)")
	log.Println("  POST   /api/v1/task-types           - Create task type")
	log.Println("  GET    /api/v1/task-types/:id       - Get task type")
	log.Println("  PUT    /api/v1/task-types/:id       - Update task type")
	log.Println("  DELETE /api/v1/task-types/:id       - Delete task type")
	log.Println("  GET    /api/v1/tasks                - List tasks (?status=&task_type_id=&search=)")
	log.Println("  POST   /api/v1/tasks                - Create task")
	log.Println("  GET    /api/v1/tasks/my-tasks       - Authenticated user's tasks (?status=)")
	log.Println("  GET    /api/v1/tasks/:id            - Get task with assignments")
	log.Println("  PUT    /api/v1/tasks/:id            - Update task")
	log.Println("  DELETE /api/v1/tasks/:id            - Delete task")
	log.Println("  POST   /api/v1/tasks/:id/assign     - Replace assignee set")
	log.Println("  POST   /api/v1/tasks/:id/complete   - Complete task")
	log.Println("  POST   /api/v1/tasks/:id/cancel     - Cancel task")
	log.Println("  GET    /api/v1/activity             - Recent activity (?limit=)")
	log.Println("")
	if rateLimited {
		log.Println("Rate limiting: enabled (Redis sliding window)")
	} else {
		log.Println("Rate limiting: disabled (set TASKBOARD_REDIS_ADDR to enable)")
	}
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
