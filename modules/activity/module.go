package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/taskboard/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

// maxEntries bounds the in-memory feed; the oldest entries are dropped
// when it is full.
const maxEntries = 100

// defaultLimit is the number of entries returned when a request does not
// ask for a specific amount.
const defaultLimit = 20

// ActivityModule records a bounded feed of task events. It subscribes to
// the task module's events and answers recent-activity queries.
type ActivityModule struct {
	entries []Entry
	mu      sync.RWMutex
}

// Compile-time interface checks.
var _ mono.Module = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)

// NewModule creates a new ActivityModule.
func NewModule() *ActivityModule {
	return &ActivityModule{
		entries: make([]Entry, 0, maxEntries),
	}
}

// Name returns the module name.
func (m *ActivityModule) Name() string {
	return "activity"
}

// RegisterEventConsumers subscribes to the task module's events.
func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskStatusChangedV1, m.handleTaskStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register TaskStatusChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskAssignedV1, m.handleTaskAssigned, m); err != nil {
		return fmt.Errorf("failed to register TaskAssigned consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: TaskCreated, TaskStatusChanged, TaskAssigned")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "recent-activity", json.Unmarshal, json.Marshal, m.handleRecentActivity,
	); err != nil {
		return fmt.Errorf("failed to register recent-activity service: %w", err)
	}

	log.Printf("[activity] Registered services: recent-activity")
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(KindTaskCreated, event.TaskID,
		fmt.Sprintf("Task '%s' created with status %s", event.Name, event.Status))
	return nil
}

func (m *ActivityModule) handleTaskStatusChanged(_ context.Context, event events.TaskStatusChangedEvent, _ *mono.Msg) error {
	m.record(KindStatusChanged, event.TaskID,
		fmt.Sprintf("Task '%s' status changed from %s to %s", event.Name, event.FromStatus, event.ToStatus))
	return nil
}

func (m *ActivityModule) handleTaskAssigned(_ context.Context, event events.TaskAssignedEvent, _ *mono.Msg) error {
	message := fmt.Sprintf("User %s assigned to task %s", event.UserID, event.TaskID)
	if event.AssignedByID != nil {
		message = fmt.Sprintf("User %s assigned to task %s by %s", event.UserID, event.TaskID, *event.AssignedByID)
	}
	m.record(KindTaskAssigned, event.TaskID, message)
	return nil
}

// handleRecentActivity answers recent-activity queries, newest first.
func (m *ActivityModule) handleRecentActivity(_ context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	entries := m.Recent(limit)
	return RecentActivityResponse{Entries: entries, Total: len(entries)}, nil
}

// record appends an entry, dropping the oldest when the feed is full.
func (m *ActivityModule) record(kind, taskID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, Entry{
		ID:         uuid.New().String(),
		Kind:       kind,
		TaskID:     taskID,
		Message:    message,
		OccurredAt: time.Now(),
	})
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
}

// Recent returns up to limit entries, newest first.
func (m *ActivityModule) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit > len(m.entries) {
		limit = len(m.entries)
	}

	result := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= len(m.entries)-limit; i-- {
		result = append(result, m.entries[i])
	}
	return result
}

// Start begins listening for task events.
func (m *ActivityModule) Start(_ context.Context) error {
	log.Println("[activity] Module started - listening for task events")
	return nil
}

// Stop shuts down the module.
func (m *ActivityModule) Stop(_ context.Context) error {
	log.Println("[activity] Module stopped")
	return nil
}
