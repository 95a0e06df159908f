package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ActivityPort defines the interface for reading the activity feed from
// other modules.
type ActivityPort interface {
	RecentActivity(ctx context.Context, limit int) ([]Entry, error)
}

// activityAdapter implements ActivityPort using the service container.
type activityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates a new adapter for activity services.
// container is the ServiceContainer from the activity module received via
// SetDependencyServiceContainer.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	if container == nil {
		panic("activity adapter requires non-nil ServiceContainer")
	}
	return &activityAdapter{container: container}
}

// RecentActivity returns up to limit feed entries, newest first.
func (a *activityAdapter) RecentActivity(ctx context.Context, limit int) ([]Entry, error) {
	req := RecentActivityRequest{Limit: limit}
	var resp RecentActivityResponse

	if err := helper.CallRequestReplyService(
		ctx, a.container, "recent-activity", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("recent-activity service call failed: %w", err)
	}

	return resp.Entries, nil
}
