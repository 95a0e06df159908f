package activity

import "time"

// Entry is one line in the activity feed.
type Entry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	TaskID     string    `json:"task_id"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Entry kinds.
const (
	KindTaskCreated   = "task_created"
	KindStatusChanged = "status_changed"
	KindTaskAssigned  = "task_assigned"
)

// RecentActivityRequest is the request for the recent-activity service.
// Limit defaults to 20 when zero or negative.
type RecentActivityRequest struct {
	Limit int `json:"limit,omitempty"`
}

// RecentActivityResponse is the response for the recent-activity service.
// Entries are ordered newest first.
type RecentActivityResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}
