// Package history keeps a durable audit trail of vault events.
//
// A Store persists events; Recorder adapts a Store to the audit hook so
// every lifecycle event the vault emits lands in the trail. Backends live in
// the memory, sqlite, postgres and mongo subpackages.
package history

import (
	"context"
	"errors"
	"time"

	audithook "github.com/xraph/vesting/audit_hook"
	"github.com/xraph/vesting/id"
)

// ErrNotFound is returned by Get for an unknown event id.
var ErrNotFound = errors.New("history: event not found")

// Event is one stored audit trail entry.
type Event struct {
	ID         id.EventID     `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ListOpts filters and pages a listing. Empty filters match everything.
type ListOpts struct {
	Resource   string
	ResourceID string
	Action     string
	Limit      int
	Offset     int
}

// Matches reports whether e passes the filters of o.
func (o ListOpts) Matches(e *Event) bool {
	return (o.Resource == "" || e.Resource == o.Resource) &&
		(o.ResourceID == "" || e.ResourceID == o.ResourceID) &&
		(o.Action == "" || e.Action == o.Action)
}

// Store persists audit events. List returns newest first.
type Store interface {
	Append(ctx context.Context, e *Event) error
	Get(ctx context.Context, eventID id.EventID) (*Event, error)
	List(ctx context.Context, opts ListOpts) ([]*Event, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// compile-time interface check
var _ audithook.Recorder = (*Recorder)(nil)

// Recorder writes audit hook events into a Store.
type Recorder struct {
	store Store
	clock func() time.Time
}

// NewRecorder returns a Recorder over s.
func NewRecorder(s Store) *Recorder {
	return &Recorder{store: s, clock: time.Now}
}

// WithClock sets the timestamp source for recorded events.
func (r *Recorder) WithClock(clock func() time.Time) *Recorder {
	r.clock = clock
	return r
}

// Record implements audithook.Recorder.
func (r *Recorder) Record(ctx context.Context, ae *audithook.AuditEvent) error {
	return r.store.Append(ctx, &Event{
		ID:         id.NewEventID(),
		Action:     ae.Action,
		Resource:   ae.Resource,
		Category:   ae.Category,
		ResourceID: ae.ResourceID,
		Outcome:    ae.Outcome,
		Severity:   ae.Severity,
		Reason:     ae.Reason,
		Metadata:   ae.Metadata,
		CreatedAt:  r.clock().UTC(),
	})
}
