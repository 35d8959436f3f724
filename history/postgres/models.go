package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vesting/history"
	"github.com/xraph/vesting/id"
)

type eventModel struct {
	grove.BaseModel `grove:"table:vesting_history"`

	ID         string         `grove:"id,pk"`
	Action     string         `grove:"action"`
	Resource   string         `grove:"resource"`
	Category   string         `grove:"category"`
	ResourceID string         `grove:"resource_id"`
	Outcome    string         `grove:"outcome"`
	Severity   string         `grove:"severity"`
	Reason     string         `grove:"reason"`
	Metadata   map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt  time.Time      `grove:"created_at"`
}

func toEventModel(e *history.Event) *eventModel {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &eventModel{
		ID:         e.ID.String(),
		Action:     e.Action,
		Resource:   e.Resource,
		Category:   e.Category,
		ResourceID: e.ResourceID,
		Outcome:    e.Outcome,
		Severity:   e.Severity,
		Reason:     e.Reason,
		Metadata:   meta,
		CreatedAt:  e.CreatedAt,
	}
}

func fromEventModel(m *eventModel) (*history.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	return &history.Event{
		ID:         eventID,
		Action:     m.Action,
		Resource:   m.Resource,
		Category:   m.Category,
		ResourceID: m.ResourceID,
		Outcome:    m.Outcome,
		Severity:   m.Severity,
		Reason:     m.Reason,
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt,
	}, nil
}
