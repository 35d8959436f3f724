package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vesting/history"
	"github.com/xraph/vesting/id"
)

type eventModel struct {
	grove.BaseModel `grove:"table:vesting_history"`

	ID         string    `grove:"id,pk"`
	Action     string    `grove:"action"`
	Resource   string    `grove:"resource"`
	Category   string    `grove:"category"`
	ResourceID string    `grove:"resource_id"`
	Outcome    string    `grove:"outcome"`
	Severity   string    `grove:"severity"`
	Reason     string    `grove:"reason"`
	Metadata   string    `grove:"metadata"`
	CreatedAt  time.Time `grove:"created_at"`
}

func toEventModel(e *history.Event) *eventModel {
	meta, _ := json.Marshal(e.Metadata) //nolint:errcheck // metadata holds plain values
	if e.Metadata == nil {
		meta = []byte("{}")
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
		Metadata:   string(meta),
		CreatedAt:  e.CreatedAt,
	}
}

func fromEventModel(m *eventModel) (*history.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &meta); err != nil {
			return nil, err
		}
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
		Metadata:   meta,
		CreatedAt:  m.CreatedAt,
	}, nil
}
