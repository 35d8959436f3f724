package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vesting/history"
	"github.com/xraph/vesting/id"
)

type eventModel struct {
	grove.BaseModel `grove:"table:vesting_history"`

	ID         string         `grove:"id,pk"       bson:"_id"`
	Action     string         `grove:"action"      bson:"action"`
	Resource   string         `grove:"resource"    bson:"resource"`
	Category   string         `grove:"category"    bson:"category"`
	ResourceID string         `grove:"resource_id" bson:"resource_id"`
	Outcome    string         `grove:"outcome"     bson:"outcome"`
	Severity   string         `grove:"severity"    bson:"severity"`
	Reason     string         `grove:"reason"      bson:"reason,omitempty"`
	Metadata   map[string]any `grove:"metadata"    bson:"metadata,omitempty"`
	CreatedAt  time.Time      `grove:"created_at"  bson:"created_at"`
}

func toEventModel(e *history.Event) *eventModel {
	return &eventModel{
		ID:         e.ID.String(),
		Action:     e.Action,
		Resource:   e.Resource,
		Category:   e.Category,
		ResourceID: e.ResourceID,
		Outcome:    e.Outcome,
		Severity:   e.Severity,
		Reason:     e.Reason,
		Metadata:   e.Metadata,
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
