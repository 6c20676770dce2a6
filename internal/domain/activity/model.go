package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
)

// EventType represents the type of activity event
type EventType string

const (
	TypeExperimentCreated EventType = "experiment_created"
	TypeStatusChanged     EventType = "status_changed"
	TypeProgressAdded     EventType = "progress_added"
	TypeExperimentForked  EventType = "experiment_forked"
	TypeCollaboratorAdded EventType = "collaborator_added"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case TypeExperimentCreated, TypeStatusChanged, TypeProgressAdded,
		TypeExperimentForked, TypeCollaboratorAdded:
		return true
	}
	return false
}

// Payload is the type-specific part of an event. The set of
// implementations is closed.
type Payload interface {
	EventType() EventType
	isPayload()
}

// Created carries no extra data.
type Created struct{}

// StatusChanged records a status transition.
type StatusChanged struct {
	Old experiment.Status `json:"old"`
	New experiment.Status `json:"new"`
}

// ProgressAdded carries the appended update.
type ProgressAdded struct {
	Update experiment.ProgressUpdate `json:"update"`
}

// Forked is recorded on the parent and names the new child.
type Forked struct {
	ForkID string `json:"fork_id"`
}

// CollaboratorAdded names the user who joined.
type CollaboratorAdded struct {
	CollaboratorID string `json:"collaborator_id"`
}

func (Created) EventType() EventType           { return TypeExperimentCreated }
func (StatusChanged) EventType() EventType     { return TypeStatusChanged }
func (ProgressAdded) EventType() EventType     { return TypeProgressAdded }
func (Forked) EventType() EventType            { return TypeExperimentForked }
func (CollaboratorAdded) EventType() EventType { return TypeCollaboratorAdded }

func (Created) isPayload()           {}
func (StatusChanged) isPayload()     {}
func (ProgressAdded) isPayload()     {}
func (Forked) isPayload()            {}
func (CollaboratorAdded) isPayload() {}

// Event represents an entry in the activity log
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	ActorID      string    `json:"actor_id"`
	ExperimentID string    `json:"experiment_id"`
	CreatedAt    time.Time `json:"created_at"`
	Payload      Payload   `json:"payload"`
}

// UnmarshalJSON decodes the payload according to the event type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           string          `json:"id"`
		Type         EventType       `json:"type"`
		ActorID      string          `json:"actor_id"`
		ExperimentID string          `json:"experiment_id"`
		CreatedAt    time.Time       `json:"created_at"`
		Payload      json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := DecodePayload(raw.Type, raw.Payload)
	if err != nil {
		return err
	}
	*e = Event{
		ID:           raw.ID,
		Type:         raw.Type,
		ActorID:      raw.ActorID,
		ExperimentID: raw.ExperimentID,
		CreatedAt:    raw.CreatedAt,
		Payload:      payload,
	}
	return nil
}

// DecodePayload builds the payload variant for t from its JSON form.
// An empty or null document decodes to the zero variant.
func DecodePayload(t EventType, data []byte) (Payload, error) {
	switch t {
	case TypeExperimentCreated:
		return decodeInto[Created](data)
	case TypeStatusChanged:
		return decodeInto[StatusChanged](data)
	case TypeProgressAdded:
		return decodeInto[ProgressAdded](data)
	case TypeExperimentForked:
		return decodeInto[Forked](data)
	case TypeCollaboratorAdded:
		return decodeInto[CollaboratorAdded](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}
}

func decodeInto[T Payload](data []byte) (Payload, error) {
	var p T
	if len(data) == 0 || string(data) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", p.EventType(), err)
	}
	return p, nil
}

// Entry is an event enriched with its actor.
type Entry struct {
	Event Event      `json:"event"`
	Actor *user.User `json:"actor,omitempty"`
}

// Pulse summarizes the last 24 hours of activity.
type Pulse struct {
	Count  int     `json:"count"`
	Recent []Entry `json:"recent"`
}

// Groups partitions the log by age relative to now.
type Groups struct {
	Recent   []Entry `json:"recent"`
	Today    []Entry `json:"today"`
	ThisWeek []Entry `json:"this_week"`
	Older    []Entry `json:"older"`
}
