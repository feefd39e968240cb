// Package events defines event types for conversion lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries all conversion lifecycle events.
const Topic = "journeyc.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ConversionStartedEvent   EventType = "journey.conversion.started"
	ConversionCompletedEvent EventType = "journey.conversion.completed"
	ConversionFailedEvent    EventType = "journey.conversion.failed"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func newBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// ConversionStarted signals that a workflow entered the conversion
// pipeline.
type ConversionStarted struct {
	BaseEvent

	WorkflowName string `json:"workflow_name"`
}

func NewConversionStarted(workflowID, workflowName string) *ConversionStarted {
	return &ConversionStarted{
		BaseEvent:    newBaseEvent(ConversionStartedEvent, workflowID),
		WorkflowName: workflowName,
	}
}

func (e *ConversionStarted) GetType() EventType { return e.Type }

// ConversionCompleted signals a successful conversion, with the quality
// scores of the produced journey.
type ConversionCompleted struct {
	BaseEvent

	JourneyID                  string  `json:"journey_id"`
	StateCount                 int     `json:"state_count"`
	TransitionCount            int     `json:"transition_count"`
	PreservationScore          float64 `json:"preservation_score"`
	FunctionalEquivalenceScore float64 `json:"functional_equivalence_score"`
	StructuralIntegrityScore   float64 `json:"structural_integrity_score"`
}

func NewConversionCompleted(workflowID, journeyID string, states, transitions int, preservation, functional, structural float64) *ConversionCompleted {
	return &ConversionCompleted{
		BaseEvent:                  newBaseEvent(ConversionCompletedEvent, workflowID),
		JourneyID:                  journeyID,
		StateCount:                 states,
		TransitionCount:            transitions,
		PreservationScore:          preservation,
		FunctionalEquivalenceScore: functional,
		StructuralIntegrityScore:   structural,
	}
}

func (e *ConversionCompleted) GetType() EventType { return e.Type }

// ConversionFailed signals an aborted conversion.
type ConversionFailed struct {
	BaseEvent

	Reason string `json:"reason"`
}

func NewConversionFailed(workflowID, reason string) *ConversionFailed {
	return &ConversionFailed{
		BaseEvent: newBaseEvent(ConversionFailedEvent, workflowID),
		Reason:    reason,
	}
}

func (e *ConversionFailed) GetType() EventType { return e.Type }
