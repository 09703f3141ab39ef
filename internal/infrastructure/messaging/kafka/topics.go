package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// Topic constants for structure lifecycle events.
const (
	TopicStructureValidated = "structure.validated"
	TopicStructureImported  = "structure.imported"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope wraps payload in a versioned envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(e.Payload, target)
}

// ToMessage serializes the envelope for the given topic.  The message key is
// the event ID, so retries of the same event land on the same partition.
func (e *EventEnvelope) ToMessage(topic string) (*Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to marshal envelope")
	}
	return &Message{
		Topic: topic,
		Key:   []byte(e.EventID),
		Value: val,
		Headers: map[string]string{
			"event_type":     e.EventType,
			"source_service": e.Source,
			"schema_version": e.SchemaVersion,
		},
	}, nil
}

// StructureValidatedMessage builds the ready-to-publish message for a
// successful validation.
func StructureValidatedMessage(source string, ev chem.StructureValidatedEvent) (*Message, error) {
	env, err := NewEventEnvelope(TopicStructureValidated, source, ev)
	if err != nil {
		return nil, err
	}
	msg, err := env.ToMessage(TopicStructureValidated)
	if err != nil {
		return nil, err
	}
	// Key by canonical form: all events for one compound share a partition,
	// keeping per-compound ordering for consumers.
	if ev.CanonicalForm != "" {
		msg.Key = []byte(ev.CanonicalForm)
	}
	return msg, nil
}

// StructureImportedMessage builds the batch-outcome message for a completed
// file import.
func StructureImportedMessage(source string, ev chem.StructureImportedEvent) (*Message, error) {
	env, err := NewEventEnvelope(TopicStructureImported, source, ev)
	if err != nil {
		return nil, err
	}
	return env.ToMessage(TopicStructureImported)
}
