// Package events publishes catalog change events to an Asynq queue and
// consumes them
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/hibiken/asynq"
)

const (
	// TypeCatalogChange is the task type of a catalog change event
	TypeCatalogChange = "catalog:change"
	// DefaultQueue is the queue events are published to
	DefaultQueue = "events"
)

var (
	// ErrInvalidPayload is returned when a task payload cannot be decoded
	ErrInvalidPayload = errors.New("invalid event payload")
	// ErrUnexpectedTaskType is returned for tasks routed to the wrong handler
	ErrUnexpectedTaskType = errors.New("unexpected task type")
)

// TaskPayload is the body of a catalog:change task
type TaskPayload struct {
	ID          string              `json:"id"`
	Kind        registry.ChangeKind `json:"kind"`
	Entity      string              `json:"entity"`
	Key         string              `json:"key"`
	PreviousKey string              `json:"previousKey,omitempty"`
	At          time.Time           `json:"at"`
}

// NewTaskPayload converts a registry event into a task payload
func NewTaskPayload(id string, event registry.ChangeEvent) TaskPayload {
	return TaskPayload{
		ID:          id,
		Kind:        event.Kind,
		Entity:      event.Entity,
		Key:         event.Key,
		PreviousKey: event.PreviousKey,
		At:          event.At,
	}
}

// UniqueID returns the asynq task id for this event
func (p TaskPayload) UniqueID() string {
	return fmt.Sprintf("%s:%s:%s", p.Entity, p.Key, p.ID)
}

// NewTask encodes the payload as an asynq task
func (p TaskPayload) NewTask() (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return asynq.NewTask(TypeCatalogChange, data), nil
}

// ParseTaskPayload decodes a catalog:change task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	if task.Type() != TypeCatalogChange {
		return TaskPayload{}, fmt.Errorf("%w: %s", ErrUnexpectedTaskType, task.Type())
	}

	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TaskPayload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if payload.Entity == "" || payload.Kind == "" {
		return TaskPayload{}, fmt.Errorf("%w: entity and kind are required", ErrInvalidPayload)
	}

	return payload, nil
}
