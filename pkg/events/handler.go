package events

import (
	"context"
	"time"

	"github.com/ethpandaops/datasage/pkg/observability"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Handler consumes catalog:change tasks
type Handler struct {
	log logrus.FieldLogger
	now func() time.Time
}

// NewHandler creates an event handler
func NewHandler(log logrus.FieldLogger) *Handler {
	return &Handler{
		log: log.WithField("component", "event-handler"),
		now: time.Now,
	}
}

// Routes returns the task type to handler mapping
func (h *Handler) Routes() map[string]asynq.HandlerFunc {
	return map[string]asynq.HandlerFunc{
		TypeCatalogChange: h.ProcessTask,
	}
}

// ProcessTask records a change event. Undecodable payloads are skipped
// rather than retried.
func (h *Handler) ProcessTask(_ context.Context, task *asynq.Task) error {
	payload, err := ParseTaskPayload(task)
	if err != nil {
		h.log.WithError(err).Error("Dropping change event")
		observability.RecordError("events", "invalid_payload")

		return asynq.SkipRetry
	}

	lag := -1.0
	if !payload.At.IsZero() {
		lag = h.now().Sub(payload.At).Seconds()
	}

	observability.RecordEventProcessed(payload.Entity, string(payload.Kind), lag)

	h.log.WithFields(logrus.Fields{
		"id":     payload.ID,
		"kind":   payload.Kind,
		"entity": payload.Entity,
		"key":    payload.Key,
	}).Info("Processed catalog change")

	return nil
}
