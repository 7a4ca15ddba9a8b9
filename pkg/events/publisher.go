package events

import (
	"time"

	"github.com/ethpandaops/datasage/pkg/observability"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Enqueuer is the subset of *asynq.Client used by the publisher
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Publisher forwards registry change events to the queue
type Publisher interface {
	registry.Observer

	// Close releases the queue client
	Close() error
}

type publisher struct {
	log      logrus.FieldLogger
	client   Enqueuer
	queue    string
	maxRetry int
	newID    func() string
}

// NewPublisher creates a publisher enqueuing into queue
func NewPublisher(log logrus.FieldLogger, client Enqueuer, queue string, maxRetry int) Publisher {
	return &publisher{
		log:      log.WithField("component", "event-publisher"),
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
		newID:    uuid.NewString,
	}
}

// OnChange enqueues the event. Failures are logged, never returned, so a
// queue outage cannot fail a catalog mutation.
func (p *publisher) OnChange(event registry.ChangeEvent) {
	payload := NewTaskPayload(p.newID(), event)

	task, err := payload.NewTask()
	if err != nil {
		p.log.WithError(err).Error("Failed to build change event task")
		observability.RecordEventEnqueued(event.Entity, "failed")

		return
	}

	_, err = p.client.Enqueue(task,
		asynq.TaskID(payload.UniqueID()),
		asynq.Queue(p.queue),
		asynq.MaxRetry(p.maxRetry),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"entity": event.Entity,
			"key":    event.Key,
		}).Warn("Failed to enqueue change event")
		observability.RecordEventEnqueued(event.Entity, "failed")

		return
	}

	observability.RecordEventEnqueued(event.Entity, "success")
}

func (p *publisher) Close() error {
	return p.client.Close()
}

// NoopPublisher drops every event; used when Redis is not configured
type NoopPublisher struct{}

// OnChange implements registry.Observer
func (NoopPublisher) OnChange(registry.ChangeEvent) {}

// Close implements Publisher
func (NoopPublisher) Close() error { return nil }

var (
	_ Publisher = (*publisher)(nil)
	_ Publisher = NoopPublisher{}
)
