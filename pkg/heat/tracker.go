package heat

import (
	"context"
	"time"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/observability"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/sirupsen/logrus"
)

const cleanupTimeout = 5 * time.Second

// Tracker combines fixture heat with recorded views and keeps the counter
// in step with the catalog
type Tracker struct {
	log     logrus.FieldLogger
	counter Counter
}

// NewTracker creates a tracker over counter
func NewTracker(log logrus.FieldLogger, counter Counter) *Tracker {
	return &Tracker{
		log:     log.WithField("component", "heat"),
		counter: counter,
	}
}

// View records a profile view of m and returns its total heat
func (t *Tracker) View(ctx context.Context, m *catalog.Metric) int {
	n, err := t.counter.Incr(ctx, m.Slug)
	if err != nil {
		t.log.WithError(err).WithField("metric", m.Slug).Warn("Failed to record metric view")
		observability.RecordError("heat", "incr")

		return m.Heat
	}

	observability.RecordMetricView(string(m.Status))

	return m.Heat + int(n)
}

// Apply adds recorded views to the heat of every metric in place
func (t *Tracker) Apply(ctx context.Context, metrics []catalog.Metric) {
	for i := range metrics {
		n, err := t.counter.Get(ctx, metrics[i].Slug)
		if err != nil {
			t.log.WithError(err).WithField("metric", metrics[i].Slug).Debug("Failed to read metric heat")
			continue
		}

		metrics[i].Heat += int(n)
	}
}

// OnChange follows metric renames, drops counts of deleted metrics and
// clears everything on a catalog reset
func (t *Tracker) OnChange(event registry.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	var err error

	switch {
	case event.Kind == registry.ChangeReset:
		err = t.counter.Reset(ctx)
	case event.Kind == registry.ChangeDeleted && event.Entity == registry.EntityMetric:
		err = t.counter.Delete(ctx, event.Key)
	case event.Kind == registry.ChangeUpdated && event.Entity == registry.EntityMetric && event.Renamed():
		err = t.counter.Rename(ctx, event.PreviousKey, event.Key)
	default:
		return
	}

	if err != nil {
		t.log.WithError(err).WithField("event", event.Kind).Warn("Failed to clean up heat counters")
	}
}

var _ registry.Observer = (*Tracker)(nil)
