// Package registry owns the in-memory metric catalog and applies every
// mutation to it
package registry

import (
	"sync"
	"time"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/derive"
	"github.com/ethpandaops/datasage/pkg/observability"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChangeKind describes what happened to an entity
type ChangeKind string

// Change kinds emitted by the registry
const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeReset   ChangeKind = "reset"
)

// Entity names used in change events and not-found errors
const (
	EntityMetric    = "metric"
	EntityDimension = "dimension"
	EntityDomain    = "domain"
	EntityCategory  = "category"
	EntityMetricSet = "metric set"
	EntityTag       = "tag"
	EntityCatalog   = "catalog"
)

// ChangeEvent is emitted after every successful mutation. PreviousKey is set
// when an update changed the key, e.g. a metric slug rename.
type ChangeEvent struct {
	Kind        ChangeKind `json:"kind"`
	Entity      string     `json:"entity"`
	Key         string     `json:"key"`
	PreviousKey string     `json:"previousKey,omitempty"`
	At          time.Time  `json:"at"`
}

// Renamed reports whether the event moved an entity to a new key
func (e ChangeEvent) Renamed() bool {
	return e.PreviousKey != "" && e.PreviousKey != e.Key
}

// Observer receives change events. OnChange is called outside the registry
// lock, in mutation order for a single caller.
type Observer interface {
	OnChange(event ChangeEvent)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(event ChangeEvent)

// OnChange implements Observer
func (f ObserverFunc) OnChange(event ChangeEvent) {
	f(event)
}

// InitialTags are the tags every registry starts with
func InitialTags() []catalog.Tag {
	return []catalog.Tag{
		{ID: "tag-global", Name: "Global"},
		{ID: "tag-us", Name: "US"},
		{ID: "tag-eu", Name: "EU"},
		{ID: "tag-apac", Name: "APAC"},
	}
}

// Option configures a Registry
type Option func(*Registry)

// WithClock overrides the time source for timestamps and events
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator overrides the generator used for new entity ids
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		r.newID = gen
	}
}

// WithObserver registers an observer at construction time
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observers = append(r.observers, o)
	}
}

// Registry is the single owner of the catalog state. Readers receive deep
// copies; writers are serialized.
type Registry struct {
	log logrus.FieldLogger

	mu    sync.RWMutex
	state catalog.DataState
	tags  []catalog.Tag

	obsMu     sync.RWMutex
	observers []Observer

	synth *derive.Synthesizer
	now   func() time.Time
	newID func() string
}

// New creates a registry seeded with state and the initial tags
func New(log logrus.FieldLogger, state catalog.DataState, opts ...Option) *Registry {
	r := &Registry{
		log:   log.WithField("component", "registry"),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		tags:  InitialTags(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.synth = derive.NewSynthesizer(derive.WithClock(r.now), derive.WithIDGenerator(r.newID))

	r.state = state.Clone()
	catalog.Normalize(&r.state)

	return r
}

// Subscribe adds an observer
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()

	r.observers = append(r.observers, o)
}

func (r *Registry) notify(kind ChangeKind, entity, key string) {
	r.emit(ChangeEvent{Kind: kind, Entity: entity, Key: key})
}

func (r *Registry) emit(event ChangeEvent) {
	event.At = r.now()

	r.log.WithFields(logrus.Fields{
		"kind":         event.Kind,
		"entity":       event.Entity,
		"key":          event.Key,
		"previous_key": event.PreviousKey,
	}).Debug("Catalog changed")

	observability.RecordCatalogChange(event.Entity, string(event.Kind))

	if event.Entity == EntityMetric || event.Entity == EntityCatalog {
		r.mu.RLock()
		observability.SetCatalogMetrics(len(r.state.Metrics))
		r.mu.RUnlock()
	}

	r.obsMu.RLock()
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.obsMu.RUnlock()

	for _, o := range observers {
		o.OnChange(event)
	}
}

func (r *Registry) timestamp() string {
	return catalog.FormatTimestamp(r.now())
}

// Snapshot returns a deep copy of the current catalog
func (r *Registry) Snapshot() catalog.DataState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.state.Clone()
}

// Reset replaces the whole catalog. Tags are kept.
func (r *Registry) Reset(state catalog.DataState) {
	next := state.Clone()
	catalog.Normalize(&next)

	r.mu.Lock()
	r.state = next
	r.mu.Unlock()

	r.log.WithField("metrics", len(next.Metrics)).Info("Catalog reset")
	r.notify(ChangeReset, EntityCatalog, "")
}

// Tags returns a copy of the tag list
func (r *Registry) Tags() []catalog.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Tag, len(r.tags))
	copy(out, r.tags)

	return out
}
