package events

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errQueueDown = errors.New("queue down")

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

type fakeEnqueuer struct {
	tasks  []*asynq.Task
	opts   [][]asynq.Option
	err    error
	closed bool
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)

	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

func testEvent() registry.ChangeEvent {
	return registry.ChangeEvent{
		Kind:   registry.ChangeCreated,
		Entity: registry.EntityMetric,
		Key:    "rev_us",
		At:     time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTaskPayload_RoundTrip(t *testing.T) {
	payload := NewTaskPayload("id-1", testEvent())
	assert.Equal(t, "metric:rev_us:id-1", payload.UniqueID())

	task, err := payload.NewTask()
	require.NoError(t, err)
	assert.Equal(t, TypeCatalogChange, task.Type())

	got, err := ParseTaskPayload(task)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestTaskPayload_CarriesRename(t *testing.T) {
	event := testEvent()
	event.Kind = registry.ChangeUpdated
	event.PreviousKey = "rev_eu"

	task, err := NewTaskPayload("id-2", event).NewTask()
	require.NoError(t, err)

	got, err := ParseTaskPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "rev_us", got.Key)
	assert.Equal(t, "rev_eu", got.PreviousKey)
}

func TestParseTaskPayload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		task    *asynq.Task
		wantErr error
	}{
		{
			name:    "wrong type",
			task:    asynq.NewTask("model:transformation", []byte(`{}`)),
			wantErr: ErrUnexpectedTaskType,
		},
		{
			name:    "malformed json",
			task:    asynq.NewTask(TypeCatalogChange, []byte(`{`)),
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "missing entity",
			task:    asynq.NewTask(TypeCatalogChange, []byte(`{"kind":"created"}`)),
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskPayload(tt.task)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPublisher_OnChange(t *testing.T) {
	client := &fakeEnqueuer{}
	pub := NewPublisher(testLogger(), client, "datasage:events", 3)

	pub.OnChange(testEvent())
	pub.OnChange(testEvent())

	require.Len(t, client.tasks, 2)
	assert.Equal(t, TypeCatalogChange, client.tasks[0].Type())
	assert.Len(t, client.opts[0], 4)

	first, err := ParseTaskPayload(client.tasks[0])
	require.NoError(t, err)
	second, err := ParseTaskPayload(client.tasks[1])
	require.NoError(t, err)

	assert.Equal(t, "rev_us", first.Key)
	assert.NotEqual(t, first.ID, second.ID)

	require.NoError(t, pub.Close())
	assert.True(t, client.closed)
}

func TestPublisher_EnqueueFailureIsSwallowed(t *testing.T) {
	client := &fakeEnqueuer{err: errQueueDown}
	pub := NewPublisher(testLogger(), client, DefaultQueue, 3)

	assert.NotPanics(t, func() { pub.OnChange(testEvent()) })
	assert.Empty(t, client.tasks)
}

func TestPublisher_AsRegistryObserver(t *testing.T) {
	client := &fakeEnqueuer{}
	reg := registry.New(testLogger(), catalog.DataState{}, registry.WithObserver(NewPublisher(testLogger(), client, DefaultQueue, 1)))

	_, err := reg.CreateTag("LATAM")
	require.NoError(t, err)

	require.Len(t, client.tasks, 1)

	payload, err := ParseTaskPayload(client.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, registry.EntityTag, payload.Entity)
	assert.Equal(t, registry.ChangeCreated, payload.Kind)
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = NoopPublisher{}

	pub.OnChange(testEvent())
	assert.NoError(t, pub.Close())
}

func TestHandler_ProcessTask(t *testing.T) {
	h := NewHandler(testLogger())
	h.now = func() time.Time { return testEvent().At.Add(time.Second) }

	task, err := NewTaskPayload("id-1", testEvent()).NewTask()
	require.NoError(t, err)

	assert.NoError(t, h.ProcessTask(context.Background(), task))

	err = h.ProcessTask(context.Background(), asynq.NewTask(TypeCatalogChange, []byte("nope")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	assert.Contains(t, h.Routes(), TypeCatalogChange)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "disabled", config: Config{}},
		{name: "valid", config: Config{Enabled: true, Queue: "events", Concurrency: 1}},
		{name: "missing queue", config: Config{Enabled: true, Concurrency: 1}, wantErr: ErrQueueRequired},
		{name: "zero concurrency", config: Config{Enabled: true, Queue: "events"}, wantErr: ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
