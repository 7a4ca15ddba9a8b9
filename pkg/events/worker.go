package events

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Worker runs the asynq server consuming change events
type Worker interface {
	// Start begins consuming in the background
	Start(ctx context.Context) error

	// Stop waits for in-flight events and shuts the server down
	Stop() error
}

type worker struct {
	log      logrus.FieldLogger
	config   *Config
	queue    string
	redisOpt asynq.RedisConnOpt
	handler  *Handler

	server *asynq.Server
}

// NewWorker creates an event worker reading from queue
func NewWorker(log logrus.FieldLogger, cfg *Config, queue string, redisOpt asynq.RedisConnOpt) Worker {
	return &worker{
		log:      log.WithField("service", "events"),
		config:   cfg,
		queue:    queue,
		redisOpt: redisOpt,
		handler:  NewHandler(log),
	}
}

func (w *worker) Start(_ context.Context) error {
	srv := asynq.NewServer(w.redisOpt, asynq.Config{
		Concurrency: w.config.Concurrency,
		Queues:      map[string]int{w.queue: 1},
		Logger:      newAsynqLogger(w.log),
	})

	mux := asynq.NewServeMux()
	for taskType, handlerFunc := range w.handler.Routes() {
		mux.HandleFunc(taskType, handlerFunc)
	}

	// Start returns once the processors run; signals are left to the engine
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start event worker: %w", err)
	}

	w.server = srv

	w.log.WithField("queue", w.queue).Info("Event worker started")

	return nil
}

func (w *worker) Stop() error {
	if w.server == nil {
		return nil
	}

	w.server.Shutdown()

	w.log.Info("Event worker stopped")

	return nil
}

// asynqLogger routes asynq server logs through logrus
type asynqLogger struct {
	log logrus.FieldLogger
}

func newAsynqLogger(log logrus.FieldLogger) *asynqLogger {
	return &asynqLogger{log: log.WithField("component", "asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(args...) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(args...) }

var (
	_ Worker       = (*worker)(nil)
	_ asynq.Logger = (*asynqLogger)(nil)
)
