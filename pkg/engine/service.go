package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // pprof is intentionally exposed when pprofAddr is configured
	"time"

	"github.com/ethpandaops/datasage/pkg/api"
	"github.com/ethpandaops/datasage/pkg/api/handlers"
	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/events"
	"github.com/ethpandaops/datasage/pkg/heat"
	"github.com/ethpandaops/datasage/pkg/observability"
	"github.com/ethpandaops/datasage/pkg/profile"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/ethpandaops/datasage/pkg/scheduler"
	"github.com/ethpandaops/datasage/pkg/validation"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Service encapsulates the catalog application
type Service struct {
	config *Config
	log    logrus.FieldLogger

	registry  *registry.Registry
	tracker   *heat.Tracker
	publisher events.Publisher
	worker    events.Worker
	scheduler scheduler.Service
	api       api.Service

	// Servers
	metricsServer *observability.MetricsServer
	healthServer  *http.Server
	pprofServer   *http.Server

	redisClient *redis.Client
}

// NewService loads the fixture catalog and builds every service around it
func NewService(log logrus.FieldLogger, cfg *Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loader := catalog.NewLoader(&cfg.Catalog)

	state, err := loader.Load()
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"fixtures":   loader.Dir(),
		"metrics":    len(state.Metrics),
		"dimensions": len(state.Dimensions),
	}).Info("Loaded catalog fixtures")

	// Fixture drift is reported, not fatal
	result := validation.NewValidator(log).Validate(&state, registry.InitialTags())
	for _, issue := range result.Issues {
		log.WithError(issue).Warn("Catalog integrity issue")
	}

	s := &Service{
		config:   cfg,
		log:      log,
		registry: registry.New(log, state),
	}

	var counter heat.Counter = heat.NewMemoryCounter()

	s.publisher = events.NoopPublisher{}

	if cfg.Redis.Enabled() {
		redisOptions, err := cfg.Redis.Options()
		if err != nil {
			return nil, err
		}

		s.redisClient = redis.NewClient(redisOptions)
		counter = heat.NewRedisCounter(s.redisClient, cfg.Redis.Prefix)

		if cfg.Events.Enabled {
			queue := cfg.Redis.PrefixQueue(cfg.Events.Queue)
			queueOpt, queueErr := cfg.Redis.QueueOptions()
			if queueErr != nil {
				return nil, queueErr
			}

			s.publisher = events.NewPublisher(log, asynq.NewClient(queueOpt), queue, cfg.Events.MaxRetry)
			s.worker = events.NewWorker(log, &cfg.Events, queue, queueOpt)
		}
	} else {
		log.Info("Redis not configured, heat counters are kept in memory and change events are disabled")
	}

	s.tracker = heat.NewTracker(log, counter)
	s.registry.Subscribe(s.tracker)
	s.registry.Subscribe(s.publisher)

	s.scheduler, err = scheduler.NewService(log, &cfg.Scheduler, loader, s.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler service: %w", err)
	}

	handler := handlers.NewServer(s.registry, profile.NewRenderer(cfg.API.ProfileTemplate), s.tracker, log)
	s.api = api.NewService(&cfg.API, handler, log)

	return s, nil
}

// Registry returns the live catalog
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Start starts the background services
func (s *Service) Start(ctx context.Context) error {
	s.log.Info("Starting DataSage...")

	s.metricsServer = observability.NewMetricsServer(s.log, s.config.MetricsAddr)
	s.metricsServer.Start()

	if s.config.HealthCheckAddr != "" {
		s.startHealthCheck()
	}

	if s.config.PProfAddr != "" {
		s.startPProf()
	}

	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	if s.worker != nil {
		if err := s.worker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start event worker: %w", err)
		}
	}

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if err := s.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API service: %w", err)
	}

	s.log.Info("DataSage started successfully")

	return nil
}

// Stop shuts the services down in reverse start order
func (s *Service) Stop() error {
	s.log.Info("Shutting down DataSage...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopService := func(name string, stopFunc func() error) {
		if err := stopFunc(); err != nil {
			s.log.WithError(err).Errorf("Failed to stop %s", name)
		}
	}

	// 1. Stop serving requests
	if s.api != nil {
		stopService("API service", s.api.Stop)
	}

	// 2. No more scheduled resets
	if s.scheduler != nil {
		stopService("scheduler service", s.scheduler.Stop)
	}

	// 3. Flush the publisher before the consumer goes away
	if s.publisher != nil {
		stopService("event publisher", s.publisher.Close)
	}

	if s.worker != nil {
		stopService("event worker", s.worker.Stop)
	}

	// 4. Close Redis (now safe, nothing is using it)
	if s.redisClient != nil {
		stopService("Redis client", s.redisClient.Close)
	}

	if s.healthServer != nil {
		stopService("health check server", func() error { return s.healthServer.Shutdown(ctx) })
	}

	if s.pprofServer != nil {
		stopService("pprof server", func() error { return s.pprofServer.Shutdown(ctx) })
	}

	if s.metricsServer != nil {
		stopService("metrics server", func() error { return s.metricsServer.Stop(ctx) })
	}

	return nil
}

func (s *Service) startHealthCheck() {
	s.log.WithField("addr", s.config.HealthCheckAddr).Info("Starting health check server")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.redisClient != nil {
			if err := s.redisClient.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.healthServer = &http.Server{
		Addr:              s.config.HealthCheckAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Health check server failed")
		}
	}()
}

func (s *Service) startPProf() {
	s.log.WithField("addr", s.config.PProfAddr).Info("Starting pprof server")

	s.pprofServer = &http.Server{
		Addr:              s.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	go func() {
		if err := s.pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Pprof server failed")
		}
	}()
}
