package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/observability"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Loader reads the fixture catalog
type Loader interface {
	Load() (catalog.DataState, error)
}

// Resetter replaces the live catalog
type Resetter interface {
	Reset(state catalog.DataState)
}

// Service defines the public interface for the reset scheduler
type Service interface {
	// Start registers the reset job and starts the cron runner
	Start(ctx context.Context) error

	// Stop waits for a running reset and stops the runner
	Stop() error

	// ResetNow reloads the fixtures immediately
	ResetNow() error

	// Next returns the next scheduled reset, zero when not running
	Next() time.Time
}

type service struct {
	log      logrus.FieldLogger
	config   *Config
	loader   Loader
	resetter Resetter

	mu   sync.Mutex
	cron *cron.Cron
	job  cron.EntryID
}

// NewService creates a reset scheduler
func NewService(log logrus.FieldLogger, cfg *Config, loader Loader, resetter Resetter) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &service{
		log:      log.WithField("service", "scheduler"),
		config:   cfg,
		loader:   loader,
		resetter: resetter,
	}, nil
}

func (s *service) Start(_ context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Catalog reset scheduler is disabled")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	id, err := c.AddFunc(s.config.ResetSchedule, func() {
		if err := s.ResetNow(); err != nil {
			s.log.WithError(err).Error("Scheduled catalog reset failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register reset job: %w", err)
	}

	s.mu.Lock()
	s.cron = c
	s.job = id
	s.mu.Unlock()

	c.Start()

	s.log.WithFields(logrus.Fields{
		"schedule": s.config.ResetSchedule,
		"next":     c.Entry(id).Next,
	}).Info("Catalog reset scheduler started")

	return nil
}

func (s *service) Stop() error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	<-c.Stop().Done()

	s.log.Info("Catalog reset scheduler stopped")

	return nil
}

func (s *service) ResetNow() error {
	state, err := s.loader.Load()
	if err != nil {
		observability.RecordCatalogReset("failed")
		return fmt.Errorf("failed to reload fixtures: %w", err)
	}

	s.resetter.Reset(state)
	observability.RecordCatalogReset("success")

	s.log.WithField("metrics", len(state.Metrics)).Info("Restored catalog from fixtures")

	return nil
}

func (s *service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return time.Time{}
	}

	return s.cron.Entry(s.job).Next
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)
