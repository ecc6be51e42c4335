package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/certificates"
	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/queue"
)

// EndedLister finds webinars that ended inside a window.
type EndedLister interface {
	ListEndedBetween(ctx context.Context, from, to time.Time) ([]models.Webinar, error)
}

// Sweeper periodically queues certificate issuance for recently ended webinars.
// Queueing a webinar twice is harmless since issuance skips certified registrants.
type Sweeper struct {
	cron     *cron.Cron
	webinars EndedLister
	queue    certificates.Enqueuer
	schedule string
	lookback time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewSweeper creates a sweeper that runs on schedule (standard 5-field cron)
// and looks back over the given window.
func NewSweeper(lister EndedLister, q certificates.Enqueuer, schedule string, lookback time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		cron:     cron.New(),
		webinars: lister,
		queue:    q,
		schedule: schedule,
		lookback: lookback,
		now:      time.Now,
		logger:   logger,
	}
}

// Start registers the sweep and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Warn("certificate sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("certificate sweeper started", zap.String("schedule", s.schedule), zap.Duration("lookback", s.lookback))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("certificate sweeper stopped")
}

// Sweep queues every webinar that ended within the look-back window and
// returns how many were queued.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	ended, err := s.webinars.ListEndedBetween(ctx, now.Add(-s.lookback), now)
	if err != nil {
		return 0, fmt.Errorf("list ended webinars: %w", err)
	}
	queued := 0
	for _, w := range ended {
		payload := queue.CertificateIssuePayload{WebinarSlug: w.Slug, RequestedBy: uuid.Nil}
		if err := s.queue.EnqueueCertificateIssue(ctx, payload); err != nil {
			s.logger.Warn("sweep enqueue failed", zap.String("webinar_slug", w.Slug), zap.Error(err))
			continue
		}
		queued++
	}
	s.logger.Info("certificate sweep", zap.Int("ended", len(ended)), zap.Int("queued", queued))
	return queued, nil
}
