package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/certificates"
	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/queue"
)

// ErrInvalidJob marks a job that can never succeed as queued.
var ErrInvalidJob = errors.New("invalid job")

// JobQueue is the queue surface the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Requeue(ctx context.Context, job *queue.Job) error
	Retry(ctx context.Context, job *queue.Job, cause error) error
	DeadLetter(ctx context.Context, job *queue.Job, cause error) error
}

// Issuer runs one certificate issuance.
type Issuer interface {
	Issue(ctx context.Context, actor *auth.Identity, slug string) (*certificates.Report, error)
}

// CertificateProcessor processes certificate_issue jobs.
type CertificateProcessor struct {
	issuer  Issuer
	queue   JobQueue
	backoff time.Duration
	handoff time.Duration
	logger  *zap.Logger
}

// NewCertificateProcessor creates a certificate issuance processor.
func NewCertificateProcessor(issuer Issuer, q JobQueue, logger *zap.Logger) *CertificateProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateProcessor{
		issuer:  issuer,
		queue:   q,
		backoff: queue.RetryBackoff,
		handoff: queue.HandoffTimeout,
		logger:  logger,
	}
}

// Process executes one job. A run where some registrants failed returns an
// error so the job is retried; issuance is idempotent so the retry only
// touches the registrants still missing a certificate.
func (p *CertificateProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.CertificateIssue()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	actor := &auth.Identity{UserID: payload.RequestedBy, Name: "certificate-worker", Role: auth.RoleAdmin}
	if payload.RequestedBy == uuid.Nil {
		actor.Name = "certificate-sweeper"
	}

	report, err := p.issuer.Issue(ctx, actor, payload.WebinarSlug)
	if err != nil {
		return err
	}
	p.logger.Info("certificate job completed",
		zap.String("job_id", job.ID),
		zap.String("webinar_slug", payload.WebinarSlug),
		zap.Int("issued", report.Issued()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed()),
	)
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d certificate(s) failed for %s", n, payload.WebinarSlug)
	}
	return nil
}

// Terminal reports whether err means retrying the job cannot help.
func Terminal(err error) bool {
	var (
		notFound     *models.NotFoundError
		precondition *models.PreconditionFailedError
		unauthorized *models.UnauthorizedError
		forbidden    *models.ForbiddenError
	)
	return errors.Is(err, ErrInvalidJob) ||
		errors.As(err, &notFound) ||
		errors.As(err, &precondition) ||
		errors.As(err, &unauthorized) ||
		errors.As(err, &forbidden)
}

// handle processes job and routes a failure to retry or the DLQ. It reports
// whether the caller should back off before the next dequeue.
//
// The job has already left Redis, so the hand-off runs on a context detached
// from ctx: a shutdown must not drop it.
func (p *CertificateProcessor) handle(ctx context.Context, job *queue.Job) bool {
	p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	err := p.Process(ctx, job)
	if err == nil {
		return false
	}

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.handoff)
	defer cancel()

	switch {
	case ctx.Err() != nil:
		p.logger.Info("job interrupted, requeueing", zap.String("job_id", job.ID), zap.Error(err))
		if reErr := p.queue.Requeue(hctx, job); reErr != nil {
			p.logger.Error("requeue failed", zap.String("job_id", job.ID), zap.Error(reErr))
		}
		return false
	case Terminal(err):
		p.logger.Warn("job rejected", zap.String("job_id", job.ID), zap.Error(err))
		if dlqErr := p.queue.DeadLetter(hctx, job, err); dlqErr != nil {
			p.logger.Error("dead-letter failed", zap.String("job_id", job.ID), zap.Error(dlqErr))
		}
		return false
	}
	p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
	if reErr := p.queue.Retry(hctx, job, err); reErr != nil {
		p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
	}
	return true
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *CertificateProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("certificate worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}
		if p.handle(ctx, job) {
			p.sleep(ctx)
		}
	}
}

func (p *CertificateProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
