package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueCertificates is the Redis list key for certificate issuance jobs.
	QueueCertificates = "worker:certificates"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// HandoffTimeout bounds a retry or dead-letter push made after the worker
	// context is gone.
	HandoffTimeout = 5 * time.Second
	// dequeueTimeout bounds each BLPOP so the worker loop notices cancellation.
	dequeueTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeCertificateIssue JobType = "certificate_issue"
)

// CertificateIssuePayload asks the worker to issue certificates for one webinar.
type CertificateIssuePayload struct {
	WebinarSlug string    `json:"webinar_slug"`
	RequestedBy uuid.UUID `json:"requested_by"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob wraps payload in a fresh envelope.
func NewJob(t JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CertificateIssue decodes the payload of a certificate_issue job.
func (j *Job) CertificateIssue() (CertificateIssuePayload, error) {
	var p CertificateIssuePayload
	if j.Type != JobTypeCertificateIssue {
		return p, fmt.Errorf("unexpected job type: %s", j.Type)
	}
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return p, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.WebinarSlug == "" {
		return p, errors.New("payload missing webinar_slug")
	}
	return p, nil
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueCertificateIssue enqueues a certificate issuance job.
func (q *Queue) EnqueueCertificateIssue(ctx context.Context, payload CertificateIssuePayload) error {
	job, err := NewJob(JobTypeCertificateIssue, payload)
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueueCertificates, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued certificate issue job", zap.String("job_id", job.ID), zap.String("webinar_slug", payload.WebinarSlug))
	return nil
}

// Dequeue blocks until a job is available, the poll times out, or ctx is done.
// A timeout or an undecodable entry yields a nil job and nil error.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, dequeueTimeout, QueueCertificates).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Requeue puts a job back on the queue without spending an attempt. Used for
// runs interrupted by shutdown.
func (q *Queue) Requeue(ctx context.Context, job *Job) error {
	if err := q.push(ctx, QueueCertificates, job); err != nil {
		return err
	}
	q.logger.Info("job requeued", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job, cause error) error {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		return q.DeadLetter(ctx, job, cause)
	}
	if err := q.push(ctx, QueueCertificates, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// DeadLetter moves a job to the DLQ with the error that stopped it.
func (q *Queue) DeadLetter(ctx context.Context, job *Job, cause error) error {
	if cause != nil {
		job.Error = cause.Error()
	}
	if err := q.push(ctx, QueueDLQ, job); err != nil {
		q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
		return err
	}
	q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.String("error", job.Error))
	return nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}
