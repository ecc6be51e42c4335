package certificates

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/middleware"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/queue"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/response"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/validation"
)

// Enqueuer queues issuance for the background worker.
type Enqueuer interface {
	EnqueueCertificateIssue(ctx context.Context, payload queue.CertificateIssuePayload) error
}

// IssueQuery is the query for POST /webinars/:slug/issue-certificates.
type IssueQuery struct {
	Async bool `form:"async"`
}

// IDParam binds the :id path segment.
type IDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Handler handles certificate HTTP endpoints.
type Handler struct {
	issuer *Issuer
	svc    *Service
	queue  Enqueuer
	logger *zap.Logger
}

// NewHandler creates a certificates handler. q may be nil, which disables async issuance.
func NewHandler(issuer *Issuer, svc *Service, q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{issuer: issuer, svc: svc, queue: q, logger: logger}
}

// Issue handles POST /webinars/:slug/issue-certificates. With ?async=true the
// eligibility checks run inline and the issuance itself is queued.
func (h *Handler) Issue(c *gin.Context) {
	slug, ok := webinars.BindSlug(c)
	if !ok {
		return
	}
	var q IssueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	actor := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	if q.Async {
		if h.queue == nil {
			response.ServiceUnavailable(c, "async issuance is not available")
			return
		}
		if _, err := h.issuer.Eligible(ctx, actor, slug); err != nil {
			h.fail(c, err, "failed to issue certificates", zap.String("slug", slug))
			return
		}
		payload := queue.CertificateIssuePayload{WebinarSlug: slug, RequestedBy: actor.UserID}
		if err := h.queue.EnqueueCertificateIssue(ctx, payload); err != nil {
			h.logger.Error("enqueue certificate issue failed", zap.Error(err), zap.String("slug", slug))
			response.Internal(c, "failed to queue certificate issuance")
			return
		}
		response.Accepted(c, gin.H{"queued": true})
		return
	}

	report, err := h.issuer.Issue(ctx, actor, slug)
	if err != nil {
		h.fail(c, err, "failed to issue certificates", zap.String("slug", slug))
		return
	}
	response.OK(c, gin.H{"issued": report.Issued()})
}

// ListMine handles GET /me/certificates.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListForUser(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		h.fail(c, err, "failed to list certificates")
		return
	}
	response.OK(c, gin.H{"certificates": list})
}

// DownloadURL handles GET /certificates/:id/download-url.
func (h *Handler) DownloadURL(c *gin.Context) {
	var p IDParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	url, expires, err := h.svc.DownloadURL(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(p.ID))
	if err != nil {
		if errors.Is(err, ErrStorageUnavailable) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		h.fail(c, err, "failed to generate download url", zap.String("certificate_id", p.ID))
		return
	}
	response.OK(c, gin.H{"url": url, "expires_in": int(expires.Seconds())})
}

func (h *Handler) fail(c *gin.Context, err error, msg string, fields ...zap.Field) {
	if !response.IsClientError(err) {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	response.Error(c, err, msg)
}
