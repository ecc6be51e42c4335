package webinars

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/response"
)

// SlugParam binds the :slug path segment.
type SlugParam struct {
	Slug string `uri:"slug" binding:"required,slug"`
}

// BindSlug binds :slug, answering 404 for a malformed one. It reports whether
// the handler should continue.
func BindSlug(c *gin.Context) (string, bool) {
	var p SlugParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.Error(c, models.ErrNotFound("webinar %q not found", c.Param("slug")), "invalid slug")
		return "", false
	}
	return p.Slug, true
}

// Handler handles public webinar HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a webinar handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /webinars. On failure the body still carries an empty list.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.ListPublished(c.Request.Context())
	if err != nil {
		h.logger.Error("list published webinars failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, gin.H{"webinars": []models.Webinar{}}, "failed to list webinars")
		return
	}
	if list == nil {
		list = []models.Webinar{}
	}
	response.OK(c, gin.H{"webinars": list})
}

// GetBySlug handles GET /webinars/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	slug, ok := BindSlug(c)
	if !ok {
		return
	}
	detail, err := h.svc.GetDetail(c.Request.Context(), slug)
	if err != nil {
		if !response.IsClientError(err) {
			h.logger.Error("get webinar detail failed", zap.Error(err), zap.String("slug", slug))
		}
		response.Error(c, err, "failed to load webinar")
		return
	}
	response.OK(c, detail)
}
