package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/middleware"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/response"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/validation"
)

// CheckQuery is the query for GET /registrations.
type CheckQuery struct {
	WebinarID string `form:"webinarId" binding:"required,uuid"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Check handles GET /registrations?webinarId=. Anything but a malformed query
// answers 200 with registered=false when the answer is not a confirmed yes.
func (h *Handler) Check(c *gin.Context) {
	var q CheckQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	webinarID, err := uuid.Parse(q.WebinarID)
	if err != nil {
		response.BadRequest(c, "webinarId must be a valid UUID")
		return
	}
	registered := h.svc.IsRegistered(c.Request.Context(), middleware.CurrentUser(c), webinarID)
	response.OK(c, gin.H{"registered": registered})
}

// Register handles POST /webinars/:slug/register for the current user.
func (h *Handler) Register(c *gin.Context) {
	slug, ok := webinars.BindSlug(c)
	if !ok {
		return
	}
	created, err := h.svc.Register(c.Request.Context(), middleware.CurrentUser(c), slug)
	if err != nil {
		if !response.IsClientError(err) {
			h.logger.Error("register failed", zap.Error(err), zap.String("slug", slug))
		}
		response.Error(c, err, "failed to register")
		return
	}
	response.OK(c, gin.H{"registered": true, "created": created})
}

// ListMine handles GET /me/registrations.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		if !response.IsClientError(err) {
			h.logger.Error("list my registrations failed", zap.Error(err))
		}
		response.Error(c, err, "failed to list registrations")
		return
	}
	response.OK(c, gin.H{"webinars": list})
}
