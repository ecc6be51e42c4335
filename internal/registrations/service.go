package registrations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
)

// Ledger is the registration store used by the service.
type Ledger interface {
	Create(ctx context.Context, userID, webinarID uuid.UUID) models.InsertResult
	Exists(ctx context.Context, userID, webinarID uuid.UUID) (bool, error)
	ListWebinarsForUser(ctx context.Context, userID uuid.UUID) ([]models.Webinar, error)
}

// Service registers users to webinars.
type Service struct {
	ledger   Ledger
	webinars webinars.SlugLookup
	logger   *zap.Logger
}

// NewService creates a registration service.
func NewService(ledger Ledger, lookup webinars.SlugLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, webinars: lookup, logger: logger}
}

// IsRegistered reports whether user is registered for webinarID. It fails
// closed: an anonymous user or a store error yields false.
func (s *Service) IsRegistered(ctx context.Context, user *auth.Identity, webinarID uuid.UUID) bool {
	if user == nil {
		return false
	}
	ok, err := s.ledger.Exists(ctx, user.UserID, webinarID)
	if err != nil {
		s.logger.Warn("registration check failed", zap.Error(err),
			zap.String("user_id", user.UserID.String()), zap.String("webinar_id", webinarID.String()))
		return false
	}
	return ok
}

// Register registers user for the webinar with slug. Registering twice is not
// an error; created tells the caller whether this call inserted the row.
func (s *Service) Register(ctx context.Context, user *auth.Identity, slug string) (created bool, err error) {
	if user == nil {
		return false, models.ErrUnauthorized("login required to register")
	}
	w, err := webinars.FindBySlug(ctx, s.webinars, slug)
	if err != nil {
		return false, err
	}

	res := s.ledger.Create(ctx, user.UserID, w.ID)
	switch res.Status {
	case models.InsertCreated:
		s.logger.Info("registered", zap.String("user_id", user.UserID.String()), zap.String("webinar_id", w.ID.String()))
		return true, nil
	case models.InsertAlreadyExists:
		return false, nil
	default:
		return false, fmt.Errorf("register %s: %w", slug, res.Err)
	}
}

// ListMine returns the webinars user registered for.
func (s *Service) ListMine(ctx context.Context, user *auth.Identity) ([]models.Webinar, error) {
	if user == nil {
		return nil, models.ErrUnauthorized("login required")
	}
	list, err := s.ledger.ListWebinarsForUser(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Webinar{}
	}
	return list, nil
}
