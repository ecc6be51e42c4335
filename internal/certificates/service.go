package certificates

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
)

// ErrStorageUnavailable is returned when document storage is not configured.
var ErrStorageUnavailable = errors.New("certificate storage is not configured")

// Service serves a user's own certificates.
type Service struct {
	ledger Ledger
	docs   DocumentStore
	logger *zap.Logger
}

// NewService creates the certificate read service. docs may be nil.
func NewService(ledger Ledger, docs DocumentStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, docs: docs, logger: logger}
}

// ListForUser returns the certificates held by user.
func (s *Service) ListForUser(ctx context.Context, user *auth.Identity) ([]models.UserCertificate, error) {
	if user == nil {
		return nil, models.ErrUnauthorized("login required")
	}
	list, err := s.ledger.ListForUser(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.UserCertificate{}
	}
	return list, nil
}

// DownloadURL returns a short-lived URL for the document of certificateID.
// Certificates owned by someone else are reported as not found unless user is an admin.
func (s *Service) DownloadURL(ctx context.Context, user *auth.Identity, certificateID uuid.UUID) (string, time.Duration, error) {
	if user == nil {
		return "", 0, models.ErrUnauthorized("login required")
	}
	cert, err := s.ledger.GetByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", 0, models.ErrNotFound("certificate not found")
		}
		return "", 0, err
	}
	if cert.UserID != user.UserID && !user.IsAdmin() {
		return "", 0, models.ErrNotFound("certificate not found")
	}
	if cert.DocumentKey == "" {
		return "", 0, models.ErrNotFound("certificate has no document")
	}
	if s.docs == nil {
		return "", 0, ErrStorageUnavailable
	}
	return s.docs.PresignDocument(ctx, cert.DocumentKey)
}
