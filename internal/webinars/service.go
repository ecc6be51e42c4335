package webinars

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/validation"
)

// SlugLookup resolves a webinar by slug.
type SlugLookup interface {
	GetBySlug(ctx context.Context, slug string) (*models.Webinar, error)
}

// Store is the catalog read surface used by the query service.
type Store interface {
	SlugLookup
	ListPublished(ctx context.Context) ([]models.Webinar, error)
	ListSpeakers(ctx context.Context, webinarID uuid.UUID) ([]models.Speaker, error)
}

// RecordingStore lists a webinar's recordings.
type RecordingStore interface {
	ListByWebinar(ctx context.Context, webinarID uuid.UUID, publicOnly bool) ([]models.Recording, error)
}

// FindBySlug resolves slug to a webinar, turning a miss (or a slug no webinar
// could have) into a *models.NotFoundError. Other store errors pass through.
func FindBySlug(ctx context.Context, store SlugLookup, slug string) (*models.Webinar, error) {
	if !validation.IsSlug(slug) {
		return nil, models.ErrNotFound("webinar %q not found", slug)
	}
	w, err := store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, models.ErrNotFound("webinar %q not found", slug)
		}
		return nil, err
	}
	return w, nil
}

// Service assembles the public webinar views.
type Service struct {
	store      Store
	recordings RecordingStore
	logger     *zap.Logger
}

// NewService creates the webinar query service.
func NewService(store Store, recordings RecordingStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, recordings: recordings, logger: logger}
}

// ListPublished returns published webinars, latest start first.
func (s *Service) ListPublished(ctx context.Context) ([]models.Webinar, error) {
	list, err := s.store.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Webinar, 0, len(list))
	for _, w := range list {
		if w.IsPublished {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Webinar) int {
		return b.StartsAt.Compare(a.StartsAt)
	})
	return out, nil
}

// GetDetail returns the webinar with its ordered speakers and public recordings.
// Speaker and recording failures degrade to empty lists.
func (s *Service) GetDetail(ctx context.Context, slug string) (*models.WebinarDetail, error) {
	w, err := FindBySlug(ctx, s.store, slug)
	if err != nil {
		return nil, err
	}

	detail := &models.WebinarDetail{
		Webinar:    *w,
		Speakers:   []models.Speaker{},
		Recordings: []models.Recording{},
	}

	speakers, err := s.store.ListSpeakers(ctx, w.ID)
	if err != nil {
		s.logger.Warn("list speakers failed", zap.Error(err), zap.String("webinar_id", w.ID.String()))
	} else if speakers != nil {
		slices.SortStableFunc(speakers, func(a, b models.Speaker) int {
			return a.SortOrder - b.SortOrder
		})
		detail.Speakers = speakers
	}

	recordings, err := s.recordings.ListByWebinar(ctx, w.ID, true)
	if err != nil {
		s.logger.Warn("list recordings failed", zap.Error(err), zap.String("webinar_id", w.ID.String()))
	} else if recordings != nil {
		slices.SortStableFunc(recordings, func(a, b models.Recording) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		detail.Recordings = recordings
	}

	return detail, nil
}
