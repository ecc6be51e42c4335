package webinars

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
)

// ErrNotFound is returned by lookups that match no webinar.
var ErrNotFound = errors.New("webinar not found")

// Columns is the select list matching ScanWebinar, qualified by the "w" alias.
const Columns = `w.id, w.slug, w.title, w.description, w.hero_image_url, w.starts_at, w.ends_at, w.is_published, w.meeting_url, w.created_at, w.updated_at`

// Scanner is satisfied by pgx.Row and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanWebinar scans one row selected with Columns.
func ScanWebinar(row Scanner) (models.Webinar, error) {
	var w models.Webinar
	err := row.Scan(&w.ID, &w.Slug, &w.Title, &w.Description, &w.HeroImageURL, &w.StartsAt, &w.EndsAt, &w.IsPublished, &w.MeetingURL, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// Repository handles webinar and speaker persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a webinar repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPublished returns published webinars, latest start first.
func (r *Repository) ListPublished(ctx context.Context) ([]models.Webinar, error) {
	q := `SELECT ` + Columns + ` FROM webinars w WHERE w.is_published ORDER BY w.starts_at DESC`
	return r.list(ctx, q)
}

// ListEndedBetween returns published webinars whose end time falls in [from, to).
func (r *Repository) ListEndedBetween(ctx context.Context, from, to time.Time) ([]models.Webinar, error) {
	q := `SELECT ` + Columns + ` FROM webinars w
		WHERE w.is_published AND w.ends_at >= $1 AND w.ends_at < $2
		ORDER BY w.ends_at`
	return r.list(ctx, q, from, to)
}

// GetBySlug returns the webinar with slug, or ErrNotFound.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Webinar, error) {
	q := `SELECT ` + Columns + ` FROM webinars w WHERE w.slug = $1`
	return r.get(ctx, q, slug)
}

// ListSpeakers returns a webinar's speakers by sort order, ties in insertion order.
func (r *Repository) ListSpeakers(ctx context.Context, webinarID uuid.UUID) ([]models.Speaker, error) {
	const q = `SELECT id, webinar_id, name, title, avatar_url, bio, sort_order, created_at
		FROM webinar_speakers WHERE webinar_id = $1
		ORDER BY sort_order ASC, created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, q, webinarID)
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	defer rows.Close()

	var list []models.Speaker
	for rows.Next() {
		var s models.Speaker
		if err := rows.Scan(&s.ID, &s.WebinarID, &s.Name, &s.Title, &s.AvatarURL, &s.Bio, &s.SortOrder, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan speaker: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *Repository) get(ctx context.Context, q string, arg any) (*models.Webinar, error) {
	w, err := ScanWebinar(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get webinar: %w", err)
	}
	return &w, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.Webinar, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query webinars: %w", err)
	}
	defer rows.Close()

	var list []models.Webinar
	for rows.Next() {
		w, err := ScanWebinar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webinar: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}
