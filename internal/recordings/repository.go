package recordings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
)

// Repository handles webinar recording persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByWebinar returns a webinar's recordings, newest first. With publicOnly,
// recordings hidden from participants are left out.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID, publicOnly bool) ([]models.Recording, error) {
	const q = `SELECT id, webinar_id, url, is_public, created_at
		FROM webinar_recordings
		WHERE webinar_id = $1 AND (is_public OR NOT $2)
		ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, webinarID, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var list []models.Recording
	for rows.Next() {
		var rec models.Recording
		if err := rows.Scan(&rec.ID, &rec.WebinarID, &rec.URL, &rec.IsPublic, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
