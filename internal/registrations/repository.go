package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/database"
)

// uniqueUserWebinar is the (user_id, webinar_id) constraint on webinar_registrations.
const uniqueUserWebinar = "uq_webinar_registrations_user_webinar"

// Repository handles webinar_registrations persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration for (userID, webinarID). A duplicate pair is
// reported as InsertAlreadyExists, never as a failure.
func (r *Repository) Create(ctx context.Context, userID, webinarID uuid.UUID) models.InsertResult {
	const q = `INSERT INTO webinar_registrations (webinar_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT ` + uniqueUserWebinar + ` DO NOTHING
		RETURNING id`
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, q, webinarID, userID).Scan(&id)
	switch {
	case err == nil:
		return models.Created()
	case errors.Is(err, pgx.ErrNoRows), database.IsUniqueViolationOn(err, uniqueUserWebinar):
		return models.AlreadyExists()
	default:
		return models.Failed(fmt.Errorf("insert registration: %w", err))
	}
}

// Exists reports whether userID is registered for webinarID.
func (r *Repository) Exists(ctx context.Context, userID, webinarID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM webinar_registrations WHERE user_id = $1 AND webinar_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, userID, webinarID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return ok, nil
}

// ListByWebinar returns all registrations for a webinar in registration order.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	const q = `SELECT id, webinar_id, user_id, created_at FROM webinar_registrations
		WHERE webinar_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, webinarID)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.WebinarID, &reg.UserID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// ListWebinarsForUser returns the webinars userID registered for, latest start first.
func (r *Repository) ListWebinarsForUser(ctx context.Context, userID uuid.UUID) ([]models.Webinar, error) {
	q := `SELECT ` + webinars.Columns + ` FROM webinars w
		JOIN webinar_registrations r ON r.webinar_id = w.id
		WHERE r.user_id = $1
		ORDER BY w.starts_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query registered webinars: %w", err)
	}
	defer rows.Close()

	var list []models.Webinar
	for rows.Next() {
		w, err := webinars.ScanWebinar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webinar: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}
