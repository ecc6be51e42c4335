package certificates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/database"
)

// uniqueUserWebinar is the (user_id, webinar_id) constraint on webinar_certificates.
const uniqueUserWebinar = "uq_webinar_certificates_user_webinar"

// ErrNotFound is returned when no certificate matches.
var ErrNotFound = errors.New("certificate not found")

// Repository handles webinar_certificates persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a certificates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCertifiedUserIDs returns the users already holding a certificate for webinarID.
func (r *Repository) ListCertifiedUserIDs(ctx context.Context, webinarID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT user_id FROM webinar_certificates WHERE webinar_id = $1`
	rows, err := r.pool.Query(ctx, q, webinarID)
	if err != nil {
		return nil, fmt.Errorf("query certified users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create inserts c. A second certificate for the same (user, webinar) is
// InsertAlreadyExists; a clash on certificate_number is a failure.
func (r *Repository) Create(ctx context.Context, c *models.Certificate) models.InsertResult {
	const q = `INSERT INTO webinar_certificates (id, webinar_id, user_id, certificate_number, document_key, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT ` + uniqueUserWebinar + ` DO NOTHING
		RETURNING id`
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, q, c.ID, c.WebinarID, c.UserID, c.CertificateNumber, c.DocumentKey, c.IssuedAt).Scan(&id)
	switch {
	case err == nil:
		return models.Created()
	case errors.Is(err, pgx.ErrNoRows), database.IsUniqueViolationOn(err, uniqueUserWebinar):
		return models.AlreadyExists()
	default:
		return models.Failed(fmt.Errorf("insert certificate: %w", err))
	}
}

// GetByID returns one certificate or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	const q = `SELECT id, webinar_id, user_id, certificate_number, document_key, issued_at
		FROM webinar_certificates WHERE id = $1`
	var c models.Certificate
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.WebinarID, &c.UserID, &c.CertificateNumber, &c.DocumentKey, &c.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return &c, nil
}

// ListForUser returns userID's certificates with their webinar, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserCertificate, error) {
	const q = `SELECT c.id, c.webinar_id, c.user_id, c.certificate_number, c.document_key, c.issued_at, w.slug, w.title
		FROM webinar_certificates c
		JOIN webinars w ON w.id = c.webinar_id
		WHERE c.user_id = $1
		ORDER BY c.issued_at DESC, c.id`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query certificates: %w", err)
	}
	defer rows.Close()

	var list []models.UserCertificate
	for rows.Next() {
		var uc models.UserCertificate
		if err := rows.Scan(&uc.ID, &uc.WebinarID, &uc.UserID, &uc.CertificateNumber, &uc.DocumentKey, &uc.IssuedAt, &uc.WebinarSlug, &uc.WebinarTitle); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		uc.HasDocument = uc.DocumentKey != ""
		list = append(list, uc)
	}
	return list, rows.Err()
}
