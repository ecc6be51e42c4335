package models

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is issued to a registrant once the webinar has ended.
// At most one per (user, webinar).
type Certificate struct {
	ID                uuid.UUID `json:"id"`
	WebinarID         uuid.UUID `json:"webinar_id"`
	UserID            uuid.UUID `json:"user_id"`
	CertificateNumber string    `json:"certificate_number"`
	DocumentKey       string    `json:"-"`
	IssuedAt          time.Time `json:"issued_at"`
}

// UserCertificate is a certificate joined with its webinar title, for "my certificates".
type UserCertificate struct {
	Certificate
	WebinarSlug  string `json:"webinar_slug"`
	WebinarTitle string `json:"webinar_title"`
	HasDocument  bool   `json:"has_document"`
}
