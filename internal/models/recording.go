package models

import (
	"time"

	"github.com/google/uuid"
)

// Recording is a playable recording of a webinar. Listed newest first.
type Recording struct {
	ID        uuid.UUID `json:"id"`
	WebinarID uuid.UUID `json:"webinar_id"`
	URL       string    `json:"url"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}
