package models

import (
	"time"

	"github.com/google/uuid"
)

// Webinar is a scheduled training session published in the catalog.
type Webinar struct {
	ID           uuid.UUID  `json:"id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	HeroImageURL string     `json:"hero_image_url,omitempty"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	IsPublished  bool       `json:"is_published"`
	MeetingURL   *string    `json:"meeting_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasEnded reports whether the webinar's end time is at or before now.
// A webinar without an end time never counts as ended.
func (w *Webinar) HasEnded(now time.Time) bool {
	if w.EndsAt == nil {
		return false
	}
	return !now.Before(*w.EndsAt)
}

// Speaker presents at a webinar. Listed ascending by SortOrder.
type Speaker struct {
	ID        uuid.UUID `json:"id"`
	WebinarID uuid.UUID `json:"webinar_id"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// WebinarDetail is the public detail view of one webinar.
type WebinarDetail struct {
	Webinar    Webinar     `json:"webinar"`
	Speakers   []Speaker   `json:"speakers"`
	Recordings []Recording `json:"recordings"`
}
