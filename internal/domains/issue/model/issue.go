package model

import (
	"time"

	"github.com/google/uuid"
)

// Status is the issue lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// CanTransitionTo enforces the lifecycle: draft and published flip back
// and forth, anything can be archived, archived is terminal.
func (s Status) CanTransitionTo(target Status) bool {
	switch {
	case target == StatusArchived:
		return s != StatusArchived
	case s == StatusDraft && target == StatusPublished:
		return true
	case s == StatusPublished && target == StatusDraft:
		return true
	}
	return false
}

// Issue is one newsletter edition.
//
// Version is the advisory change counter: incremented by exactly one in
// the same transaction as every committed mutation of the issue or its
// sections. Clients compare it to detect concurrent edits; nothing on
// the server branches on it.
type Issue struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	BannerText      string     `json:"banner_text"`
	BannerMediaID   *uuid.UUID `json:"banner_media_id,omitempty"`
	BackgroundColor *string    `json:"background_color,omitempty"`
	Tags            []string   `json:"tags"`
	Status          Status     `json:"status"`
	Version         int        `json:"version"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
