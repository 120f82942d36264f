package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SectionType is the closed set of section kinds.
type SectionType string

const (
	TypeText    SectionType = "text"
	TypeImage   SectionType = "image"
	TypeGallery SectionType = "gallery"
	TypeButton  SectionType = "button"
	TypeDivider SectionType = "divider"
	TypeEmbed   SectionType = "embed"
)

// Valid reports whether t is a known section type.
func (t SectionType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeGallery, TypeButton, TypeDivider, TypeEmbed:
		return true
	}
	return false
}

// Section is one content block within an issue.
//
// Position is the display order: dense per issue, unique, server-assigned.
// Creation always appends (max+1); only the full-list reorder operation
// restamps positions. Deletions leave gaps; only relative order matters.
type Section struct {
	ID              uuid.UUID       `json:"id"`
	IssueID         uuid.UUID       `json:"issue_id"`
	Type            SectionType     `json:"type"`
	Label           *string         `json:"label,omitempty"`
	BackgroundColor *string         `json:"background_color,omitempty"`
	Visible         bool            `json:"visible"`
	Position        int             `json:"position"`
	Data            json.RawMessage `json:"data"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CloneForDuplicate copies everything except identity and position.
// The payload is shared by reference on purpose: a duplicated image
// section points at the same media asset as the original, not a copy.
func (s *Section) CloneForDuplicate() *Section {
	clone := &Section{
		ID:              uuid.New(),
		IssueID:         s.IssueID,
		Type:            s.Type,
		Visible:         s.Visible,
		Data:            s.Data,
	}
	if s.Label != nil {
		label := *s.Label
		clone.Label = &label
	}
	if s.BackgroundColor != nil {
		color := *s.BackgroundColor
		clone.BackgroundColor = &color
	}
	return clone
}
