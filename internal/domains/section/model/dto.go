package model

import (
	"encoding/json"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// hex colors or css named colors; the editor palette only emits these
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{0,32})$`)

// =====================================================
// REQUEST DTOs
// =====================================================

// CreateSectionRequest creates a section at the end of the issue.
//
// There is deliberately no order/position field: order is server-assigned
// (max existing + 1, or 0 for the first section). Appending on create is
// what keeps concurrent creates from colliding on an order value.
type CreateSectionRequest struct {
	Type            string          `json:"type" binding:"required"`
	Data            json.RawMessage `json:"data" binding:"required"`
	Label           *string         `json:"label"`
	BackgroundColor *string         `json:"background_color"`
}

func (r CreateSectionRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required.Error("type is required")),
	); err != nil {
		return err
	}

	sectionType := SectionType(r.Type)
	if !sectionType.Valid() {
		return NewInvalidTypeError(r.Type)
	}

	if err := ValidatePayload(sectionType, r.Data); err != nil {
		return NewInvalidPayloadError(err)
	}

	return nil
}

// UpdateSectionRequest patches a section's payload and cosmetic fields.
// Nil fields are left unchanged.
type UpdateSectionRequest struct {
	Data            json.RawMessage `json:"data"`
	Label           *string         `json:"label"`
	BackgroundColor *string         `json:"background_color"`
	Visible         *bool           `json:"visible"`
}

// ReorderRequest carries the complete new ordering: every section id of
// the issue exactly once, in display order.
type ReorderRequest struct {
	OrderedIDs []uuid.UUID `json:"ordered_ids" binding:"required"`
}

func (r ReorderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderedIDs,
			validation.Required.Error("ordered_ids is required"),
		),
	)
}

// InsertAtRequest creates a section and splices it into the ordering at
// Index (0-based, relative to the client's snapshot of the current order).
type InsertAtRequest struct {
	Section CreateSectionRequest `json:"section" binding:"required"`
	Index   int                  `json:"index"`
}

func (r InsertAtRequest) Validate() error {
	if r.Index < 0 {
		return NewInvalidInsertIndexError(r.Index)
	}
	return r.Section.Validate()
}

// BackgroundColorRequest updates only the background color.
type BackgroundColorRequest struct {
	BackgroundColor string `json:"background_color"`
}

func (r BackgroundColorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BackgroundColor,
			validation.Length(0, 32),
			validation.Match(colorPattern).Error("must be a css color value"),
		),
	)
}

// LabelRequest updates only the editor-facing label.
type LabelRequest struct {
	Label string `json:"label"`
}

func (r LabelRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Label, validation.Length(0, 120)),
	)
}
