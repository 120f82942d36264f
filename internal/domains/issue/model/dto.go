package model

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{0,32})$`)

// =====================================================
// REQUEST DTOs
// =====================================================

// CreateIssueRequest creates a new draft issue. Version starts at 1;
// status is always draft.
type CreateIssueRequest struct {
	Title           string     `json:"title" binding:"required"`
	BannerText      string     `json:"banner_text"`
	BannerMediaID   *uuid.UUID `json:"banner_media_id"`
	BackgroundColor *string    `json:"background_color"`
	Tags            []string   `json:"tags"`
}

func (r CreateIssueRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, 200),
		),
		validation.Field(&r.BannerText, validation.Length(0, 500)),
		validation.Field(&r.Tags, validation.Length(0, 20)),
	)
}

// UpdateIssueRequest patches issue metadata. Nil fields are unchanged.
// Status is not patchable here; lifecycle moves through the dedicated
// publish/unpublish/archive operations.
type UpdateIssueRequest struct {
	Title           *string    `json:"title"`
	BannerText      *string    `json:"banner_text"`
	BannerMediaID   *uuid.UUID `json:"banner_media_id"`
	BackgroundColor *string    `json:"background_color"`
	Tags            []string   `json:"tags"`
}

func (r UpdateIssueRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(1, 200)),
		validation.Field(&r.BannerText, validation.Length(0, 500)),
		validation.Field(&r.BackgroundColor,
			validation.Match(colorPattern).Error("must be a css color value")),
		validation.Field(&r.Tags, validation.Length(0, 20)),
	)
}

// ListFilter narrows the issue listing.
type ListFilter struct {
	Status   string `form:"status"`
	Tag      string `form:"tag"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// Normalize clamps pagination to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}
