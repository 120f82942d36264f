package model

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// =====================================================
// SECTION PAYLOADS (tagged union keyed by SectionType)
// =====================================================
// Each section type carries its own validated payload schema instead of
// an untyped blob, so rendering and migrations can switch exhaustively.

// TextPayload - rich text content (sanitized before persistence).
type TextPayload struct {
	HTML string `json:"html"`
}

func (p TextPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.HTML,
			validation.Required.Error("html content is required"),
			validation.Length(1, 50000),
		),
	)
}

// ImagePayload - a single media asset with presentation fields.
type ImagePayload struct {
	MediaID uuid.UUID `json:"media_id"`
	Alt     string    `json:"alt,omitempty"`
	Caption string    `json:"caption,omitempty"`
}

func (p ImagePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MediaID,
			validation.Required.Error("media_id is required"),
			validation.By(requireUUID),
		),
		validation.Field(&p.Caption, validation.Length(0, 500)),
	)
}

// GalleryPayload - an ordered set of media assets.
type GalleryPayload struct {
	MediaIDs []uuid.UUID `json:"media_ids"`
	Layout   string      `json:"layout,omitempty"` // grid, carousel
}

func (p GalleryPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MediaIDs,
			validation.Required.Error("media_ids is required"),
			validation.Length(1, 20),
		),
		validation.Field(&p.Layout, validation.In("", "grid", "carousel")),
	)
}

// ButtonPayload - a call-to-action link.
type ButtonPayload struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func (p ButtonPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Text,
			validation.Required.Error("button text is required"),
			validation.Length(1, 120),
		),
		validation.Field(&p.URL,
			validation.Required.Error("button url is required"),
			is.URL.Error("invalid url"),
		),
	)
}

// DividerPayload - a horizontal separator.
type DividerPayload struct {
	Style string `json:"style,omitempty"` // line, dots, space
}

func (p DividerPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Style, validation.In("", "line", "dots", "space")),
	)
}

// EmbedPayload - third-party embedded content.
type EmbedPayload struct {
	URL      string `json:"url"`
	Provider string `json:"provider,omitempty"`
}

func (p EmbedPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.URL,
			validation.Required.Error("embed url is required"),
			is.URL.Error("invalid url"),
		),
	)
}

func requireUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return fmt.Errorf("must be a valid uuid")
	}
	return nil
}

// ValidatePayload unmarshals data into the payload schema for the given
// type and validates it. Unknown types are rejected, which keeps the
// union closed at the API boundary.
func ValidatePayload(t SectionType, data json.RawMessage) error {
	if len(data) == 0 {
		return fmt.Errorf("section data is required")
	}

	switch t {
	case TypeText:
		var p TextPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("invalid text payload: %w", err)
		}
		return p.Validate()
	case TypeImage:
		var p ImagePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("invalid image payload: %w", err)
		}
		return p.Validate()
	case TypeGallery:
		var p GalleryPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("invalid gallery payload: %w", err)
		}
		return p.Validate()
	case TypeButton:
		var p ButtonPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("invalid button payload: %w", err)
		}
		return p.Validate()
	case TypeDivider:
		var p DividerPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("invalid divider payload: %w", err)
		}
		return p.Validate()
	case TypeEmbed:
		var p EmbedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("invalid embed payload: %w", err)
		}
		return p.Validate()
	default:
		return fmt.Errorf("unknown section type: %s", t)
	}
}

// SanitizeHTML rewrites the html field of a text payload through clean.
// Other payload types carry no free HTML and pass through unchanged.
func SanitizeHTML(t SectionType, data json.RawMessage, clean func(string) string) (json.RawMessage, error) {
	if t != TypeText {
		return data, nil
	}

	var p TextPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid text payload: %w", err)
	}

	p.HTML = clean(p.HTML)

	out, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to re-marshal text payload: %w", err)
	}
	return out, nil
}

// MediaRefs extracts the media ids a payload references. Used to verify
// that duplicated sections share references instead of copying assets.
func MediaRefs(t SectionType, data json.RawMessage) []uuid.UUID {
	switch t {
	case TypeImage:
		var p ImagePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil
		}
		return []uuid.UUID{p.MediaID}
	case TypeGallery:
		var p GalleryPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil
		}
		return p.MediaIDs
	default:
		return nil
	}
}
