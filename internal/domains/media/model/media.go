package model

import (
	"time"

	"github.com/google/uuid"
)

// Media is one uploaded asset. Checksum is the hex BLAKE2b-256 digest of
// the file contents; re-uploading identical bytes returns the existing
// row instead of storing a second copy.
type Media struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	StorageKey  string    `json:"-"`
	URL         string    `json:"url"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// allowed upload types; the editor only produces images
var allowedContentTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

func AllowedContentType(ct string) bool {
	return allowedContentTypes[ct]
}

// MaxUploadSize caps a single asset at 10 MiB.
const MaxUploadSize = 10 << 20
