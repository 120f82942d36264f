package model

import (
	"time"

	"github.com/google/uuid"
)

// Action is the closed set of auditable action tags.
type Action string

const (
	ActionIssueCreate    Action = "issue.create"
	ActionIssueUpdate    Action = "issue.update"
	ActionIssuePublish   Action = "issue.publish"
	ActionIssueUnpublish Action = "issue.unpublish"
	ActionIssueArchive   Action = "issue.archive"
	ActionSectionCreate  Action = "section.create"
	ActionSectionUpdate  Action = "section.update"
	ActionSectionDelete  Action = "section.delete"
	ActionSectionReorder Action = "section.reorder"
	ActionMediaUpload    Action = "media.upload"
	ActionMediaDelete    Action = "media.delete"
	ActionUserCreate     Action = "user.create"
	ActionUserUpdate     Action = "user.update"
)

// Valid reports whether a is a known action tag.
func (a Action) Valid() bool {
	switch a {
	case ActionIssueCreate, ActionIssueUpdate, ActionIssuePublish,
		ActionIssueUnpublish, ActionIssueArchive,
		ActionSectionCreate, ActionSectionUpdate, ActionSectionDelete,
		ActionSectionReorder,
		ActionMediaUpload, ActionMediaDelete,
		ActionUserCreate, ActionUserUpdate:
		return true
	}
	return false
}

// Event is one immutable audit record. Events are only ever appended;
// the retention job deletes rows past the horizon but nothing updates them.
type Event struct {
	ID           uuid.UUID              `json:"id"`
	ActorID      uuid.UUID              `json:"actor_id"`
	ActorName    string                 `json:"actor_name"`
	Action       Action                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   uuid.UUID              `json:"resource_id"`
	Detail       map[string]interface{} `json:"detail,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ListFilter narrows an audit listing.
type ListFilter struct {
	ResourceType string
	ResourceID   *uuid.UUID
	ActorID      *uuid.UUID
	Action       *Action
	Page         int
	Limit        int
}

// Normalize applies pagination defaults.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 200 {
		f.Limit = 50
	}
}
