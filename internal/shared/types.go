package shared

import "github.com/google/uuid"

// Asynq queue names
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// Asynq task types
const (
	TypeCleanupStaleLocks = "lock:cleanup_stale"
	TypeAuditRetention    = "audit:retention_prune"
	TypeSearchReindex     = "search:reindex"
)

// Context keys set by the auth middleware
const (
	CtxUserID      = "userID"
	CtxDisplayName = "displayName"
	CtxRole        = "role"
)

// Roles supplied by the auth collaborator
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// Actor identifies the caller performing a mutation, as supplied by the
// auth collaborator. Carried into services for audit stamping.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role string
}
