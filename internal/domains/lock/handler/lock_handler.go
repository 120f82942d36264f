package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/lock/model"
	"newsletter-backend/internal/domains/lock/service"
	"newsletter-backend/internal/shared"
	"newsletter-backend/internal/shared/response"
)

// LockHandler handles HTTP requests for the edit lock manager.
type LockHandler struct {
	service service.ServiceInterface
}

func NewLockHandler(service service.ServiceInterface) *LockHandler {
	return &LockHandler{service: service}
}

func actorFromContext(c *gin.Context) shared.Actor {
	actor := shared.Actor{
		Name: c.GetString(shared.CtxDisplayName),
		Role: c.GetString(shared.CtxRole),
	}
	if id, ok := c.Get(shared.CtxUserID); ok {
		if uid, ok := id.(uuid.UUID); ok {
			actor.ID = uid
		}
	}
	return actor
}

func issueIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid issue id")
		return uuid.Nil, false
	}
	return id, true
}

// Acquire handles POST /issues/:id/lock
func (h *LockHandler) Acquire(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	result, err := h.service.Acquire(c.Request.Context(), issueID, actorFromContext(c))
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	if !result.Acquired {
		// Structured conflict: the UI renders "locked by X since T".
		response.ErrorWithDetails(c, http.StatusConflict, model.ErrCodeLockHeld,
			"Issue is currently locked by another editor", result)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Heartbeat handles PUT /issues/:id/lock
func (h *LockHandler) Heartbeat(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Heartbeat(c.Request.Context(), issueID, actorFromContext(c)); err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"refreshed": true})
}

// Release handles DELETE /issues/:id/lock
func (h *LockHandler) Release(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Release(c.Request.Context(), issueID, actorFromContext(c)); err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"released": true})
}

// ForceRelease handles DELETE /admin/issues/:id/lock
func (h *LockHandler) ForceRelease(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	if err := h.service.ForceRelease(c.Request.Context(), issueID, actorFromContext(c)); err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"released": true})
}

// GetForIssue handles GET /issues/:id/lock
func (h *LockHandler) GetForIssue(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	info, err := h.service.GetForIssue(c.Request.Context(), issueID)
	if err != nil {
		response.InternalServerError(c, "failed to read lock")
		return
	}

	// A stale or missing lock is reported as absent, not as stale data.
	response.Success(c, http.StatusOK, gin.H{"lock": info})
}

// CleanupStale handles POST /admin/locks/cleanup
// The worker runs the same sweep on a schedule; this is the manual trigger.
func (h *LockHandler) CleanupStale(c *gin.Context) {
	removed, err := h.service.CleanupStale(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, "failed to sweep stale locks")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}
