package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/issue/model"
	"newsletter-backend/internal/domains/issue/service"
	"newsletter-backend/internal/shared"
	"newsletter-backend/internal/shared/response"
)

// IssueHandler handles HTTP requests for newsletter issues.
type IssueHandler struct {
	service service.ServiceInterface
}

func NewIssueHandler(service service.ServiceInterface) *IssueHandler {
	return &IssueHandler{service: service}
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

// Create handles POST /issues
func (h *IssueHandler) Create(c *gin.Context) {
	var req model.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	issue, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, issue)
}

// CreateFromLatest handles POST /issues/from-latest
func (h *IssueHandler) CreateFromLatest(c *gin.Context) {
	issue, err := h.service.CreateFromLatest(c.Request.Context(), actorFromContext(c))
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, issue)
}

// List handles GET /issues
func (h *IssueHandler) List(c *gin.Context) {
	var filter model.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	filter.Normalize()

	issues, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, issues, &response.Meta{
		Page:  filter.Page,
		Limit: filter.PageSize,
		Total: total,
	})
}

// GetByID handles GET /issues/:id
func (h *IssueHandler) GetByID(c *gin.Context) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}

	issue, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, issue)
}

// Update handles PUT /issues/:id
func (h *IssueHandler) Update(c *gin.Context) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	issue, err := h.service.Update(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, issue)
}

// Publish handles POST /issues/:id/publish
func (h *IssueHandler) Publish(c *gin.Context) {
	h.transition(c, h.service.Publish)
}

// Unpublish handles POST /issues/:id/unpublish
func (h *IssueHandler) Unpublish(c *gin.Context) {
	h.transition(c, h.service.Unpublish)
}

// Archive handles POST /issues/:id/archive
func (h *IssueHandler) Archive(c *gin.Context) {
	h.transition(c, h.service.Archive)
}

func (h *IssueHandler) transition(c *gin.Context, op func(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Issue, error)) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}

	issue, err := op(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, issue)
}

// Delete handles DELETE /issues/:id
func (h *IssueHandler) Delete(c *gin.Context) {
	id, ok := issueIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
