package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/section/model"
	"newsletter-backend/internal/domains/section/service"
	"newsletter-backend/internal/shared"
	"newsletter-backend/internal/shared/response"
)

// SectionHandler handles HTTP requests for issue sections.
type SectionHandler struct {
	service service.ServiceInterface
}

func NewSectionHandler(service service.ServiceInterface) *SectionHandler {
	return &SectionHandler{service: service}
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

func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+label+" id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /issues/:id/sections
func (h *SectionHandler) Create(c *gin.Context) {
	issueID, ok := parseIDParam(c, "id", "issue")
	if !ok {
		return
	}

	var req model.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	section, err := h.service.Create(c.Request.Context(), actorFromContext(c), issueID, req)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, section)
}

// InsertAt handles POST /issues/:id/sections/insert-at
func (h *SectionHandler) InsertAt(c *gin.Context) {
	issueID, ok := parseIDParam(c, "id", "issue")
	if !ok {
		return
	}

	var req model.InsertAtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	section, err := h.service.InsertAt(c.Request.Context(), actorFromContext(c), issueID, req)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, section)
}

// ListByIssue handles GET /issues/:id/sections
func (h *SectionHandler) ListByIssue(c *gin.Context) {
	issueID, ok := parseIDParam(c, "id", "issue")
	if !ok {
		return
	}

	sections, err := h.service.ListByIssue(c.Request.Context(), issueID)
	if err != nil {
		response.InternalServerError(c, "failed to list sections")
		return
	}

	response.Success(c, http.StatusOK, sections)
}

// GetByID handles GET /sections/:id
func (h *SectionHandler) GetByID(c *gin.Context) {
	sectionID, ok := parseIDParam(c, "id", "section")
	if !ok {
		return
	}

	section, err := h.service.GetByID(c.Request.Context(), sectionID)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, section)
}

// Update handles PUT /sections/:id
func (h *SectionHandler) Update(c *gin.Context) {
	sectionID, ok := parseIDParam(c, "id", "section")
	if !ok {
		return
	}

	var req model.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	section, err := h.service.Update(c.Request.Context(), actorFromContext(c), sectionID, req)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, section)
}

// SetLabel handles PATCH /sections/:id/label
func (h *SectionHandler) SetLabel(c *gin.Context) {
	sectionID, ok := parseIDParam(c, "id", "section")
	if !ok {
		return
	}

	var req model.LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	section, err := h.service.Update(c.Request.Context(), actorFromContext(c), sectionID,
		model.UpdateSectionRequest{Label: &req.Label})
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, section)
}

// SetBackgroundColor handles PATCH /sections/:id/background
func (h *SectionHandler) SetBackgroundColor(c *gin.Context) {
	sectionID, ok := parseIDParam(c, "id", "section")
	if !ok {
		return
	}

	var req model.BackgroundColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	section, err := h.service.Update(c.Request.Context(), actorFromContext(c), sectionID,
		model.UpdateSectionRequest{BackgroundColor: &req.BackgroundColor})
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, section)
}

// ToggleVisibility handles POST /sections/:id/toggle-visibility
func (h *SectionHandler) ToggleVisibility(c *gin.Context) {
	sectionID, ok := parseIDParam(c, "id", "section")
	if !ok {
		return
	}

	section, err := h.service.ToggleVisibility(c.Request.Context(), actorFromContext(c), sectionID)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, section)
}

// Duplicate handles POST /sections/:id/duplicate
func (h *SectionHandler) Duplicate(c *gin.Context) {
	sectionID, ok := parseIDParam(c, "id", "section")
	if !ok {
		return
	}

	section, err := h.service.Duplicate(c.Request.Context(), actorFromContext(c), sectionID)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, section)
}

// Delete handles DELETE /sections/:id
func (h *SectionHandler) Delete(c *gin.Context) {
	sectionID, ok := parseIDParam(c, "id", "section")
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), actorFromContext(c), sectionID); err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Reorder handles PUT /issues/:id/sections/reorder
func (h *SectionHandler) Reorder(c *gin.Context) {
	issueID, ok := parseIDParam(c, "id", "issue")
	if !ok {
		return
	}

	var req model.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Reorder(c.Request.Context(), actorFromContext(c), issueID, req.OrderedIDs); err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reordered": true})
}
