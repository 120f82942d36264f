package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/media/model"
	"newsletter-backend/internal/domains/media/service"
	"newsletter-backend/internal/shared"
	"newsletter-backend/internal/shared/response"
)

// MediaHandler handles media asset uploads and management.
type MediaHandler struct {
	service service.ServiceInterface
}

func NewMediaHandler(service service.ServiceInterface) *MediaHandler {
	return &MediaHandler{service: service}
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

// Upload handles POST /media (multipart form, field "file")
func (h *MediaHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "multipart field 'file' is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "failed to read uploaded file")
		return
	}
	defer file.Close()

	media, err := h.service.Upload(
		c.Request.Context(),
		actorFromContext(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, media)
}

// List handles GET /media
func (h *MediaHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalServerError(c, "failed to list media")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Limit: limit,
		Total: total,
	})
}

// GetByID handles GET /media/:id
func (h *MediaHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}

	media, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, media)
}

// Delete handles DELETE /media/:id
func (h *MediaHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
