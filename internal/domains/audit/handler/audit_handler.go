package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/internal/domains/audit/model"
	"newsletter-backend/internal/domains/audit/service"
	"newsletter-backend/internal/shared/response"
)

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	service service.ServiceInterface
}

func NewAuditHandler(service service.ServiceInterface) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /admin/audit
func (h *AuditHandler) List(c *gin.Context) {
	filter := model.ListFilter{
		ResourceType: c.Query("resource_type"),
	}

	if idStr := c.Query("resource_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			response.BadRequest(c, "invalid resource_id")
			return
		}
		filter.ResourceID = &id
	}

	if idStr := c.Query("actor_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			response.BadRequest(c, "invalid actor_id")
			return
		}
		filter.ActorID = &id
	}

	if actionStr := c.Query("action"); actionStr != "" {
		action := model.Action(actionStr)
		if !action.Valid() {
			response.BadRequest(c, "unknown action tag")
			return
		}
		filter.Action = &action
	}

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Normalize()

	events, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.InternalServerError(c, "failed to list audit events")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, events, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}
