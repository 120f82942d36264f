package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"newsletter-backend/internal/infrastructure/search"
	"newsletter-backend/internal/shared/response"
)

// SearchHandler queries published issues through Meilisearch.
type SearchHandler struct {
	search *search.Meili
}

func NewSearchHandler(s *search.Meili) *SearchHandler {
	return &SearchHandler{search: s}
}

// Search handles GET /search?q=
func (h *SearchHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.BadRequest(c, "query parameter 'q' is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	results, total, err := h.search.Search(q, limit, offset)
	if err != nil {
		// Search degrades to unavailable rather than failing the app.
		response.ServiceUnavailable(c, "search is temporarily unavailable")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results, &response.Meta{
		Limit: limit,
		Total: total,
	})
}
