package availability

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lodging/internal/domain"
	"lodging/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public search under /properties/:tenantId.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/properties/:tenantId/availability", h.Search)
}

func (h *Handler) Search(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Param("tenantId"), 10, 64)
	if err != nil || tenantID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid property id")
		return
	}

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out are required")
		return
	}
	q := SearchQuery{Guests: req.Guests}
	if q.Guests == 0 {
		q.Guests = 1
	}
	if q.CheckIn, err = domain.ParseDate(req.CheckIn); err != nil {
		response.FromError(c, err)
		return
	}
	if q.CheckOut, err = domain.ParseDate(req.CheckOut); err != nil {
		response.FromError(c, err)
		return
	}

	offers, err := h.service.Search(c.Request.Context(), tenantID, q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	out := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, toOfferResponse(o))
	}
	response.Success(c, http.StatusOK, gin.H{
		"check_in":  req.CheckIn,
		"check_out": req.CheckOut,
		"offers":    out,
	})
}
