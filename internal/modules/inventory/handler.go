package inventory

import (
	"errors"
	"net/http"

	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	v1.GET("/equipments", h.Search)
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	equipments := admin.Group("/equipments")
	{
		equipments.GET("", h.ListAll)
		equipments.POST("", h.Add)
		equipments.PUT("/:id", h.Update)
		equipments.PATCH("/:id/quantity", h.Reconcile)
	}
}

// Search: GET /equipments?department=&q=
func (h *Handler) Search(c *gin.Context) {
	rows, err := h.service.Search(c.Request.Context(), c.Query("department"), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"equipments": toEquipmentResponses(rows)})
}

func (h *Handler) ListAll(c *gin.Context) {
	rows, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"equipments": toEquipmentResponses(rows)})
}

func (h *Handler) Add(c *gin.Context) {
	var req AddEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	e, err := h.service.AddEquipment(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"equipment": toEquipmentResponse(e)})
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	e, err := h.service.UpdateEquipment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"equipment": toEquipmentResponse(e)})
}

func (h *Handler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "quantity is required")
		return
	}

	e, err := h.service.ReconcileQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"equipment": toEquipmentResponse(e)})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "EQUIPMENT_EXISTS", "Equipment id is already in use")
	case errors.Is(err, ErrBelowCommitted):
		response.Error(c, http.StatusConflict, "BELOW_COMMITTED", err.Error())
	case errors.Is(err, ErrStale):
		response.Error(c, http.StatusConflict, "EQUIPMENT_CHANGED", "Equipment changed while saving; reload and retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "UPSTREAM_ERROR", "Failed to reach the data store")
	}
}
