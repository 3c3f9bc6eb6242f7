package rental

import (
	"errors"
	"net/http"
	"strconv"

	"equiprent/internal/domain"
	"equiprent/internal/pkg/response"
	"equiprent/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	v1.GET("/equipments/:id/availability", h.CheckAvailability)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	rentals := protected.Group("/rentals")
	{
		rentals.POST("", h.Book)
		rentals.GET("/my", h.ListMine)
	}
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/rentals", h.ListAll)
}

// CheckAvailability: GET /equipments/:id/availability?start_date=&end_date=
func (h *Handler) CheckAvailability(c *gin.Context) {
	res, err := h.service.CheckAvailability(c.Request.Context(), c.Param("id"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	req.UserID = c.GetInt64("user_id")

	rental, err := h.service.Book(c.Request.Context(), req)
	if errors.Is(err, ErrPartialFailure) {
		response.SuccessWithWarning(c, http.StatusCreated,
			gin.H{"rental": toRentalResponse(rental)},
			"PARTIAL_FAILURE",
			"Rental was recorded but the available quantity was not updated; an administrator must reconcile it",
		)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"rental": toRentalResponse(rental)})
}

func (h *Handler) ListMine(c *gin.Context) {
	rows, err := h.service.ListMyRentals(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rentals": toRentalResponses(rows)})
}

// ListAll: GET /admin/rentals?equipment_id=&status=&limit=&offset=
func (h *Handler) ListAll(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := h.service.ListRentals(c.Request.Context(), repository.RentalFilter{
		EquipmentID: c.Query("equipment_id"),
		Status:      domain.RentalStatus(c.Query("status")),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rentals": toRentalResponses(rows)})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
	case errors.Is(err, ErrNoCapacity):
		response.Error(c, http.StatusConflict, "NO_CAPACITY", "No units of this equipment are available")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "RENTAL_CONFLICT", "Equipment is already rented for the selected dates")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "UPSTREAM_ERROR", "Failed to reach the data store")
	}
}
