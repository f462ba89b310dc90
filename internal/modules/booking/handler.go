package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medislot/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Reserve)
	rg.POST("/bookings/hold", h.Hold)
	rg.POST("/bookings/:id/confirm", h.Confirm)
	rg.GET("/bookings/my", h.MyBookings)
	rg.DELETE("/bookings/my/:id", h.CancelMy)
}

func (h *Handler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	userID := c.GetInt64("user_id")
	b, err := h.service.Reserve(c.Request.Context(), req.SlotID, userID)
	if err != nil {
		h.writeReserveError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) Hold(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	userID := c.GetInt64("user_id")
	b, err := h.service.Hold(c.Request.Context(), req.SlotID, userID)
	if err != nil {
		h.writeReserveError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) Confirm(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}

	userID := c.GetInt64("user_id")
	b, err := h.service.Confirm(c.Request.Context(), bookingID, userID)
	if err != nil {
		switch err {
		case ErrBookingNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case ErrNotOwner:
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Booking belongs to another user")
		case ErrNotPending:
			response.Error(c, http.StatusConflict, "INVALID_STATE", "Booking is not pending")
		default:
			response.Error(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Failed to confirm booking")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) MyBookings(c *gin.Context) {
	userID := c.GetInt64("user_id")
	rows, err := h.service.GetMyBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch bookings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bookings": rows})
}

func (h *Handler) CancelMy(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}

	userID := c.GetInt64("user_id")
	if err := h.service.CancelAsUser(c.Request.Context(), bookingID, userID); err != nil {
		switch err {
		case ErrBookingNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case ErrNotOwner:
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Booking belongs to another user")
		case ErrNotCancellable:
			response.Error(c, http.StatusConflict, "INVALID_STATE", "Booking cannot be cancelled")
		default:
			response.Error(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Failed to cancel booking")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Booking cancelled"})
}

// writeReserveError maps engine errors for the reserve/hold paths. Conflict
// gets its own code: "already taken" is an expected outcome under
// contention and the UI presents it specifically.
func (h *Handler) writeReserveError(c *gin.Context, err error) {
	switch err {
	case ErrSlotNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Slot not found")
	case ErrSlotUnavailable:
		response.Error(c, http.StatusConflict, "SLOT_ALREADY_BOOKED", "Slot already booked")
	default:
		response.Error(c, http.StatusInternalServerError, "TRANSACTION_FAILED", "Booking failed")
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}
