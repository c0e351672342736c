package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-platform/internal/booking"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/pipeline"
	"booking-platform/internal/utils"
)

type BookingHandler struct {
	orchestrator *booking.Orchestrator
	pipe         *pipeline.Pipeline
	log          *logger.Logger
}

func NewBookingHandler(orchestrator *booking.Orchestrator, pipe *pipeline.Pipeline, log *logger.Logger) *BookingHandler {
	return &BookingHandler{orchestrator: orchestrator, pipe: pipe, log: log}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result := h.pipe.Execute(c.Request.Context(), booking.CreateCommand{Req: &req},
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			cmd := pipelineReq.(booking.CreateCommand)
			created, err := h.orchestrator.CreateBooking(ctx, cmd.Req)
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(created)
		})

	respond(c, http.StatusCreated, "Booking created", result)
}

// GetBooking handles GET /api/v1/bookings/:id. The read goes through the
// caching behavior, so a warm entry skips the store entirely.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	query := booking.GetQuery{BookingID: c.Param("id")}

	result := h.pipe.Execute(c.Request.Context(), query,
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			q := pipelineReq.(booking.GetQuery)
			found, err := h.orchestrator.GetBooking(ctx, q.BookingID)
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(found)
		})

	respond(c, http.StatusOK, "Booking retrieved", result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	// The body is optional; a bare cancel carries no reason.
	_ = c.ShouldBindJSON(&req)

	cmd := booking.CancelCommand{BookingID: c.Param("id"), Reason: req.Reason}

	result := h.pipe.Execute(c.Request.Context(), cmd,
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			command := pipelineReq.(booking.CancelCommand)
			cancelled, err := h.orchestrator.CancelBooking(ctx, command.BookingID, command.Reason)
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(cancelled)
		})

	respond(c, http.StatusOK, "Booking cancelled", result)
}
