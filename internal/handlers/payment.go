package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-platform/internal/booking"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
	"booking-platform/internal/payments"
	"booking-platform/internal/pipeline"
	"booking-platform/internal/utils"
)

type PaymentHandler struct {
	payments *payments.Service
	bookings *booking.Orchestrator
	pipe     *pipeline.Pipeline
	log      *logger.Logger
}

func NewPaymentHandler(pay *payments.Service, bookings *booking.Orchestrator, pipe *pipeline.Pipeline, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: pay, bookings: bookings, pipe: pipe, log: log}
}

// InitiatePayment handles POST /api/v1/payments/initiate. The amount always
// comes from the stored booking, never from the client.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result := h.pipe.Execute(c.Request.Context(), payments.InitiateCommand{Req: &req},
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			cmd := pipelineReq.(payments.InitiateCommand)

			booked, err := h.bookings.GetBooking(ctx, cmd.Req.BookingID)
			if err != nil {
				return failure(err)
			}
			if booked.Status != models.BookingPending {
				return pipeline.Fail(pipeline.CodeIllegalTransition, "booking is not awaiting payment")
			}

			payment, err := h.payments.Initiate(ctx, booked.BookingID, booked.TotalPrice, cmd.Req.Method, cmd.Req.ReturnURL)
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(payment)
		})

	respond(c, http.StatusCreated, "Payment initiated", result)
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	query := payments.GetQuery{PaymentID: c.Param("id")}

	result := h.pipe.Execute(c.Request.Context(), query,
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			q := pipelineReq.(payments.GetQuery)
			payment, err := h.payments.GetPayment(ctx, q.PaymentID)
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(payment)
		})

	respond(c, http.StatusOK, "Payment retrieved", result)
}

// RefundPayment handles POST /api/v1/payments/refund. The payment may be
// named directly or through its booking.
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result := h.pipe.Execute(c.Request.Context(), payments.RefundCommand{Req: &req},
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			cmd := pipelineReq.(payments.RefundCommand)

			paymentID := cmd.Req.PaymentID
			if paymentID == "" {
				payment, err := h.payments.GetPaymentByBookingID(ctx, cmd.Req.BookingID)
				if err != nil {
					return failure(err)
				}
				paymentID = payment.PaymentID
			}

			refundID, err := h.payments.Refund(ctx, paymentID, cmd.Req.Reason)
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(gin.H{"payment_id": paymentID, "refund_id": refundID})
		})

	respond(c, http.StatusOK, "Payment refunded", result)
}

// Webhook handles POST /api/v1/payments/webhook, the asynchronous gateway
// callback. Signature verification happens inside the payment service before
// anything else is trusted.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Cannot read payload", err.Error()))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Signature")
	}

	cmd := payments.CallbackCommand{Payload: payload, Signature: signature}

	result := h.pipe.Execute(c.Request.Context(), cmd,
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			command := pipelineReq.(payments.CallbackCommand)
			succeeded, err := h.payments.HandleCallback(ctx, command.Payload, command.Signature)
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(gin.H{"settled": succeeded})
		})

	respond(c, http.StatusOK, "Callback processed", result)
}
