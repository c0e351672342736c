package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-platform/internal/booking"
	"booking-platform/internal/gateway"
	"booking-platform/internal/payments"
	"booking-platform/internal/pipeline"
	"booking-platform/internal/storage"
	"booking-platform/internal/utils"
	"booking-platform/internal/voucher"
)

// failure translates an engine error into a pipeline result with the right
// taxonomy code. Anything unrecognized is an internal error.
func failure(err error) *pipeline.Result {
	switch {
	case errors.Is(err, storage.ErrInsufficientInventory):
		return pipeline.Fail(pipeline.CodeInsufficientInventory, err.Error())
	case errors.Is(err, storage.ErrVoucherLimitExceeded),
		errors.Is(err, storage.ErrVoucherUserLimitExceeded):
		return pipeline.Fail(pipeline.CodeVoucherLimitExceeded, err.Error())
	case errors.Is(err, voucher.ErrVoucherNotFound):
		return pipeline.Fail(pipeline.CodeNotFound, err.Error())
	case errors.Is(err, voucher.ErrVoucherInactive),
		errors.Is(err, voucher.ErrVoucherExpired),
		errors.Is(err, voucher.ErrMinimumOrderAmount),
		errors.Is(err, voucher.ErrScopeMismatch):
		return &pipeline.Result{
			Success:    false,
			Code:       pipeline.CodeValidationFailed,
			Error:      err.Error(),
			Violations: []pipeline.Violation{{Field: "voucher_code", Message: err.Error()}},
		}
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, payments.ErrPaymentNotFound),
		errors.Is(err, storage.ErrNotFound):
		return pipeline.Fail(pipeline.CodeNotFound, err.Error())
	case errors.Is(err, booking.ErrCancellationNotAllowed),
		errors.Is(err, booking.ErrNotPending),
		errors.Is(err, payments.ErrIllegalTransition):
		return pipeline.Fail(pipeline.CodeIllegalTransition, err.Error())
	case errors.Is(err, payments.ErrInvalidCallback),
		errors.Is(err, gateway.ErrInvalidSignature):
		return pipeline.Fail(pipeline.CodeInvalidCallback, err.Error())
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		return pipeline.Fail(pipeline.CodeGatewayUnavailable, err.Error())
	case errors.Is(err, storage.ErrConflict):
		return pipeline.Fail(pipeline.CodeConcurrencyConflict, err.Error())
	default:
		return pipeline.Fail(pipeline.CodeInternal, err.Error())
	}
}

func httpStatus(code string) int {
	switch code {
	case pipeline.CodeValidationFailed, pipeline.CodeInvalidCallback:
		return http.StatusBadRequest
	case pipeline.CodeNotFound:
		return http.StatusNotFound
	case pipeline.CodeInsufficientInventory,
		pipeline.CodeVoucherLimitExceeded,
		pipeline.CodeIllegalTransition,
		pipeline.CodeConcurrencyConflict:
		return http.StatusConflict
	case pipeline.CodeGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respond writes a pipeline result with the canonical response envelope.
func respond(c *gin.Context, okStatus int, message string, result *pipeline.Result) {
	if result.Success {
		c.JSON(okStatus, utils.SuccessResponse(message, result.Data))
		return
	}
	body := utils.ErrorResponse(result.Code, result.Error)
	if len(result.Violations) > 0 {
		body["violations"] = result.Violations
	}
	c.JSON(httpStatus(result.Code), body)
}
