package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"booking-platform/internal/logger"
	"booking-platform/internal/pipeline"
	"booking-platform/internal/utils"
	"booking-platform/internal/voucher"
)

type VoucherHandler struct {
	vouchers *voucher.Engine
	pipe     *pipeline.Pipeline
	log      *logger.Logger
}

func NewVoucherHandler(vouchers *voucher.Engine, pipe *pipeline.Pipeline, log *logger.Logger) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, pipe: pipe, log: log}
}

// Preview handles GET /api/v1/vouchers/preview. It reports the discount a
// voucher would grant without spending a usage slot.
func (h *VoucherHandler) Preview(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "code is required"))
		return
	}

	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "amount must be a positive number"))
		return
	}

	query := voucher.PreviewQuery{
		Code:       code,
		UserID:     c.Query("user_id"),
		Amount:     amount,
		PropertyID: c.Query("property_id"),
	}
	if roomTypes := c.Query("room_type_ids"); roomTypes != "" {
		query.RoomTypeIDs = strings.Split(roomTypes, ",")
	}

	result := h.pipe.Execute(c.Request.Context(), query,
		func(ctx context.Context, pipelineReq pipeline.Request) *pipeline.Result {
			q := pipelineReq.(voucher.PreviewQuery)
			preview, err := h.vouchers.Preview(ctx, q.Code, q.UserID, q.Amount, q.Scope())
			if err != nil {
				return failure(err)
			}
			return pipeline.Ok(preview)
		})

	respond(c, http.StatusOK, "Voucher preview", result)
}
