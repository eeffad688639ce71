package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/dto"
	"github.com/finpost/voucher_posting_engine/internal/middleware"
)

// voucherHandler handles HTTP requests for voucher use cases.
type voucherHandler struct {
	voucherService portssvc.VoucherSvcFacade
}

func newVoucherHandler(voucherService portssvc.VoucherSvcFacade) *voucherHandler {
	return &voucherHandler{voucherService: voucherService}
}

// registerVoucherRoutes registers voucher routes under a company scope.
func registerVoucherRoutes(group *gin.RouterGroup, voucherService portssvc.VoucherSvcFacade) {
	h := newVoucherHandler(voucherService)

	vouchers := group.Group("/vouchers")
	vouchers.POST("", h.createVoucher)
	vouchers.GET("", h.listVouchers)
	vouchers.GET("/:voucherID", h.getVoucher)
	vouchers.PUT("/:voucherID", h.updateVoucher)
	vouchers.DELETE("/:voucherID", h.deleteVoucher)
	vouchers.POST("/:voucherID/submit", h.submitVoucher)
	vouchers.POST("/:voucherID/approve", h.approveVoucher)
	vouchers.POST("/:voucherID/confirm-custody", h.confirmCustody)
	vouchers.POST("/:voucherID/reject", h.rejectVoucher)
	vouchers.POST("/:voucherID/post", h.postVoucher)
	vouchers.POST("/:voucherID/cancel", h.cancelVoucher)
	vouchers.POST("/:voucherID/reverse", h.reverseVoucher)
}

// createVoucher godoc
// @Summary Create a voucher
// @Description Creates a voucher through its kind handler; by default it is submitted immediately and posted synchronously when no approval gate applies
// @Tags vouchers
// @Accept json
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucher body dto.CreateVoucherRequest true "Voucher to create"
// @Success 201 {object} dto.VoucherResponse
// @Failure 400 {object} map[string]string "Invalid request or core invariant violated"
// @Failure 422 {object} map[string]interface{} "Blocked by posting policy"
// @Router /companies/{companyID}/vouchers [post]
func (h *voucherHandler) createVoucher(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind create voucher request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	voucher, err := h.voucherService.CreateVoucher(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToVoucherResponse(voucher))
}

// getVoucher godoc
// @Summary Get a voucher
// @Description Retrieves a voucher with its lines
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Failure 404 {object} map[string]string "Voucher not found"
// @Router /companies/{companyID}/vouchers/{voucherID} [get]
func (h *voucherHandler) getVoucher(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	voucherID := c.Param("voucherID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	voucher, err := h.voucherService.GetVoucherByID(c.Request.Context(), companyID, voucherID, userID)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
}

// listVouchers godoc
// @Summary List vouchers
// @Description Lists vouchers filtered by kind, status or date range
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param kind query string false "Voucher kind filter"
// @Param status query string false "Status filter"
// @Param from query string false "Date range start (RFC3339)"
// @Param to query string false "Date range end (RFC3339)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.ListVouchersResponse
// @Router /companies/{companyID}/vouchers [get]
func (h *voucherHandler) listVouchers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var params dto.ListVouchersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.voucherService.ListVouchers(c.Request.Context(), companyID, userID, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// updateVoucher godoc
// @Summary Update a voucher
// @Description Edits header fields and lines, honoring the lock frozen at posting time; editing a posted voucher rewrites its ledger entries
// @Tags vouchers
// @Accept json
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Param voucher body dto.UpdateVoucherRequest true "Fields to update"
// @Success 200 {object} dto.VoucherResponse
// @Failure 409 {object} map[string]string "Blocked by posting lock"
// @Router /companies/{companyID}/vouchers/{voucherID} [put]
func (h *voucherHandler) updateVoucher(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	voucherID := c.Param("voucherID")

	var req dto.UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	voucher, err := h.voucherService.UpdateVoucher(c.Request.Context(), companyID, voucherID, req, userID)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
}

// deleteVoucher godoc
// @Summary Delete a voucher
// @Description Deletes a voucher and, when posted, its ledger entries, honoring the posting lock
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 204 "Deleted"
// @Failure 409 {object} map[string]string "Blocked by posting lock"
// @Router /companies/{companyID}/vouchers/{voucherID} [delete]
func (h *voucherHandler) deleteVoucher(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	voucherID := c.Param("voucherID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.voucherService.DeleteVoucher(c.Request.Context(), companyID, voucherID, userID); err != nil {
		respondError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *voucherHandler) transition(c *gin.Context, apply func(ctx *gin.Context, companyID, voucherID, userID string) error) {
	companyID := c.Param("companyID")
	voucherID := c.Param("voucherID")
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := apply(c, companyID, voucherID, userID); err != nil {
		respondError(c, middleware.GetLoggerFromCtx(c.Request.Context()), err)
	}
}

// submitVoucher godoc
// @Summary Submit a voucher for approval
// @Description Moves a Draft or Rejected voucher into the approval workflow, freezing the gate requirements
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Router /companies/{companyID}/vouchers/{voucherID}/submit [post]
func (h *voucherHandler) submitVoucher(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, companyID, voucherID, userID string) error {
		voucher, err := h.voucherService.SubmitVoucher(ctx.Request.Context(), companyID, voucherID, userID)
		if err != nil {
			return err
		}
		ctx.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
		return nil
	})
}

// approveVoucher godoc
// @Summary Approve a voucher
// @Description Satisfies the financial-approval gate; the voucher reaches Approved when the custody gate is also clear
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Router /companies/{companyID}/vouchers/{voucherID}/approve [post]
func (h *voucherHandler) approveVoucher(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, companyID, voucherID, userID string) error {
		voucher, err := h.voucherService.ApproveVoucher(ctx.Request.Context(), companyID, voucherID, userID)
		if err != nil {
			return err
		}
		ctx.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
		return nil
	})
}

// confirmCustody godoc
// @Summary Confirm custody for a voucher
// @Description Records the acting custodian's confirmation; all required custodians must confirm
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Router /companies/{companyID}/vouchers/{voucherID}/confirm-custody [post]
func (h *voucherHandler) confirmCustody(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, companyID, voucherID, userID string) error {
		voucher, err := h.voucherService.ConfirmCustody(ctx.Request.Context(), companyID, voucherID, userID)
		if err != nil {
			return err
		}
		ctx.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
		return nil
	})
}

// rejectVoucher godoc
// @Summary Reject a voucher
// @Description Moves a Pending voucher to Rejected; it can be edited and resubmitted
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Router /companies/{companyID}/vouchers/{voucherID}/reject [post]
func (h *voucherHandler) rejectVoucher(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, companyID, voucherID, userID string) error {
		voucher, err := h.voucherService.RejectVoucher(ctx.Request.Context(), companyID, voucherID, userID)
		if err != nil {
			return err
		}
		ctx.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
		return nil
	})
}

// postVoucher godoc
// @Summary Post a voucher to the ledger
// @Description Validates, runs posting policies, freezes the lock policy and writes the ledger entries; posting an already-posted voucher is a no-op
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Failure 422 {object} map[string]interface{} "Blocked by posting policy"
// @Router /companies/{companyID}/vouchers/{voucherID}/post [post]
func (h *voucherHandler) postVoucher(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, companyID, voucherID, userID string) error {
		voucher, err := h.voucherService.PostVoucher(ctx.Request.Context(), companyID, voucherID, userID)
		if err != nil {
			return err
		}
		ctx.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
		return nil
	})
}

// cancelVoucher godoc
// @Summary Cancel a voucher
// @Description Withdraws an unposted voucher; cancelled vouchers are terminal
// @Tags vouchers
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Router /companies/{companyID}/vouchers/{voucherID}/cancel [post]
func (h *voucherHandler) cancelVoucher(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, companyID, voucherID, userID string) error {
		voucher, err := h.voucherService.CancelVoucher(ctx.Request.Context(), companyID, voucherID, userID)
		if err != nil {
			return err
		}
		ctx.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
		return nil
	})
}

// reverseVoucher godoc
// @Summary Reverse a posted voucher
// @Description Creates and posts a mirror voucher from the actual ledger entries, optionally with a replacement in the same correction group; idempotent
// @Tags vouchers
// @Accept json
// @Produce json
// @Param companyID path string true "Company ID"
// @Param voucherID path string true "Voucher ID"
// @Param reversal body dto.ReverseVoucherRequest true "Reversal request"
// @Success 200 {object} dto.ReverseVoucherResponse
// @Failure 409 {object} map[string]string "Voucher is not posted"
// @Failure 422 {object} map[string]interface{} "Reversal blocked by policy"
// @Router /companies/{companyID}/vouchers/{voucherID}/reverse [post]
func (h *voucherHandler) reverseVoucher(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	voucherID := c.Param("voucherID")

	var req dto.ReverseVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	start := time.Now()
	resp, err := h.voucherService.ReverseVoucher(c.Request.Context(), companyID, voucherID, req, userID)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	logger.Info("Reversal completed",
		slog.String("voucher_id", voucherID),
		slog.Bool("already_reversed", resp.AlreadyReversed),
		slog.Duration("took", time.Since(start)))
	c.JSON(http.StatusOK, resp)
}
