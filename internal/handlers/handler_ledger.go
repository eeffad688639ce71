package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
	"github.com/finpost/voucher_posting_engine/internal/dto"
	"github.com/finpost/voucher_posting_engine/internal/middleware"
	"github.com/finpost/voucher_posting_engine/internal/utils/accounting"
)

// ledgerHandler handles HTTP requests for ledger reporting reads.
type ledgerHandler struct {
	reportingService portssvc.ReportingSvcFacade
	accountService   portssvc.AccountSvcFacade
}

func newLedgerHandler(reportingService portssvc.ReportingSvcFacade, accountService portssvc.AccountSvcFacade) *ledgerHandler {
	return &ledgerHandler{reportingService: reportingService, accountService: accountService}
}

// registerLedgerRoutes registers reporting routes under a company scope.
func registerLedgerRoutes(group *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade, accountService portssvc.AccountSvcFacade) {
	h := newLedgerHandler(reportingService, accountService)

	ledger := group.Group("/ledger")
	ledger.GET("", h.getGeneralLedger)
	ledger.GET("/accounts/:accountID", h.getAccountLedger)
	ledger.GET("/trial-balance", h.getTrialBalance)
}

// getGeneralLedger godoc
// @Summary Read the general ledger
// @Description Returns posted ledger rows filtered by account, voucher or date range
// @Tags ledger
// @Produce json
// @Param companyID path string true "Company ID"
// @Param accountID query string false "Account filter"
// @Param voucherID query string false "Voucher filter"
// @Param from query string false "Date range start (RFC3339)"
// @Param to query string false "Date range end (RFC3339)"
// @Success 200 {array} dto.LedgerEntryResponse
// @Router /companies/{companyID}/ledger [get]
func (h *ledgerHandler) getGeneralLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var params dto.GeneralLedgerParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entries, err := h.reportingService.GetGeneralLedger(c.Request.Context(), companyID, userID, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerEntryResponses(entries))
}

// getAccountLedger godoc
// @Summary Read one account's ledger
// @Description Returns the account's rows in a date range plus its balance signed by the account's natural side
// @Tags ledger
// @Produce json
// @Param companyID path string true "Company ID"
// @Param accountID path string true "Account ID"
// @Param from query string false "Range start (RFC3339), defaults to epoch"
// @Param to query string false "Range end (RFC3339), defaults to now"
// @Success 200 {object} dto.AccountLedgerResponse
// @Router /companies/{companyID}/ledger/accounts/{accountID} [get]
func (h *ledgerHandler) getAccountLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	accountID := c.Param("accountID")

	from, to, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), companyID, accountID)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	entries, err := h.reportingService.GetAccountLedger(c.Request.Context(), companyID, accountID, userID, from, to)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(accounting.SignedAmount(entry, account.AccountType))
	}

	c.JSON(http.StatusOK, dto.AccountLedgerResponse{
		AccountID:   accountID,
		AccountCode: account.Code,
		AccountType: string(account.AccountType),
		Entries:     dto.ToLedgerEntryResponses(entries),
		Balance:     balance,
	})
}

// getTrialBalance godoc
// @Summary Read the trial balance
// @Description Returns per-account debit and credit totals through a date; total debits equal total credits
// @Tags ledger
// @Produce json
// @Param companyID path string true "Company ID"
// @Param through query string false "Through date (RFC3339), defaults to now"
// @Success 200 {array} dto.TrialBalanceRowResponse
// @Router /companies/{companyID}/ledger/trial-balance [get]
func (h *ledgerHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	through := time.Now().UTC()
	if raw := c.Query("through"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid through date: " + err.Error()})
			return
		}
		through = parsed
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rows, err := h.reportingService.GetTrialBalance(c.Request.Context(), companyID, userID, through)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTrialBalanceRowResponses(rows))
}

func dateRange(c *gin.Context) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, err
		}
		to = parsed
	}
	return from, to, nil
}
