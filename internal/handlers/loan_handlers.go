package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sacco_app/internal/middleware"
	"sacco_app/internal/models"
	"sacco_app/internal/services"
)

// repayLockTTL bounds how long a stuck repayment can hold a loan lock
const repayLockTTL = 15 * time.Second

type LoanHandler struct {
	db          *gorm.DB
	cache       *services.RedisCache
	allocations *services.AllocationService
	backfills   *services.BackfillService
}

func NewLoanHandler(db *gorm.DB, cache *services.RedisCache) *LoanHandler {
	return &LoanHandler{
		db:          db,
		cache:       cache,
		allocations: services.NewAllocationService(db),
		backfills:   services.NewBackfillService(db),
	}
}

// ListLoans returns loans with optional status/member filters
func (h *LoanHandler) ListLoans(c echo.Context) error {
	page, pageSize := parsePagination(c)

	query := h.db.Model(&models.Loan{}).Preload("Member").Preload("Product")
	if branchID := middleware.BranchID(c); branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if member := c.QueryParam("member_id"); member != "" {
		query = query.Where("member_id = ?", member)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count loans")
	}
	pagination, offset := pageWindow(page, pageSize, totalCount)

	var loans []models.Loan
	if err := query.Order("id desc").Limit(pageSize).Offset(offset).Find(&loans).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loans")
	}
	return c.JSON(http.StatusOK, PagedResponse{Data: loans, Pagination: pagination})
}

type createLoanRequest struct {
	MemberID          uint            `json:"member_id"`
	ProductID         uint            `json:"product_id"`
	Amount            decimal.Decimal `json:"amount"`
	Term              int             `json:"term"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	MonthlyInstalment decimal.Decimal `json:"monthly_instalment"`
	InterestUpfront   bool            `json:"interest_upfront"`
}

// StoreLoan records a new loan application. Total interest defaults to a flat
// amount × rate/100 charge when the origination workflow does not supply one.
func (h *LoanHandler) StoreLoan(c echo.Context) error {
	var req createLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if !req.Amount.IsPositive() {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be positive")
	}
	if req.Term <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Term must be positive")
	}

	var product models.LoanProduct
	if err := h.db.First(&product, req.ProductID).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown loan product")
	}
	if product.MaxAmount.IsPositive() && req.Amount.GreaterThan(product.MaxAmount) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Amount exceeds product maximum %s", product.MaxAmount))
	}

	rate := req.InterestRate
	if !rate.IsPositive() {
		rate = product.InterestRate
	}
	totalInterest := req.TotalInterest
	if totalInterest.IsZero() {
		totalInterest = req.Amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	}

	loan := models.Loan{
		MemberID:          req.MemberID,
		ProductID:         product.ID,
		BranchID:          middleware.BranchID(c),
		Amount:            req.Amount,
		Term:              req.Term,
		InterestRate:      rate,
		TotalInterest:     totalInterest,
		MonthlyInstalment: req.MonthlyInstalment,
		TotalRepaid:       decimal.Zero,
		Balance:           decimal.Zero,
		InterestUpfront:   req.InterestUpfront,
		Status:            models.LoanStatusPending,
	}
	if err := h.db.Create(&loan).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create loan")
	}
	return c.JSON(http.StatusCreated, loan)
}

// GetLoan returns a loan with its member, product, and schedule
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid loan ID")
	}

	var loan models.Loan
	if err := h.db.Preload("Member").Preload("Product").
		Preload("Instalments", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		First(&loan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Loan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan")
	}
	return c.JSON(http.StatusOK, loan)
}

type disburseRequest struct {
	DisbursedAt *time.Time `json:"disbursed_at"`
}

// DisburseLoan marks an approved loan disbursed and generates its full
// instalment schedule. Returns the created schedule for display.
func (h *LoanHandler) DisburseLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid loan ID")
	}

	var req disburseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	disbursedAt := time.Now()
	if req.DisbursedAt != nil {
		disbursedAt = *req.DisbursedAt
	}

	var loan models.Loan
	if err := h.db.Preload("Product").First(&loan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Loan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan")
	}
	if loan.Status != models.LoanStatusPending && loan.Status != models.LoanStatusApproved {
		return echo.NewHTTPError(http.StatusConflict,
			fmt.Sprintf("Loan cannot be disbursed from status %s", loan.Status))
	}

	loan.Status = models.LoanStatusDisbursed
	loan.DisbursedAt = &disbursedAt
	loan.Balance = loan.OpeningBalance()

	// the status flip and the schedule commit together or not at all
	var instalments []models.Instalment
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		rows, err := services.NewScheduleService(tx).Generate(&loan, &loan.Product)
		if err != nil {
			return err
		}
		instalments = rows
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to disburse loan")
	}

	h.invalidateScheduleCache(c, loan.ID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loan":        loan,
		"instalments": instalments,
	})
}

type repayRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	PaidAt    *time.Time      `json:"paid_at"`
}

// RepayLoan applies a validated payment through the allocator. A short redis
// lock serializes concurrent repayments against the same loan.
func (h *LoanHandler) RepayLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid loan ID")
	}

	var req repayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if !req.Amount.IsPositive() {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be positive")
	}

	if h.cache != nil {
		ctx := c.Request().Context()
		locked, lockErr := h.cache.LockLoan(ctx, id, repayLockTTL)
		switch {
		case lockErr != nil:
			c.Logger().Warnf("repayment for loan %d proceeding without lock: %v", id, lockErr)
		case !locked:
			return echo.NewHTTPError(http.StatusConflict, "Another payment is being processed for this loan")
		default:
			defer h.cache.UnlockLoan(ctx, id)
		}
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	repayment, err := h.allocations.Repay(id, req.Amount, models.RepaymentMethod(req.Method), req.Reference, paidAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	h.invalidateScheduleCache(c, id)
	return c.JSON(http.StatusCreated, repayment)
}

// ListRepayments returns a loan's payment history, oldest first
func (h *LoanHandler) ListRepayments(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid loan ID")
	}

	var repayments []models.Repayment
	if err := h.db.Where("loan_id = ?", id).Order("paid_at asc").Find(&repayments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch repayments")
	}
	return c.JSON(http.StatusOK, repayments)
}

// scheduleResponse is the payload for GetSchedule, cached per loan
type scheduleResponse struct {
	Instalments []models.Instalment    `json:"instalments"`
	Summary     models.ScheduleSummary `json:"summary"`
}

// GetSchedule returns the loan's instalments plus an aggregate summary.
// The response is cached per loan and invalidated by every mutating call.
func (h *LoanHandler) GetSchedule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid loan ID")
	}

	fetch := func() (scheduleResponse, error) {
		var instalments []models.Instalment
		if err := h.db.Where("loan_id = ?", id).Order("sequence asc").Find(&instalments).Error; err != nil {
			return scheduleResponse{}, err
		}
		return scheduleResponse{
			Instalments: instalments,
			Summary:     models.SummarizeSchedule(instalments),
		}, nil
	}

	var resp scheduleResponse
	if h.cache != nil {
		resp, err = services.GetOrSet(h.cache, c.Request().Context(), scheduleSummaryKey(id), 5*time.Minute, fetch)
	} else {
		resp, err = fetch()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch schedule")
	}
	return c.JSON(http.StatusOK, resp)
}

type restructureRequest struct {
	Term              int             `json:"term"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	MonthlyInstalment decimal.Decimal `json:"monthly_instalment"`
}

// RestructureLoan commits new terms and regenerates the unsettled schedule
// tail. Settled instalments are preserved verbatim; re-running with the same
// terms reproduces the same tail.
func (h *LoanHandler) RestructureLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid loan ID")
	}

	var req restructureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var loan models.Loan
	if err := h.db.Preload("Product").First(&loan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Loan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan")
	}
	if !loan.IsRepayable() {
		return echo.NewHTTPError(http.StatusConflict,
			fmt.Sprintf("Loan cannot be restructured in status %s", loan.Status))
	}

	if req.Term > 0 {
		loan.Term = req.Term
	}
	if req.InterestRate.IsPositive() {
		loan.InterestRate = req.InterestRate
	}
	if req.TotalInterest.IsPositive() {
		loan.TotalInterest = req.TotalInterest
	}
	if req.MonthlyInstalment.IsPositive() {
		loan.MonthlyInstalment = req.MonthlyInstalment
	}

	// new terms and the regenerated tail commit together or not at all
	var tail []models.Instalment
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}
		rows, err := services.NewRestructureService(tx).Regenerate(loan.ID, &loan.Product)
		if err != nil {
			return err
		}
		tail = rows
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to restructure loan")
	}

	h.invalidateScheduleCache(c, loan.ID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loan":        loan,
		"instalments": tail,
	})
}

// BackfillLoan retroactively constructs the schedule for a loan that predates
// instalment tracking and replays its payment history
func (h *LoanHandler) BackfillLoan(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid loan ID")
	}

	var loan models.Loan
	if err := h.db.Preload("Product").First(&loan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Loan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan")
	}

	instalments, err := h.backfills.Reconcile(loan.ID, &loan.Product, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to backfill schedule")
	}
	if instalments == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"skipped": true,
			"reason":  "loan already has a schedule",
		})
	}

	h.invalidateScheduleCache(c, loan.ID)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"instalments": instalments,
	})
}

func scheduleSummaryKey(loanID uint) string {
	return fmt.Sprintf("loan:%d:schedule-summary", loanID)
}

func (h *LoanHandler) invalidateScheduleCache(c echo.Context, loanID uint) {
	if h.cache == nil {
		return
	}
	_ = h.cache.Delete(c.Request().Context(), scheduleSummaryKey(loanID))
}
