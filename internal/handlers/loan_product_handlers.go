package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sacco_app/internal/models"
)

type LoanProductHandler struct {
	db *gorm.DB
}

func NewLoanProductHandler(db *gorm.DB) *LoanProductHandler {
	return &LoanProductHandler{db: db}
}

// ListLoanProducts returns all loan products
func (h *LoanProductHandler) ListLoanProducts(c echo.Context) error {
	var products []models.LoanProduct
	if err := h.db.Order("id asc").Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan products")
	}
	return c.JSON(http.StatusOK, products)
}

// GetLoanProduct returns a single loan product
func (h *LoanProductHandler) GetLoanProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	var product models.LoanProduct
	if err := h.db.First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Loan product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan product")
	}
	return c.JSON(http.StatusOK, product)
}

type loanProductRequest struct {
	Name           string          `json:"name"`
	Frequency      string          `json:"frequency"`
	InterestMethod string          `json:"interest_method"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	PenaltyRate    decimal.Decimal `json:"penalty_rate"`
	InsuranceRate  decimal.Decimal `json:"insurance_rate"`
	MaxAmount      decimal.Decimal `json:"max_amount"`
}

// StoreLoanProduct creates a new loan product
func (h *LoanProductHandler) StoreLoanProduct(c echo.Context) error {
	var req loanProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name is required")
	}

	product := models.LoanProduct{
		Name:           req.Name,
		Frequency:      models.RepaymentFrequency(req.Frequency),
		InterestMethod: models.InterestMethod(req.InterestMethod),
		InterestRate:   req.InterestRate,
		PenaltyRate:    req.PenaltyRate,
		InsuranceRate:  req.InsuranceRate,
		MaxAmount:      req.MaxAmount,
	}
	if product.Frequency == "" {
		product.Frequency = models.FrequencyMonthly
	}
	if product.InterestMethod == "" {
		product.InterestMethod = models.InterestDecliningBalance
	}

	if err := h.db.Create(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create loan product")
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateLoanProduct updates product rates and terms. Existing schedules are
// unaffected; changed terms apply to future generation and restructuring.
func (h *LoanProductHandler) UpdateLoanProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	var product models.LoanProduct
	if err := h.db.First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Loan product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan product")
	}

	var req loanProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Frequency != "" {
		product.Frequency = models.RepaymentFrequency(req.Frequency)
	}
	if req.InterestMethod != "" {
		product.InterestMethod = models.InterestMethod(req.InterestMethod)
	}
	if req.InterestRate.IsPositive() {
		product.InterestRate = req.InterestRate
	}
	if req.PenaltyRate.IsPositive() {
		product.PenaltyRate = req.PenaltyRate
	}
	if req.InsuranceRate.IsPositive() {
		product.InsuranceRate = req.InsuranceRate
	}
	if req.MaxAmount.IsPositive() {
		product.MaxAmount = req.MaxAmount
	}

	if err := h.db.Save(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update loan product")
	}
	return c.JSON(http.StatusOK, product)
}
