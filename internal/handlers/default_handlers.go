package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"sacco_app/internal/models"
	"sacco_app/internal/services"
)

type LoanDefaultHandler struct {
	db       *gorm.DB
	detector *services.DefaultService
}

func NewLoanDefaultHandler(db *gorm.DB) *LoanDefaultHandler {
	return &LoanDefaultHandler{db: db, detector: services.NewDefaultService(db)}
}

// ListDefaults returns delinquency records, filterable by status and aging
// bucket. Bucket filtering happens in memory; days_overdue has no bucket
// column to query against.
func (h *LoanDefaultHandler) ListDefaults(c echo.Context) error {
	query := h.db.Model(&models.LoanDefault{}).Preload("Loan")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN ?", models.ActiveLoanDefaultStatuses)
	}

	var records []models.LoanDefault
	if err := query.Order("days_overdue desc").Find(&records).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch loan defaults")
	}

	if bucket := c.QueryParam("bucket"); bucket != "" {
		filtered := records[:0]
		for i := range records {
			if records[i].AgingBucket() == bucket {
				filtered = append(filtered, records[i])
			}
		}
		records = filtered
	}

	type record struct {
		models.LoanDefault
		Bucket string `json:"aging_bucket"`
	}
	out := make([]record, len(records))
	for i := range records {
		out[i] = record{LoanDefault: records[i], Bucket: records[i].AgingBucket()}
	}
	return c.JSON(http.StatusOK, out)
}

// TriggerSweep runs the default detector on demand. An "as_of" query param
// (YYYY-MM-DD) overrides the current date for reruns over historical dates.
func (h *LoanDefaultHandler) TriggerSweep(c echo.Context) error {
	asOf := time.Now()
	if raw := c.QueryParam("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid as_of (use YYYY-MM-DD)")
		}
		asOf = parsed
	}

	summary, err := h.detector.Sweep(asOf)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Sweep failed")
	}
	return c.JSON(http.StatusOK, summary)
}

// WriteOffDefault transitions a delinquency record and its loan to
// written off. This is the explicit external action; the sweep never
// writes loans off on its own.
func (h *LoanDefaultHandler) WriteOffDefault(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid default ID")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var record models.LoanDefault
		if err := tx.First(&record, id).Error; err != nil {
			return err
		}
		if !record.IsActive() {
			return echo.NewHTTPError(http.StatusConflict, "Default record is not active")
		}

		record.Status = models.LoanDefaultWrittenOff
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		return tx.Model(&models.Loan{}).Where("id = ?", record.LoanID).
			Update("status", models.LoanStatusWrittenOff).Error
	})
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Default record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to write off default")
	}
	return c.NoContent(http.StatusNoContent)
}
