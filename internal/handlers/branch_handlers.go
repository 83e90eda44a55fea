package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"sacco_app/internal/models"
)

type BranchHandler struct {
	db *gorm.DB
}

func NewBranchHandler(db *gorm.DB) *BranchHandler {
	return &BranchHandler{db: db}
}

// ListBranches returns all branches
func (h *BranchHandler) ListBranches(c echo.Context) error {
	var branches []models.Branch
	if err := h.db.Order("id asc").Find(&branches).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch branches")
	}
	return c.JSON(http.StatusOK, branches)
}

// GetBranch returns a single branch
func (h *BranchHandler) GetBranch(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid branch ID")
	}

	var branch models.Branch
	if err := h.db.First(&branch, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Branch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch branch")
	}
	return c.JSON(http.StatusOK, branch)
}

type branchRequest struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// StoreBranch creates a new branch
func (h *BranchHandler) StoreBranch(c echo.Context) error {
	var req branchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name and code are required")
	}

	branch := models.Branch{
		Name:    req.Name,
		Code:    req.Code,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.db.Create(&branch).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create branch")
	}
	return c.JSON(http.StatusCreated, branch)
}

// UpdateBranch updates branch details
func (h *BranchHandler) UpdateBranch(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid branch ID")
	}

	var branch models.Branch
	if err := h.db.First(&branch, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Branch not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch branch")
	}

	var req branchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name != "" {
		branch.Name = req.Name
	}
	if req.Code != "" {
		branch.Code = req.Code
	}
	if req.Phone != "" {
		branch.Phone = req.Phone
	}
	if req.Address != "" {
		branch.Address = req.Address
	}

	if err := h.db.Save(&branch).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update branch")
	}
	return c.JSON(http.StatusOK, branch)
}
