package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"sacco_app/internal/middleware"
	"sacco_app/internal/models"
)

type MemberHandler struct {
	db *gorm.DB
}

func NewMemberHandler(db *gorm.DB) *MemberHandler {
	return &MemberHandler{db: db}
}

// ListMembers returns members, optionally scoped to the request's branch
func (h *MemberHandler) ListMembers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	query := h.db.Model(&models.Member{})
	if branchID := middleware.BranchID(c); branchID > 0 {
		query = query.Where("branch_id = ?", branchID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count members")
	}
	pagination, offset := pageWindow(page, pageSize, totalCount)

	var members []models.Member
	if err := query.Order("id asc").Limit(pageSize).Offset(offset).Find(&members).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch members")
	}

	return c.JSON(http.StatusOK, PagedResponse{Data: members, Pagination: pagination})
}

// GetMember returns a single member with their loans
func (h *MemberHandler) GetMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid member ID")
	}

	var member models.Member
	if err := h.db.Preload("Loans").First(&member, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Member not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch member")
	}
	return c.JSON(http.StatusOK, member)
}

type memberRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
	BranchID   uint   `json:"branch_id"`
}

// StoreMember registers a new member
func (h *MemberHandler) StoreMember(c echo.Context) error {
	var req memberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name is required")
	}

	member := models.Member{
		MemberNumber: uuid.New().String(),
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		NationalID:   req.NationalID,
		BranchID:     req.BranchID,
		Status:       models.MemberStatusActive,
	}
	if member.BranchID == 0 {
		member.BranchID = middleware.BranchID(c)
	}

	if err := h.db.Create(&member).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create member")
	}
	return c.JSON(http.StatusCreated, member)
}

// UpdateMember updates member contact details and status
func (h *MemberHandler) UpdateMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid member ID")
	}

	var member models.Member
	if err := h.db.First(&member, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Member not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch member")
	}

	var req memberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name != "" {
		member.Name = req.Name
	}
	if req.Phone != "" {
		member.Phone = req.Phone
	}
	if req.Email != "" {
		member.Email = req.Email
	}
	if req.NationalID != "" {
		member.NationalID = req.NationalID
	}
	if req.BranchID > 0 {
		member.BranchID = req.BranchID
	}
	if status := c.QueryParam("status"); status != "" {
		member.Status = models.MemberStatus(status)
	}

	if err := h.db.Save(&member).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update member")
	}
	return c.JSON(http.StatusOK, member)
}

// DeleteMember soft-deletes a member record
func (h *MemberHandler) DeleteMember(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid member ID")
	}
	if err := h.db.Delete(&models.Member{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete member")
	}
	return c.NoContent(http.StatusNoContent)
}
