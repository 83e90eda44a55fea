package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Pagination carries the parsed page window for list endpoints
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// PagedResponse is the common envelope for paginated lists
type PagedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// parsePagination reads page/page_size query params with sane bounds
func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	if raw := c.QueryParam("page"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 {
			page = p
		}
	}
	pageSize = 20
	if raw := c.QueryParam("page_size"); raw != "" {
		if s, err := strconv.Atoi(raw); err == nil && s > 0 && s <= 100 {
			pageSize = s
		}
	}
	return page, pageSize
}

// pageWindow computes the pagination envelope and clamps the page
func pageWindow(page, pageSize int, totalCount int64) (Pagination, int) {
	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * pageSize
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, offset
}

// parseID reads a numeric path parameter
func parseID(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
