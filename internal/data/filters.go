// File: internal/data/filters.go

package data

import (
	"strings"

	"github.com/Pedro-J-Kukul/chatrelay/internal/validator"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Filter holds the paging and sorting parameters shared by listings.
type Filter struct {
	Page         int64    `json:"page"`
	PageSize     int64    `json:"page_size"`
	SortBy       string   `json:"sort_by"`
	SortSafeList []string `json:"-"`
}

// MetaData describes the page that was returned.
type MetaData struct {
	CurrentPage  int64 `json:"current_page,omitempty"`
	PageSize     int64 `json:"page_size,omitempty"`
	FirstPage    int64 `json:"first_page,omitempty"`
	LastPage     int64 `json:"last_page,omitempty"`
	TotalRecords int64 `json:"total_records,omitempty"`
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// ValidateFilters checks paging bounds and that the sort key is safelisted.
func ValidateFilters(v *validator.Validator, f Filter) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000, "page", "must be a maximum of 10000")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(v.Permitted(f.SortBy, f.SortSafeList...), "sort", "invalid sort value")
}

// Limit is the page size.
func (f Filter) Limit() int64 {
	return f.PageSize
}

// Offset is the number of rows before the current page.
func (f Filter) Offset() int64 {
	return (f.Page - 1) * f.PageSize
}

// SortColumn returns the safelisted sort key without its direction prefix.
func (f Filter) SortColumn() string {
	for _, safeValue := range f.SortSafeList {
		if f.SortBy == safeValue {
			return strings.TrimPrefix(f.SortBy, "-")
		}
	}
	panic("unsafe sort parameter: " + f.SortBy)
}

// SortDirection is DESC for keys prefixed with '-', ASC otherwise.
func (f Filter) SortDirection() string {
	if strings.HasPrefix(f.SortBy, "-") {
		return "DESC"
	}
	return "ASC"
}

// CalculateMetaData computes paging metadata from the total record count.
func CalculateMetaData(totalRecords, page, pageSize int64) MetaData {
	if totalRecords == 0 {
		return MetaData{}
	}

	return MetaData{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     (totalRecords + pageSize - 1) / pageSize,
		TotalRecords: totalRecords,
	}
}
