package model

import "time"

// FilterParams is the raw, optional listing filter as received from a caller.
type FilterParams struct {
	Name        *string
	Color       *string
	Status      *string
	CreatedDate *string // YYYY-MM-DD
}

// IsEmpty reports whether no filter field is set.
func (f FilterParams) IsEmpty() bool {
	return f.Name == nil && f.Color == nil && f.Status == nil && f.CreatedDate == nil
}

// CardFilter is a validated filter predicate; nil fields impose no constraint.
type CardFilter struct {
	Name        *string
	Color       *string
	Status      *Status
	CreatedDate *time.Time // calendar day, UTC midnight
}

// SortField is a whitelisted column cards can be ordered by.
type SortField string

const (
	SortByID          SortField = "id"
	SortByName        SortField = "name"
	SortByColor       SortField = "color"
	SortByStatus      SortField = "status"
	SortByCreatedDate SortField = "createdDate"
	SortByUpdatedDate SortField = "updatedDate"
)

// PageRequest carries zero-based paging and ordering.
type PageRequest struct {
	Page int
	Size int
	Sort SortField
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int { return p.Page * p.Size }

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items      []T
	Page       int
	Size       int
	TotalItems int64
}

// TotalPages derives the page count from TotalItems and Size.
func (p Page[T]) TotalPages() int64 {
	if p.Size <= 0 {
		return 0
	}
	return (p.TotalItems + int64(p.Size) - 1) / int64(p.Size)
}
