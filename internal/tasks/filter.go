package tasks

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/database/models"
	"gorm.io/gorm"
)

// Filter describes a filtered, sorted, paged task query. Page is 1-based;
// the data-grid path uses the 0-based GridQuery instead. The two
// conventions are deliberate and never converted implicitly.
type Filter struct {
	SearchTerm       string
	Status           *models.TaskStatus
	OwnerID          *uuid.UUID
	StartDate        *time.Time
	EndDate          *time.Time
	IncludeCompleted bool
	Page             int
	PageSize         int
	SortBy           string
	SortDesc         bool
}

// DefaultFilter returns the filter the UI starts from: everything
// included, newest first.
func DefaultFilter() Filter {
	return Filter{
		IncludeCompleted: true,
		Page:             1,
		PageSize:         20,
		SortBy:           "createdatutc",
		SortDesc:         true,
	}
}

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

func (f *Filter) offset() int {
	return (f.Page - 1) * f.PageSize
}

// GridQuery is the data-grid variant of a task query. Page is 0-based.
type GridQuery struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
}

func (q *GridQuery) normalize() {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
}

func applyFilters(query *gorm.DB, f Filter) *gorm.DB {
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern,
		)
	}

	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}

	if f.OwnerID != nil {
		query = query.Where("owner_id = ?", *f.OwnerID)
	}

	if f.StartDate != nil {
		query = query.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		// End date is inclusive through the end of that day.
		end := f.EndDate.Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
		query = query.Where("created_at <= ?", end)
	}

	if !f.IncludeCompleted {
		query = query.Where("status <> ?", models.TaskStatusCompleted)
	}

	return query
}

// applySorting orders the query by one of the recognized sort keys.
// Anything unrecognized falls back to newest-first.
func applySorting(query *gorm.DB, sortBy string, desc bool) *gorm.DB {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	switch strings.ToLower(sortBy) {
	case "title":
		return query.Order("title " + dir)
	case "status":
		return query.Order("status " + dir)
	case "createdatutc", "createdat", "created_at":
		return query.Order("created_at " + dir)
	case "modifiedatutc", "modifiedat", "updated_at":
		return query.Order("updated_at " + dir)
	default:
		return query.Order("created_at DESC")
	}
}
