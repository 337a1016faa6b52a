package dto

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// PaginationParams is the 1-based pagination convention used by the
// filter-style list endpoints. The grid endpoints use 0-based GridParams;
// the two are kept apart on purpose.
type PaginationParams struct {
	Page    int
	PerPage int
}

func (p *PaginationParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
}

func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// GridParams is the 0-based pagination convention used by the data-grid
// endpoints.
type GridParams struct {
	Page     int
	PageSize int
}

func (p *GridParams) Normalize() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// GridResponse mirrors the data-grid contract: one page of items plus the
// unpaged total.
type GridResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}
