package pagination

import (
	"net/url"
	"strconv"
)

// Default pagination values
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params represents pagination parameters for outbound list requests
type Params struct {
	Page  int `json:"page"`  // Current page number (1-based)
	Limit int `json:"limit"` // Number of items per page
}

// Meta contains pagination metadata decoded from list responses
type Meta struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// Default returns the first page with the default limit.
func Default() Params {
	return Params{Page: DefaultPage, Limit: DefaultLimit}
}

// Validate ensures pagination parameters are valid and sets defaults if needed
func (p *Params) Validate() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Values encodes the parameters as request query values
func (p Params) Values() url.Values {
	p.Validate()
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	return v
}

// CalculateMeta creates pagination metadata based on total records, for
// endpoints that only return a total count
func (p Params) CalculateMeta(totalRecords int) Meta {
	p.Validate()
	totalPages := (totalRecords + p.Limit - 1) / p.Limit // Ceiling division
	if totalPages < 1 {
		totalPages = 1
	}

	return Meta{
		CurrentPage:  p.Page,
		PerPage:      p.Limit,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
		HasNext:      p.Page < totalPages,
		HasPrevious:  p.Page > 1,
	}
}
