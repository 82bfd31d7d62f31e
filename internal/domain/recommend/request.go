// Package recommend holds the validated recommendation request and the
// request-scoped result types flowing through the retrieval pipeline.
package recommend

import (
	"fmt"
	"strings"

	"github.com/bookwise/bookwise/internal/domain"
)

// Request parameter limits.
const (
	MaxQueryLength   = 1024
	DefaultOverFetch = 50
	MaxOverFetch     = 200
	DefaultLimit     = 16
	MaxLimit         = 50
)

// Request is a validated recommendation query.
type Request struct {
	query     string
	category  string // empty means no category filter
	tone      domain.Tone
	toneSet   bool
	overFetch int
	limit     int
}

// NewRequest validates and normalizes recommendation parameters.
// category and tone accept the "All" sentinel (or empty) for "no filter".
// Defaults: overFetch=50, limit=16. Limit is clamped to overFetch.
func NewRequest(query, category, tone string, overFetch, limit int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}

	parsedTone, toneSet, err := domain.ParseTone(tone)
	if err != nil {
		return Request{}, err
	}

	if category == domain.AllSentinel {
		category = ""
	}

	if overFetch <= 0 {
		overFetch = DefaultOverFetch
	}
	if overFetch > MaxOverFetch {
		overFetch = MaxOverFetch
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if limit > overFetch {
		limit = overFetch
	}

	return Request{
		query:     query,
		category:  category,
		tone:      parsedTone,
		toneSet:   toneSet,
		overFetch: overFetch,
		limit:     limit,
	}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Category returns the category filter, empty when unfiltered.
func (r *Request) Category() string { return r.category }

// FiltersCategory reports whether a concrete category filter was requested.
func (r *Request) FiltersCategory() bool { return r.category != "" }

// Tone returns the requested tone. Only meaningful when FiltersTone is true.
func (r *Request) Tone() domain.Tone { return r.tone }

// FiltersTone reports whether a concrete tone was requested.
func (r *Request) FiltersTone() bool { return r.toneSet }

// OverFetch returns the candidate count requested from the vector index.
func (r *Request) OverFetch() int { return r.overFetch }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }
