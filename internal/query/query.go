// Package query serves filtered, paginated reads over stored messages.
//
// Results are ordered by (ts ASC, message_id ASC), a total order, so
// walking pages by offset visits every matching message exactly once.
package query

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"unicode/utf8"

	"github.com/eldtechnologies/hookstore/internal/models"
	"github.com/eldtechnologies/hookstore/internal/store"
)

const (
	DefaultLimit  = 50
	MinLimit      = 1
	MaxLimit      = 100
	MaxQueryChars = 256
)

// Params are the validated listing parameters.
type Params struct {
	Limit  int
	Offset int
	From   string
	Since  string
	Q      string
}

// ValidationError reports a bad query parameter.
type ValidationError struct {
	Param  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Detail)
}

// ParseParams reads listing parameters from a query string. Out-of-range
// limit and offset values are rejected rather than clamped.
func ParseParams(v url.Values) (Params, error) {
	p := Params{Limit: DefaultLimit}

	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &ValidationError{Param: "limit", Detail: "must be an integer"}
		}
		if n < MinLimit || n > MaxLimit {
			return p, &ValidationError{Param: "limit", Detail: fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit)}
		}
		p.Limit = n
	}

	if raw := v.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &ValidationError{Param: "offset", Detail: "must be an integer"}
		}
		if n < 0 {
			return p, &ValidationError{Param: "offset", Detail: "must be >= 0"}
		}
		p.Offset = n
	}

	p.From = v.Get("from")

	if since := v.Get("since"); since != "" {
		if !models.ValidUTCInstant(since) {
			return p, &ValidationError{Param: "since", Detail: "must be an ISO-8601 UTC timestamp ending in Z"}
		}
		p.Since = since
	}

	p.Q = v.Get("q")
	if utf8.RuneCountInString(p.Q) > MaxQueryChars {
		return p, &ValidationError{Param: "q", Detail: fmt.Sprintf("must be at most %d characters", MaxQueryChars)}
	}

	return p, nil
}

// Page is one slice of a listing. Total counts every match regardless of
// Limit and Offset.
type Page struct {
	Data   []models.Message `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// Lister is the storage the engine reads from.
type Lister interface {
	ListMessages(ctx context.Context, filter store.MessageFilter, limit, offset int) ([]models.Message, int, error)
}

// Engine runs listing queries. It has no side effects.
type Engine struct {
	store Lister
}

// NewEngine creates an Engine over s.
func NewEngine(s Lister) *Engine {
	return &Engine{store: s}
}

// List returns the page selected by p.
func (e *Engine) List(ctx context.Context, p Params) (*Page, error) {
	filter := store.MessageFilter{From: p.From, Since: p.Since, Query: p.Q}

	items, total, err := e.store.ListMessages(ctx, filter, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %w", store.ErrStorageUnavailable, err)
	}
	if items == nil {
		items = []models.Message{}
	}

	return &Page{Data: items, Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}
