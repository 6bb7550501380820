// Package listquery turns untrusted list parameters (filters, sorters and a
// page window) into parameterized SQL against a fixed allow-list of fields.
//
// Caller-supplied strings only ever reach the database as bound parameter
// values. Field names select a column from the Resource allow-list or fail
// the whole request with an InvalidQueryError; nothing is silently dropped.
//
// The query-string convention is
//
//	filters[<field>]=<substring>&sorters[<field>]=asc|desc&page=2&page_size=20
//
// and every other key is ignored.
package listquery

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/user/landing-go/apperror"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	// MaxPageSize bounds the data window a single request can ask for.
	MaxPageSize = 100
)

// Direction is a sort direction token.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sorter is one ORDER BY key, applied in the order it appeared in the request.
type Sorter struct {
	Field     string
	Direction Direction
}

// Params is a parsed, not yet validated, list request.
type Params struct {
	Filters  map[string]string
	Sorters  []Sorter
	Page     int
	PageSize int
}

// DefaultParams is an unfiltered, unsorted first page.
func DefaultParams() Params {
	return Params{
		Filters:  map[string]string{},
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// Parse reads list parameters from a raw (still escaped) query string.
//
// Sorters keep the order in which their keys first appear. When a key is
// repeated the last value wins, for filters and sorters alike. Malformed
// escapes or non-integer page values are InvalidQueryErrors; direction and
// field checks happen in Compile.
func Parse(rawQuery string) (Params, error) {
	p := DefaultParams()
	sorterPos := map[string]int{}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return Params{}, apperror.NewInvalidQueryError("malformed query string", err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Params{}, apperror.NewInvalidQueryError("malformed query string", err)
		}

		if field, ok := bracketed(key, "filters"); ok {
			p.Filters[field] = value
			continue
		}
		if field, ok := bracketed(key, "sorters"); ok {
			s := Sorter{Field: field, Direction: Direction(value)}
			if i, seen := sorterPos[field]; seen {
				p.Sorters[i] = s
			} else {
				sorterPos[field] = len(p.Sorters)
				p.Sorters = append(p.Sorters, s)
			}
			continue
		}

		switch key {
		case "page":
			if p.Page, err = parseInt(key, value); err != nil {
				return Params{}, err
			}
		case "page_size":
			if p.PageSize, err = parseInt(key, value); err != nil {
				return Params{}, err
			}
		}
	}
	return p, nil
}

// bracketed extracts <field> from "<prefix>[<field>]".
func bracketed(key, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(key, prefix+"[")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, "]")
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperror.NewInvalidQueryError(fmt.Sprintf("%s must be an integer", key), err)
	}
	return n, nil
}
