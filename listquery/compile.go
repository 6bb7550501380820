package listquery

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/user/landing-go/apperror"
)

// Resource is the allow-list and relation a list endpoint queries.
type Resource struct {
	// Select is the column list of the data query.
	Select string
	// From is the relation, joins included.
	From string
	// Where is the visibility predicate every query starts from.
	Where string
	// Count is the aggregate of the count query, e.g. "count(p.id)".
	Count string
	// Filters maps filter field names to the column they substring-match.
	Filters map[string]string
	// Sorters maps sort field names to the column they order by.
	Sorters map[string]string
	// Tiebreak is appended to every ORDER BY so page windows are stable.
	Tiebreak string
}

// Query is a compiled list request: one statement for the page of rows and
// one for the total number of matching rows.
type Query struct {
	DataSQL   string
	DataArgs  []any
	CountSQL  string
	CountArgs []any
	Page      int
	PageSize  int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching value as a literal substring.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// Compile validates p against r and renders the data and count statements.
// Filters are ANDed in field-name order; sorters become a multi-key ORDER BY
// in request order followed by the resource tiebreak.
func Compile(r Resource, p Params) (Query, error) {
	if err := checkWindow(p.Page, p.PageSize); err != nil {
		return Query{}, err
	}

	// Filters come from a map. Sorting the field names keeps placeholder
	// numbering stable, so the same request always compiles to the same SQL.
	fields := make([]string, 0, len(p.Filters))
	for field := range p.Filters {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var (
		where strings.Builder
		args  []any
	)
	// Client input only ever reaches the query as a bound argument. Column
	// names come from the resource's allow-list and unknown fields are
	// rejected before any SQL is built.
	where.WriteString(r.Where)
	for _, field := range fields {
		column, ok := r.Filters[field]
		if !ok {
			return Query{}, apperror.NewInvalidQueryError(fmt.Sprintf("unknown filter field %q", field), nil)
		}
		args = append(args, containsPattern(p.Filters[field]))
		if where.Len() > 0 {
			where.WriteString(" AND ")
		}
		fmt.Fprintf(&where, `%s LIKE $%d ESCAPE '\'`, column, len(args))
	}

	order := make([]string, 0, len(p.Sorters)+1)
	for _, s := range p.Sorters {
		column, ok := r.Sorters[s.Field]
		if !ok {
			return Query{}, apperror.NewInvalidQueryError(fmt.Sprintf("unknown sort field %q", s.Field), nil)
		}
		switch s.Direction {
		case Asc, Desc:
		default:
			return Query{}, apperror.NewInvalidQueryError(fmt.Sprintf("invalid sort direction for %q: must be asc or desc", s.Field), nil)
		}
		order = append(order, column+" "+strings.ToUpper(string(s.Direction)))
	}
	// The tiebreak always sorts last so that rows with equal sort keys keep
	// one order across pages.
	if r.Tiebreak != "" {
		order = append(order, r.Tiebreak)
	}

	whereClause := ""
	if where.Len() > 0 {
		whereClause = " WHERE " + where.String()
	}

	// The count shares the filter arguments but not LIMIT and OFFSET.
	countSQL := fmt.Sprintf("SELECT %s FROM %s%s", r.Count, r.From, whereClause)
	countArgs := slices.Clone(args)

	var data strings.Builder
	fmt.Fprintf(&data, "SELECT %s FROM %s%s", r.Select, r.From, whereClause)
	if len(order) > 0 {
		data.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	dataArgs := append(args, int64(p.PageSize), int64(p.Page-1)*int64(p.PageSize))
	fmt.Fprintf(&data, " LIMIT $%d OFFSET $%d", len(dataArgs)-1, len(dataArgs))

	return Query{
		DataSQL:   data.String(),
		DataArgs:  dataArgs,
		CountSQL:  countSQL,
		CountArgs: countArgs,
		Page:      p.Page,
		PageSize:  p.PageSize,
	}, nil
}

func checkWindow(page, pageSize int) error {
	if page < 1 {
		return apperror.NewInvalidQueryError("page must be at least 1", nil)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return apperror.NewInvalidQueryError(fmt.Sprintf("page_size must be between 1 and %d", MaxPageSize), nil)
	}
	if int64(page-1) > math.MaxInt64/int64(pageSize) {
		return apperror.NewInvalidQueryError("page is out of range", nil)
	}
	return nil
}

// TotalPages is ceil(total / pageSize). A non-positive pageSize is an
// InvalidQueryError rather than a division by zero.
func TotalPages(total int64, pageSize int) (int64, error) {
	if pageSize <= 0 {
		return 0, apperror.NewInvalidQueryError("invalid page size", nil)
	}
	size := int64(pageSize)
	return (total + size - 1) / size, nil
}
