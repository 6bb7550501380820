package listquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/landing-go/apperror"
)

var testResource = Resource{
	Select:   "p.id, a.account_name, p.contents",
	From:     "posts p JOIN accounts a ON a.id = p.account_id",
	Where:    "p.deleted_at IS NULL AND a.deleted_at IS NULL",
	Count:    "count(p.id)",
	Filters:  map[string]string{"account_name": "a.account_name", "contents": "p.contents"},
	Sorters:  map[string]string{"account_name": "a.account_name", "contents": "p.contents"},
	Tiebreak: "p.id",
}

func TestCompile_NoParams(t *testing.T) {
	q, err := Compile(testResource, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT p.id, a.account_name, p.contents FROM posts p JOIN accounts a ON a.id = p.account_id"+
			" WHERE p.deleted_at IS NULL AND a.deleted_at IS NULL ORDER BY p.id LIMIT $1 OFFSET $2",
		q.DataSQL)
	assert.Equal(t, []any{int64(10), int64(0)}, q.DataArgs)
	assert.Equal(t,
		"SELECT count(p.id) FROM posts p JOIN accounts a ON a.id = p.account_id"+
			" WHERE p.deleted_at IS NULL AND a.deleted_at IS NULL",
		q.CountSQL)
	assert.Empty(t, q.CountArgs)
}

func TestCompile_FiltersAreBoundAndEscaped(t *testing.T) {
	p := DefaultParams()
	p.Filters = map[string]string{
		"contents":     `50%_off\`,
		"account_name": "alice'; DROP TABLE posts; --",
	}
	q, err := Compile(testResource, p)
	require.NoError(t, err)

	assert.Contains(t, q.DataSQL, `a.account_name LIKE $1 ESCAPE '\' AND p.contents LIKE $2 ESCAPE '\'`)
	assert.NotContains(t, q.DataSQL, "DROP")
	assert.NotContains(t, q.CountSQL, "DROP")
	assert.Contains(t, q.DataSQL, "LIMIT $3 OFFSET $4")

	wantFilters := []any{"%alice'; DROP TABLE posts; --%", `%50\%\_off\\%`}
	assert.Equal(t, wantFilters, q.CountArgs)
	assert.Equal(t, append(wantFilters, int64(10), int64(0)), q.DataArgs)
	assert.NotContains(t, q.CountSQL, "LIMIT")
	assert.NotContains(t, q.CountSQL, "ORDER BY")
}

// Several sorters form one comma-separated ORDER BY; they are never joined
// with AND, which would collapse them into a single boolean sort key.
func TestCompile_MultiKeyOrder(t *testing.T) {
	p := DefaultParams()
	p.Sorters = []Sorter{
		{Field: "contents", Direction: Desc},
		{Field: "account_name", Direction: Asc},
	}
	q, err := Compile(testResource, p)
	require.NoError(t, err)
	assert.Contains(t, q.DataSQL, "ORDER BY p.contents DESC, a.account_name ASC, p.id LIMIT")
}

func TestCompile_PageWindow(t *testing.T) {
	p := DefaultParams()
	p.Page, p.PageSize = 2, 5
	q, err := Compile(testResource, p)
	require.NoError(t, err)

	assert.Equal(t, []any{int64(5), int64(5)}, q.DataArgs)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.PageSize)
}

func TestCompile_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		msg    string
	}{
		{"unknown filter", func(p *Params) { p.Filters["nonexistent"] = "x" }, `unknown filter field "nonexistent"`},
		{"unknown sorter", func(p *Params) { p.Sorters = []Sorter{{Field: "id", Direction: Asc}} }, `unknown sort field "id"`},
		{"bad direction", func(p *Params) { p.Sorters = []Sorter{{Field: "contents", Direction: "up"}} }, "must be asc or desc"},
		{"uppercase direction", func(p *Params) { p.Sorters = []Sorter{{Field: "contents", Direction: "DESC"}} }, "must be asc or desc"},
		{"page zero", func(p *Params) { p.Page = 0 }, "page must be at least 1"},
		{"negative page", func(p *Params) { p.Page = -3 }, "page must be at least 1"},
		{"page size zero", func(p *Params) { p.PageSize = 0 }, "page_size must be between 1 and 100"},
		{"negative page size", func(p *Params) { p.PageSize = -10 }, "page_size must be between 1 and 100"},
		{"page size too large", func(p *Params) { p.PageSize = 101 }, "page_size must be between 1 and 100"},
		{"offset overflow", func(p *Params) { p.Page = int(^uint(0) >> 1) }, "page is out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.Filters["contents"] = "ok"
			tt.mutate(&p)

			q, err := Compile(testResource, p)
			require.Error(t, err)
			assert.Equal(t, Query{}, q)
			appErr, ok := apperror.FromError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.InvalidQueryError, appErr.Type)
			assert.Contains(t, appErr.Message, tt.msg)
		})
	}
}

func TestTotalPages(t *testing.T) {
	for total, want := range map[int64]int64{0: 0, 1: 1, 9: 1, 10: 1, 11: 2, 100: 10, 101: 11} {
		got, err := TotalPages(total, 10)
		require.NoError(t, err)
		assert.Equal(t, want, got, "total=%d", total)
	}

	_, err := TotalPages(5, 0)
	assert.True(t, apperror.IsInvalidQuery(err))
	_, err = TotalPages(5, -1)
	assert.True(t, apperror.IsInvalidQuery(err))
}
