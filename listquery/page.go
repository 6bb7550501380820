package listquery

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/user/landing-go/db"
)

// Page is the list response envelope.
type Page[T any] struct {
	Data      []T   `json:"data"`
	Total     int64 `json:"total"`
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	PageTotal int64 `json:"page_total"`
}

// NewPage wraps one window of rows. Data is never nil so it encodes as [].
func NewPage[T any](data []T, total int64, page, pageSize int) (*Page[T], error) {
	pageTotal, err := TotalPages(total, pageSize)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		Data:      data,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		PageTotal: pageTotal,
	}, nil
}

// Fetch runs both statements of q on conn and scans each data row with
// scan. Run it inside a snapshot transaction when the total must agree with
// the rows.
func Fetch[T any](ctx context.Context, conn db.DBTX, q Query, scan func(pgx.Row) (T, error)) (*Page[T], error) {
	rows, err := conn.Query(ctx, q.DataSQL, q.DataArgs...)
	if err != nil {
		return nil, db.WrapError("failed to list rows", err)
	}
	defer rows.Close()

	data := make([]T, 0, q.PageSize)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, db.WrapError("failed to scan row", err)
		}
		data = append(data, item)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError("failed to list rows", err)
	}
	rows.Close()

	var total int64
	if err := conn.QueryRow(ctx, q.CountSQL, q.CountArgs...).Scan(&total); err != nil {
		return nil, db.WrapError("failed to count rows", err)
	}

	return NewPage(data, total, q.Page, q.PageSize)
}
