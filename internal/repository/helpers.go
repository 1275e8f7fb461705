package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// paginate normalises paging input and returns the page, size and offset.
func paginate(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size, (page - 1) * size
}

func sortOrder(raw string) string {
	order := strings.ToUpper(raw)
	if order != "ASC" && order != "DESC" {
		return "DESC"
	}
	return order
}

// where accumulates positional conditions for list queries.
type where struct {
	conditions []string
	args       []interface{}
}

func (w *where) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	n := len(w.args)
	w.conditions = append(w.conditions, strings.ReplaceAll(format, "?", fmt.Sprintf("$%d", n)))
}

func (w *where) String() string {
	if len(w.conditions) == 0 {
		return "1=1"
	}
	return strings.Join(w.conditions, " AND ")
}

// insertReturning runs a named INSERT/UPDATE ... RETURNING statement and scans
// the returned columns into dest.
func insertReturning(ctx context.Context, db sqlx.ExtContext, query string, arg interface{}, dest ...interface{}) error {
	bound, args, err := db.BindNamed(query, arg)
	if err != nil {
		return err
	}
	return db.QueryRowxContext(ctx, bound, args...).Scan(dest...)
}

// requireAffected maps a zero-row write onto sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}
