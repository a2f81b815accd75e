package domain

import (
	"context"
	"errors"
	"strings"
)

// Row is a single record in a remote table. Cells are keyed by column
// title, so callers never depend on column ordering.
type Row struct {
	ID    int64
	Cells map[string]string
}

// Cell returns the trimmed value for a column title, or "" when absent.
func (r Row) Cell(title string) string {
	return strings.TrimSpace(r.Cells[title])
}

// Gateway reads and writes rows of the remote spreadsheet tables.
type Gateway interface {
	GetRows(ctx context.Context, table string) ([]Row, error)
	AddRow(ctx context.Context, table string, cells map[string]string) (Row, error)
	UpdateRow(ctx context.Context, table string, rowID int64, cells map[string]string) error
}

var (
	ErrRemoteUnavailable = errors.New("remote_table_unavailable")
	ErrTableNotFound     = errors.New("table_not_found")
	ErrRowNotFound       = errors.New("row_not_found")
)
