package sheets

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no spreadsheet is set up for mirroring.
var ErrNotConfigured = errors.New("sheet mirror not configured")

// RowWriter replaces the whole contents of the mirror sheet. The first row
// is the header.
type RowWriter interface {
	ReplaceRows(ctx context.Context, rows [][]string) error
}
