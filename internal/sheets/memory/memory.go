package memory

import (
	"context"
	"sync"

	"gameradar/internal/sheets"
)

// Writer keeps the last mirrored rows in memory.
type Writer struct {
	mu     sync.Mutex
	rows   [][]string
	writes int
}

var _ sheets.RowWriter = (*Writer)(nil)

func New() *Writer { return &Writer{} }

func (w *Writer) ReplaceRows(_ context.Context, rows [][]string) error {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = cp
	w.writes++
	return nil
}

// Rows returns a copy of the mirrored rows.
func (w *Writer) Rows() [][]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]string, len(w.rows))
	for i, r := range w.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
