package sheets

import (
	"context"
	"time"
)

// Observer receives the outcome of every backend call.
type Observer func(op string, duration time.Duration, err error)

type observed struct {
	next    Backend
	observe Observer
}

// Observe wraps backend so each call is reported to fn.
func Observe(backend Backend, fn Observer) Backend {
	if fn == nil {
		return backend
	}
	return &observed{next: backend, observe: fn}
}

func (o *observed) Title(ctx context.Context) (string, error) {
	start := time.Now()
	title, err := o.next.Title(ctx)
	o.observe("title", time.Since(start), err)
	return title, err
}

func (o *observed) EnsureSheet(ctx context.Context, title string, header []string) (bool, error) {
	start := time.Now()
	created, err := o.next.EnsureSheet(ctx, title, header)
	o.observe("ensure_sheet", time.Since(start), err)
	return created, err
}

func (o *observed) ReadRows(ctx context.Context, title string) ([][]string, error) {
	start := time.Now()
	rows, err := o.next.ReadRows(ctx, title)
	o.observe("read_rows", time.Since(start), err)
	return rows, err
}

func (o *observed) WriteCells(ctx context.Context, title string, cells []Cell) error {
	start := time.Now()
	err := o.next.WriteCells(ctx, title, cells)
	o.observe("write_cells", time.Since(start), err)
	return err
}
