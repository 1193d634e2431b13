package dashboard

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Интервалы обновления виджетов
const (
	FastInterval = 30 * time.Second // лента активности и health
	SlowInterval = 60 * time.Second // метрики и агрегаты
)

// Panel — виджет, который периодически перезагружает данные
type Panel interface {
	Name() string
	Interval() time.Duration
	// Refresh fetches fresh data; the result is dropped if ctx is already done
	Refresh(ctx context.Context) error
	Render(w io.Writer)
}

// TokenSource returns the current access token
type TokenSource func() string

type widget[T any] struct {
	updated  time.Time
	value    T
	err      error
	fetch    func(ctx context.Context, token string) (T, error)
	render   func(w io.Writer, v T)
	token    TokenSource
	notify   func(name string)
	name     string
	title    string
	interval time.Duration
	loaded   bool
	mu       sync.RWMutex
}

func (w *widget[T]) Name() string {
	return w.name
}

func (w *widget[T]) Interval() time.Duration {
	return w.interval
}

func (w *widget[T]) Refresh(ctx context.Context) error {
	v, err := w.fetch(ctx, w.token())

	// Ответ после Stop/unmount не применяем
	if ctx.Err() != nil {
		return ctx.Err()
	}

	w.mu.Lock()
	if err == nil {
		w.value = v
		w.loaded = true
		w.updated = time.Now()
	}
	w.err = err
	w.mu.Unlock()

	if w.notify != nil {
		w.notify(w.name)
	}
	return err
}

func (w *widget[T]) Render(out io.Writer) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, _ = fmt.Fprintf(out, "── %s ──\n", w.title)
	switch {
	case w.err != nil && !w.loaded:
		_, _ = fmt.Fprintf(out, "  unavailable: %v\n", w.err)
	case !w.loaded:
		_, _ = fmt.Fprintln(out, "  loading...")
	default:
		w.render(out, w.value)
		if w.err != nil {
			_, _ = fmt.Fprintf(out, "  (stale, last refresh failed: %v)\n", w.err)
		}
	}
}
