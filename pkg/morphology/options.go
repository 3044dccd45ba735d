package morphology

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives step-wise progress of a long operation. It is called
// synchronously after each scan line or slice, never concurrently.
type ProgressFunc func(completed, total int, message string)

// Option configures a single morphological operation.
type Option func(*settings)

type settings struct {
	ctx      context.Context
	workers  int
	progress ProgressFunc
	logger   logrus.FieldLogger
}

// WithContext makes the operation stop between scan lines once ctx is done.
// The operation then returns an error wrapping ctx.Err().
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithWorkers processes independent lines and slices on up to n goroutines.
// The default is a single worker.
func WithWorkers(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *settings) { s.progress = fn }
}

// WithLogger sets the logger used for debug traces. The default is the
// logrus standard logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		ctx:     context.Background(),
		workers: 1,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// quiet returns settings for work nested inside a reported task: same
// cancellation, single worker, no progress.
func (s *settings) quiet() *settings {
	return &settings{ctx: s.ctx, workers: 1, logger: s.logger}
}

// parallelFor calls body on ranges covering [0, n). Ranges run on up to
// s.workers goroutines; body must call tick once per item processed, and
// stop when tick returns an error.
func (s *settings) parallelFor(n int, message string, body func(start, end int, tick func() error) error) error {
	if n <= 0 {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", message, err)
	}

	var mu sync.Mutex
	done := 0
	tick := func() error {
		mu.Lock()
		done++
		if s.progress != nil {
			s.progress(done, n, message)
		}
		mu.Unlock()
		return s.ctx.Err()
	}

	if s.workers <= 1 || n == 1 {
		if err := body(0, n, tick); err != nil {
			return fmt.Errorf("%s: %w", message, err)
		}
		return nil
	}

	chunks := s.workers * 4
	size := (n + chunks - 1) / chunks
	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(s.workers)
	for start := 0; start < n; start += size {
		start, end := start, min(start+size, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return body(start, end, tick)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return nil
}
