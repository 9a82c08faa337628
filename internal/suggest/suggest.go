// Package suggest implements the tag suggestion client: given note text it
// asks a model for topical tags. Callers treat any failure as terminal for
// that call; nothing here retries.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/tagnote/internal/apperr"
)

// DefaultTimeout bounds a single suggestion call.
const DefaultTimeout = 5 * time.Second

// Suggester returns suggested tags for a piece of note text.
type Suggester interface {
	Suggest(ctx context.Context, text string) ([]string, error)
}

// Func adapts a plain function to Suggester.
type Func func(ctx context.Context, text string) ([]string, error)

// Suggest calls f.
func (f Func) Suggest(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

// Result is the outcome of one suggestion attempt. Exactly one of Tags or Err
// is meaningful: Err is non-nil on failure and wraps apperr.ErrSuggestionUnavailable.
type Result struct {
	Tags    []string
	Err     error
	Elapsed time.Duration
}

// OK reports whether the attempt succeeded.
func (r Result) OK() bool { return r.Err == nil }

// TagsOrEmpty collapses the result to a tag list: the suggested tags in order
// on success, an empty non-nil slice on failure or when none were suggested.
func (r Result) TagsOrEmpty() []string {
	if r.Err != nil || len(r.Tags) == 0 {
		return []string{}
	}
	out := make([]string, len(r.Tags))
	copy(out, r.Tags)
	return out
}

type outcome struct {
	tags []string
	err  error
}

// Attempt runs one suggestion call bounded by timeout (DefaultTimeout when
// zero or negative). A call still running when the deadline passes is
// abandoned and reported as a failure.
func Attempt(ctx context.Context, s Suggester, text string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		tags, err := s.Suggest(ctx, text)
		done <- outcome{tags: tags, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return Result{Err: unavailable(o.err), Elapsed: time.Since(start)}
		}
		return Result{Tags: o.tags, Elapsed: time.Since(start)}
	case <-ctx.Done():
		return Result{Err: unavailable(ctx.Err()), Elapsed: time.Since(start)}
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrSuggestionUnavailable, err)
}

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("suggest: no provider configured")

// Disabled is used when no provider is configured. Every call fails, so notes
// are created untagged without any network traffic.
type Disabled struct{}

// Suggest always fails.
func (Disabled) Suggest(context.Context, string) ([]string, error) {
	return nil, ErrDisabled
}

// Static returns the same tags for every text.
type Static []string

// Suggest returns a copy of s.
func (s Static) Suggest(context.Context, string) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}
