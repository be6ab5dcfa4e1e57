package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	recipe *Recipe
	errors []EvalError
	err    error
}

// await waits for a result from ch until ctx is done or timeout elapses.
// On expiry the evaluating goroutine may still be running; its result is
// dropped when it finishes.
func await(ctx context.Context, ch <-chan evalResult, timeout time.Duration) (*Recipe, []EvalError, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case res := <-ch:
		return res.recipe, res.errors, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("evaluation timed out after %s: %w", timeout, ctx.Err())
		}
		return nil, nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())
	}
}
