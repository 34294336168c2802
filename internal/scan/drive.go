package scan

import (
	"context"
	"errors"
)

// ErrInitFailed is returned by Drive when the task cannot be initialized
var ErrInitFailed = errors.New("scan task failed to initialize")

// StepFunc is called after every completed step
type StepFunc func(done int, total int)

// Drive performs steps until the task is done or ctx is canceled. Cancellation
// is only observed between steps; on cancellation the task is aborted and
// ctx's error returned.
func Drive(ctx context.Context, t *Task, onStep StepFunc) error {
	if t.State() == Created && !t.Init() {
		return ErrInitFailed
	}

	for !t.IsDone() {
		select {
		case <-ctx.Done():
			t.Abort()
			return ctx.Err()
		default:
		}

		t.Perform()
		if t.State() == Aborted {
			return context.Canceled
		}

		if onStep != nil {
			onStep(t.Progress())
		}
	}

	return nil
}
