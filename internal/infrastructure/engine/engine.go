// Package engine drives the external scoring engine: the Engine abstraction,
// the subprocess adapter, the transfer channel that ferries one molecule
// across the process boundary, and the extractor that reads the result.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/turtacn/molscore/internal/domain/scoring"
	"github.com/turtacn/molscore/pkg/errors"
)

// Engine runs one scoring job synchronously.  The engine reads the input
// artifact named by job.Parameters.SmilesFile and writes a header-delimited
// CSV to job.Parameters.OutputCSV.
type Engine interface {
	Run(ctx context.Context, job *scoring.JobConfiguration) error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, job *scoring.JobConfiguration) error

// Run calls f(ctx, job).
func (f EngineFunc) Run(ctx context.Context, job *scoring.JobConfiguration) error {
	return f(ctx, job)
}

// classifyEngineError maps a failed engine call to EngineTimeout when the
// request deadline expired, keeps an existing scoring classification, and
// wraps everything else as EngineInvocation.
func classifyEngineError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.IsCode(err, errors.ErrCodeEngineTimeout) || errors.IsCode(err, errors.ErrCodeEngineInvocation) {
		return err
	}
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrCodeEngineTimeout, "scoring engine did not finish before the deadline")
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.Wrap(err, errors.ErrCodeEngineInvocation, "scoring engine call was cancelled")
	}
	return errors.Wrap(err, errors.ErrCodeEngineInvocation, "scoring engine failed")
}

// invoke runs e and turns a panic into an EngineInvocation error.
func invoke(ctx context.Context, e Engine, job *scoring.JobConfiguration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeEngineInvocation, fmt.Sprintf("scoring engine panicked: %v", r))
		}
	}()
	return e.Run(ctx, job)
}

//Personal.AI order the ending
