package engine

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/molscore/pkg/errors"
)

func TestClassifyEngineError(t *testing.T) {
	bg := context.Background()
	expired, cancel := context.WithTimeout(bg, 0)
	defer cancel()
	<-expired.Done()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want errors.ErrorCode
	}{
		{"plain failure", bg, stderrors.New("boom"), errors.ErrCodeEngineInvocation},
		{"deadline from context", expired, stderrors.New("killed"), errors.ErrCodeEngineTimeout},
		{"deadline error value", bg, context.DeadlineExceeded, errors.ErrCodeEngineTimeout},
		{"cancelled", bg, context.Canceled, errors.ErrCodeEngineInvocation},
		{"already classified", expired, errors.New(errors.ErrCodeEngineInvocation, "x"), errors.ErrCodeEngineInvocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyEngineError(tt.ctx, tt.err)
			assert.Equal(t, tt.want, errors.GetCode(got))
		})
	}
	assert.Nil(t, classifyEngineError(bg, nil))
}

//Personal.AI order the ending
