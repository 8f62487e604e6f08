package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/molscore/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"unknown property", errors.ErrCodeUnknownProperty, "unknown property \"bogus\""},
		{"invalid molecule", errors.CodeMoleculeInvalidSMILES, "molecule must not be empty"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.Contains(t, ae.Stack, "errors_test.go")
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeMissingColumn, "column %q not in result", "QED")
	assert.Equal(t, `column "QED" not in result`, ae.Message)
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	root := stderrors.New("exit status 1")
	wrapped := errors.Wrap(root, errors.ErrCodeEngineInvocation, "scoring engine failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeEngineInvocation, wrapped.Code)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	inner := errors.New(errors.ErrCodeEmptyResult, "no rows")
	outer := errors.Wrap(inner, errors.CodeUnknown, "adding context")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeEmptyResult, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	inner := errors.New(errors.ErrCodeEmptyResult, "no rows")
	outer := errors.Wrap(inner, errors.CodeInternal, "unexpected state")
	assert.Equal(t, errors.CodeInternal, outer.Code)
}

func TestAppError_ErrorFormat(t *testing.T) {
	ae := errors.New(errors.ErrCodeUnknownProperty, "unknown property")
	assert.Equal(t, "[SCR_001] unknown property", ae.Error())

	withDetail := ae.WithDetail("selector=bogus")
	assert.Equal(t, "[SCR_001] unknown property: selector=bogus", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")

	withCause := ae.WithCause(stderrors.New("boom"))
	assert.Equal(t, "[SCR_001] unknown property: boom", withCause.Error())
}

func TestAppError_NilReceiverBuilders(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestIsCode_TraversesFmtWrapping(t *testing.T) {
	base := errors.New(errors.ErrCodeEngineTimeout, "deadline")
	wrapped := fmt.Errorf("score: %w", base)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeEngineTimeout))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeEngineInvocation))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeEngineTimeout))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeMissingColumn,
		errors.GetCode(fmt.Errorf("x: %w", errors.New(errors.ErrCodeMissingColumn, "m"))))
}

func TestShorthandFactories(t *testing.T) {
	assert.Equal(t, errors.CodeNotFound, errors.NotFound("x").Code)
	assert.Equal(t, errors.CodeInvalidParam, errors.InvalidParam("x").Code)
	assert.Equal(t, errors.CodeInternal, errors.Internal("x").Code)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.Unavailable("x").Code)
}

//Personal.AI order the ending
