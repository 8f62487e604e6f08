package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "SCR_001", ErrCodeUnknownProperty.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeMoleculeInvalidSMILES, 400},
		{ErrCodeUnknownProperty, 400},
		{ErrCodeEngineInvocation, 502},
		{ErrCodeEmptyResult, 502},
		{ErrCodeMissingColumn, 502},
		{ErrCodeEngineTimeout, 504},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), string(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "unknown property", DefaultMessageForCode(ErrCodeUnknownProperty))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeUnknownProperty))
	assert.True(t, IsClientError(ErrCodeMoleculeInvalidSMILES))
	assert.False(t, IsClientError(ErrCodeEngineInvocation))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeEngineTimeout))
	assert.True(t, IsServerError(ErrCodeMissingColumn))
	assert.False(t, IsServerError(ErrCodeUnknownProperty))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "MOL", ModuleForCode(ErrCodeMoleculeInvalidSMILES))
	assert.Equal(t, "SCR", ModuleForCode(ErrCodeEmptyResult))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeHTTPStatus {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	for code := range ErrorCodeHTTPStatus {
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasMessage, "missing message for %s", code)
	}
	for code := range ErrorCodeMessage {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		assert.True(t, hasStatus, "missing status for %s", code)
	}
}

//Personal.AI order the ending
