package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeMessageQueue       ErrorCode = "COMMON_017"
	ErrCodeStorage            ErrorCode = "COMMON_018"
)

// Aliases
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeCacheError   = ErrCodeCacheError
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")

	CodeMoleculeInvalidSMILES = ErrCodeMoleculeInvalidSMILES
	CodeMessageQueueError     = ErrCodeMessageQueue
	CodeStorageError          = ErrCodeStorage
)

// Molecule Error Codes
const (
	ErrCodeMoleculeInvalidSMILES ErrorCode = "MOL_001"
)

// Scoring Error Codes
const (
	// ErrCodeUnknownProperty: the selector names no known property family, or
	// names the shape family with a variant that has no column label.
	ErrCodeUnknownProperty ErrorCode = "SCR_001"
	// ErrCodeEngineInvocation: the scoring engine failed or exited abnormally.
	ErrCodeEngineInvocation ErrorCode = "SCR_002"
	// ErrCodeEmptyResult: the engine output has a header but no data row.
	ErrCodeEmptyResult ErrorCode = "SCR_003"
	// ErrCodeMissingColumn: the engine output row lacks the expected label.
	ErrCodeMissingColumn ErrorCode = "SCR_004"
	// ErrCodeArtifactCleanup: a transfer artifact could not be removed.
	// Only ever logged.
	ErrCodeArtifactCleanup ErrorCode = "SCR_005"
	ErrCodeEngineTimeout   ErrorCode = "SCR_006"
	ErrCodeArtifactIO      ErrorCode = "SCR_007"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeMessageQueue:       http.StatusInternalServerError,
	ErrCodeStorage:            http.StatusInternalServerError,

	ErrCodeMoleculeInvalidSMILES: http.StatusBadRequest,

	ErrCodeUnknownProperty:  http.StatusBadRequest,
	ErrCodeEngineInvocation: http.StatusBadGateway,
	ErrCodeEmptyResult:      http.StatusBadGateway,
	ErrCodeMissingColumn:    http.StatusBadGateway,
	ErrCodeArtifactCleanup:  http.StatusInternalServerError,
	ErrCodeEngineTimeout:    http.StatusGatewayTimeout,
	ErrCodeArtifactIO:       http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeMessageQueue:       "message queue error",
	ErrCodeStorage:            "object storage error",

	ErrCodeMoleculeInvalidSMILES: "invalid molecule notation",

	ErrCodeUnknownProperty:  "unknown property",
	ErrCodeEngineInvocation: "scoring engine invocation failed",
	ErrCodeEmptyResult:      "scoring engine produced no result row",
	ErrCodeMissingColumn:    "scoring engine result lacks the expected column",
	ErrCodeArtifactCleanup:  "failed to remove transfer artifact",
	ErrCodeEngineTimeout:    "scoring engine timed out",
	ErrCodeArtifactIO:       "failed to prepare transfer artifact",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
