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
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeMessagingError     ErrorCode = "COMMON_012"
	ErrCodeNotImplemented     ErrorCode = "COMMON_013"
)

// Aliases used throughout the codebase for readability.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeDatabaseError  = ErrCodeDatabaseError
	CodeCacheError     = ErrCodeCacheError
	CodeOK             = ErrorCode("OK")
)

// Notation / Structure Module Error Codes
const (
	ErrCodeNotationInvalid      ErrorCode = "CHEM_001"
	ErrCodeNotationEmpty        ErrorCode = "CHEM_002"
	ErrCodeNotationUnknownElem  ErrorCode = "CHEM_003"
	ErrCodeStructureUnsupported ErrorCode = "CHEM_004"
	ErrCodeStructureNotFound    ErrorCode = "CHEM_005"
	ErrCodeConversionFailed     ErrorCode = "CHEM_006"
	ErrCodeRenderOverflow       ErrorCode = "CHEM_007"
	ErrCodeDepictionFailed      ErrorCode = "CHEM_008"
)

// Backend Module Error Codes
const (
	ErrCodeBackendLoadFailed    ErrorCode = "BCK_001"
	ErrCodeBackendUnavailable   ErrorCode = "BCK_002"
	ErrCodeBackendUnsupported   ErrorCode = "BCK_003"
	ErrCodeBackendNotRegistered ErrorCode = "BCK_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeNotationInvalid:      http.StatusBadRequest,
	ErrCodeNotationEmpty:        http.StatusBadRequest,
	ErrCodeNotationUnknownElem:  http.StatusBadRequest,
	ErrCodeStructureUnsupported: http.StatusUnsupportedMediaType,
	ErrCodeStructureNotFound:    http.StatusNotFound,
	ErrCodeConversionFailed:     http.StatusUnprocessableEntity,
	ErrCodeRenderOverflow:       http.StatusOK,
	ErrCodeDepictionFailed:      http.StatusInternalServerError,

	ErrCodeBackendLoadFailed:    http.StatusServiceUnavailable,
	ErrCodeBackendUnavailable:   http.StatusServiceUnavailable,
	ErrCodeBackendUnsupported:   http.StatusNotImplemented,
	ErrCodeBackendNotRegistered: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "messaging error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeNotationInvalid:      "invalid chemical notation",
	ErrCodeNotationEmpty:        "empty chemical notation",
	ErrCodeNotationUnknownElem:  "unknown element symbol",
	ErrCodeStructureUnsupported: "unsupported structure format",
	ErrCodeStructureNotFound:    "structure not found",
	ErrCodeConversionFailed:     "structure format conversion failed",
	ErrCodeRenderOverflow:       "structure too large for full depiction",
	ErrCodeDepictionFailed:      "depiction rendering failed",

	ErrCodeBackendLoadFailed:    "chemistry backend failed to load",
	ErrCodeBackendUnavailable:   "chemistry backend unavailable",
	ErrCodeBackendUnsupported:   "operation unsupported by chemistry backend",
	ErrCodeBackendNotRegistered: "chemistry backend not registered",
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
