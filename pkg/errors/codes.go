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

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
)

// Orchestration error codes.
//
// Canceled is an expected outcome, not a failure: a fetch superseded by a newer
// one on the same slot reports Canceled and is silently discarded. Network
// covers transport-level and non-2xx backend responses. Validation covers
// malformed filter state that slipped past the UI.
const (
	ErrCodeCanceled   ErrorCode = "ORCH_001"
	ErrCodeNetwork    ErrorCode = "ORCH_002"
	ErrCodeValidation ErrorCode = "ORCH_003"
)

// Session error codes.
const (
	ErrCodeSessionNotFound ErrorCode = "SES_001"
	ErrCodeChannelUnknown  ErrorCode = "SES_002"
	ErrCodeSessionClosed   ErrorCode = "SES_003"
)

// Reference-data error codes.
const (
	ErrCodeRefDataUnavailable ErrorCode = "REF_001"
	ErrCodeRefDataNotLoaded   ErrorCode = "REF_002"
)

// CodeUnknown is returned by GetCode when no AppError is present in a chain.
const CodeUnknown ErrorCode = "UNKNOWN"

// CodeOK is returned by GetCode for a nil error.
const CodeOK ErrorCode = "OK"

// HTTPStatus maps an ErrorCode to the HTTP status a handler should respond
// with. Codes without a specific mapping fall back to 500.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeSessionNotFound, ErrCodeChannelUnknown:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodeSessionClosed:
		return http.StatusConflict
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeServiceUnavailable, ErrCodeRefDataUnavailable, ErrCodeRefDataNotLoaded:
		return http.StatusServiceUnavailable
	case ErrCodeNetwork:
		return http.StatusBadGateway
	}
	if strings.HasPrefix(string(code), "COMMON_") {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
