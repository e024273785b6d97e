package errors

import "net/http"

// Codes carried by typed errors and relayed in HTTP error bodies.
const (
	CodeOK        = "OK"
	CodeCancelled = "CANCELLED"
	CodeInternal  = "INTERNAL"

	// Rejected before anything was sent.
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"

	// Access manager verdicts and local signing.
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeSigning      = "SIGNING_FAILED"

	// The round trip to the message bus.
	CodeTransport          = "TRANSPORT_FAILURE"
	CodeTimeout            = "TIMEOUT"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeMalformed          = "MALFORMED_RESPONSE"
)

// ErrorCategory groups codes by who has to act on them.
type ErrorCategory string

const (
	CategoryClient  ErrorCategory = "CLIENT_ERROR"  // fix the call
	CategoryAuth    ErrorCategory = "AUTH_ERROR"    // fix the keys or grants
	CategoryNetwork ErrorCategory = "NETWORK_ERROR" // the bus could not be reached
	CategoryTimeout ErrorCategory = "TIMEOUT_ERROR"
	CategoryServer  ErrorCategory = "SERVER_ERROR"
)

type codeInfo struct {
	category  ErrorCategory
	retryable bool
	status    int
}

var codeTable = map[string]codeInfo{
	CodeOK:                 {CategoryServer, false, http.StatusOK},
	CodeCancelled:          {CategoryServer, false, http.StatusServiceUnavailable},
	CodeInternal:           {CategoryServer, false, http.StatusInternalServerError},
	CodeInvalidArgument:    {CategoryClient, false, http.StatusBadRequest},
	CodeValidation:         {CategoryClient, false, http.StatusBadRequest},
	CodeNotFound:           {CategoryClient, false, http.StatusNotFound},
	CodeUnauthorized:       {CategoryAuth, false, http.StatusUnauthorized},
	CodeForbidden:          {CategoryAuth, false, http.StatusForbidden},
	CodeSigning:            {CategoryAuth, false, http.StatusInternalServerError},
	CodeTransport:          {CategoryNetwork, true, http.StatusBadGateway},
	CodeTimeout:            {CategoryTimeout, true, http.StatusGatewayTimeout},
	CodeRateLimit:          {CategoryServer, true, http.StatusTooManyRequests},
	CodeServiceUnavailable: {CategoryNetwork, true, http.StatusBadGateway},
	// a body the bus sent but we could not read; the next poll may be fine
	CodeMalformed: {CategoryServer, true, http.StatusBadGateway},
}

// GetCategory returns the category for an error code. Unknown codes are
// treated as server errors.
func GetCategory(code string) ErrorCategory {
	if info, ok := codeTable[code]; ok {
		return info.category
	}
	return CategoryServer
}

// IsRetryable reports whether a poll that failed with code should back off
// and try again.
func IsRetryable(code string) bool {
	return codeTable[code].retryable
}

func codeToHTTPStatus(code string) int {
	if info, ok := codeTable[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// CodeForStatus picks the code a locally produced HTTP error reports.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusMethodNotAllowed:
		return CodeInvalidArgument
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusGatewayTimeout:
		return CodeTimeout
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	}
	if status < 400 {
		return CodeOK
	}
	return CodeInternal
}
