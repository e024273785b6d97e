package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// HTTPError represents an HTTP error response.
type HTTPError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for an error.
// It maps error codes to appropriate HTTP status codes.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	// A service error is relayed with the status the service returned
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.StatusCode >= 400 {
		return serverErr.StatusCode
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	return codeToHTTPStatus(GetErrorCode(err))
}

// ToHTTPError converts an error to an HTTPError.
func ToHTTPError(err error) *HTTPError {
	if err == nil {
		return &HTTPError{
			Status:  http.StatusOK,
			Code:    CodeOK,
			Message: "success",
		}
	}

	httpErr := &HTTPError{
		Status:  StatusCode(err),
		Code:    GetErrorCode(err),
		Message: GetErrorMessage(err),
		Details: make(map[string]string),
	}

	var (
		validationErr *ValidationError
		serverErr     *ServerError
		registryErr   *RegistryError
		transportErr  *TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		if validationErr.Field != "" {
			httpErr.Details["field"] = validationErr.Field
		}
	case errors.As(err, &serverErr):
		if serverErr.Service != "" {
			httpErr.Details["service"] = serverErr.Service
		}
		if serverErr.RetryAfter > 0 {
			httpErr.Details["retry_after"] = strconv.Itoa(int(serverErr.RetryAfter.Seconds()))
		}
	case errors.As(err, &registryErr):
		if registryErr.Token != "" {
			httpErr.Details["token"] = registryErr.Token
		}
	case errors.As(err, &transportErr):
		httpErr.Details["operation"] = transportErr.Op
	}

	return httpErr
}

// WriteHTTPError writes an error response to an http.ResponseWriter.
func WriteHTTPError(w http.ResponseWriter, err error) {
	httpErr := ToHTTPError(err)
	w.Header().Set("Content-Type", "application/json")

	if retry, ok := httpErr.Details["retry_after"]; ok {
		w.Header().Set("Retry-After", retry)
	}

	w.WriteHeader(httpErr.Status)
	json.NewEncoder(w).Encode(httpErr)
}
