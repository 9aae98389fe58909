package database

import "net/http"

// StatusError is a persistence failure carrying the HTTP status the boundary
// layer should answer with. Handlers translate anything else to a 500.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// NewStatusError builds a StatusError with an explicit status code.
func NewStatusError(message string, code int) *StatusError {
	return &StatusError{Code: code, Message: message}
}

// NotFound marks a lookup miss (unknown user, unknown franchise admin).
func NotFound(message string) *StatusError {
	return NewStatusError(message, http.StatusNotFound)
}

// BadRequest marks a structurally invalid request, such as an update
// targeting a user id that does not exist.
func BadRequest(message string) *StatusError {
	return NewStatusError(message, http.StatusBadRequest)
}

// Internal marks a failure whose cause is not exposed to the caller, such as
// a rolled back multi statement transaction.
func Internal(message string) *StatusError {
	return NewStatusError(message, http.StatusInternalServerError)
}

// StatusCode extracts the HTTP status from err, defaulting to 500.
func StatusCode(err error) int {
	if se, ok := err.(*StatusError); ok {
		return se.Code
	}
	return http.StatusInternalServerError
}
