package httputils

import "fmt"

// RequestError carries the HTTP status an action should answer with
// alongside the underlying cause.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError godoc
func NewRequestError(status int, message string, err error) *RequestError {
	return &RequestError{Status: status, Message: message, Err: err}
}
