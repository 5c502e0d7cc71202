package agent

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnreadableImage = errors.New("unreadable image")
	ErrUpstream        = errors.New("upstream model call failed")
	ErrMissingAPIKey   = errors.New("GEMINI_API_KEY is not configured")
)

// RequestError is a validation failure carrying the message shown to the
// caller.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(msg string) error {
	return &RequestError{Message: msg}
}
