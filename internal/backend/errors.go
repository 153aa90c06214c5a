package backend

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindNetwork: the request never reached the server or the reply was unreadable.
	KindNetwork Kind = iota + 1
	// KindServer: HTTP error carrying a structured {"error": "..."} body.
	KindServer
	// KindHTTP: HTTP error without a usable body.
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	case KindServer:
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("status %d", e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message picks the user-visible text for err: the server's own message when it
// sent one, otherwise networkMsg for transport failures and fallback for the rest.
func Message(err error, fallback, networkMsg string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	switch apiErr.Kind {
	case KindServer:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	case KindNetwork:
		return networkMsg
	default:
		return fallback
	}
}

func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Failure is a failed call together with the text the view shows for it.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return fmt.Sprintf("%s: %v", f.Message, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Fail wraps err with the message Message would pick for it.
func Fail(err error, fallback, networkMsg string) error {
	return &Failure{Message: Message(err, fallback, networkMsg), Err: err}
}

// UserMessage returns the display text of a Failure, or err's own text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}
