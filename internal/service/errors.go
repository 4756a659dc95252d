package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a local input error; no network call was made.
	KindValidation
	// KindAuthMissing means no session token was available; no network call was made.
	KindAuthMissing
	// KindRemoteClient is a 4xx response.
	KindRemoteClient
	// KindRemoteServer is a 5xx response or an unreadable success body.
	KindRemoteServer
	// KindNetwork is a transport failure or timeout.
	KindNetwork
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthMissing:
		return "auth_missing"
	case KindRemoteClient:
		return "client_error"
	case KindRemoteServer:
		return "server_error"
	case KindNetwork:
		return "network_error"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced by backends and the task store.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "add task"
	Status  int    // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the sentinels below
// work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Unauthorized reports whether the server rejected the token.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Sentinels for errors.Is checks.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrAuthMissing  = &Error{Kind: KindAuthMissing, Message: "not logged in"}
	ErrRemoteClient = &Error{Kind: KindRemoteClient}
	ErrRemoteServer = &Error{Kind: KindRemoteServer}
	ErrNetwork      = &Error{Kind: KindNetwork}
)

// Validation returns a validation error for op.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// AuthMissing returns the missing-token error for op.
func AuthMissing(op string) *Error {
	return &Error{Kind: KindAuthMissing, Op: op, Message: "not logged in"}
}

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(status int, message string, cause error) *Error {
	kind := KindRemoteServer
	if status >= 400 && status < 500 {
		kind = KindRemoteClient
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: kind, Status: status, Message: message, Err: cause}
}

// Malformed reports a 2xx response whose body could not be used.
func Malformed(cause error) *Error {
	return &Error{Kind: KindRemoteServer, Message: "malformed response", Err: cause}
}

// Network reports a transport failure.
func Network(message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: cause}
}

// WithOp returns err tagged with op. Errors that are not *Error are
// classified as network failures.
func WithOp(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		c := *e
		c.Op = op
		return &c
	}
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsUnauthorized reports whether err is a 401/403 rejection.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Unauthorized()
}
