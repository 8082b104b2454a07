package gateway

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindConfig ErrorKind = iota + 1
	KindNetwork
	KindBackend
	KindDecode
)

// Sentinels for errors.Is against an *Error of the matching kind.
var (
	ErrConfig  = errors.New("configuration error")
	ErrNetwork = errors.New("network error")
	ErrBackend = errors.New("backend error")
	ErrDecode  = errors.New("decode error")
)

// maxBodySnippet bounds how much of a raw response body is kept for diagnostics.
const maxBodySnippet = 512

// Error is a failure at the generation boundary.
type Error struct {
	Kind   ErrorKind
	Op     string // backend or operation name, e.g. "cloudflare"
	Status int    // HTTP status for backend errors
	Detail string
	Body   string // truncated raw body for decode errors
	Err    error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindConfig:
		msg = fmt.Sprintf("%s: configuration error: %s", e.Op, e.Detail)
	case KindNetwork:
		msg = fmt.Sprintf("%s: request failed: %s", e.Op, e.Detail)
	case KindBackend:
		msg = fmt.Sprintf("%s: backend error %d: %s", e.Op, e.Status, e.Detail)
	case KindDecode:
		msg = fmt.Sprintf("%s: %s", e.Op, e.Detail)
		if e.Body != "" {
			msg += fmt.Sprintf(" (body: %s)", e.Body)
		}
	default:
		msg = fmt.Sprintf("%s: %s", e.Op, e.Detail)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrBackend:
		return e.Kind == KindBackend
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

func ConfigError(op, detail string) *Error {
	return &Error{Kind: KindConfig, Op: op, Detail: detail}
}

func NetworkError(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
}

func BackendError(op string, status int, detail string) *Error {
	return &Error{Kind: KindBackend, Op: op, Status: status, Detail: detail}
}

func DecodeError(op, detail string, body []byte, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, Detail: detail, Body: Snippet(body), Err: err}
}

// Snippet trims body to a loggable size.
func Snippet(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	return string(body[:maxBodySnippet]) + "..."
}
