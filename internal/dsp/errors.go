package dsp

import (
	"errors"
	"fmt"

	"github.com/danmuck/dspctl/internal/jsonld"
)

var (
	ErrTransport      = errors.New("dsp: transport failure")
	ErrRemoteTerminal = errors.New("dsp: remote terminal failure")
	ErrMissingField   = errors.New("dsp: response field missing")
	ErrMalformedBody  = errors.New("dsp: malformed response body")
)

// TransportError reports a failed request or a non-2xx response.
type TransportError struct {
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("dsp: %s %s: %v", e.Method, e.URL, e.Err)
	}
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("dsp: %s %s: status %d: %s", e.Method, e.URL, e.Status, body)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// retryable reports whether a polled read may succeed later. Missing
// resources and server-side errors are expected while a remote state machine
// catches up; any other rejection will not change on its own.
func (e *TransportError) retryable() bool {
	switch {
	case e.Status == 0:
		return true
	case e.Status == 404, e.Status == 409, e.Status == 425, e.Status == 429:
		return true
	case e.Status >= 500:
		return true
	default:
		return false
	}
}

// DefaultFatal is the fatal class used for polled reads when Config.Fatal is
// unset. Non-retryable HTTP statuses and documents that parse but cannot be
// expanded stop the wait; missing fields, unparseable bodies and every other
// failure keep polling.
func DefaultFatal(err error) bool {
	var te *TransportError
	switch {
	case errors.As(err, &te):
		return !te.retryable()
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrMalformedBody):
		return false
	case errors.Is(err, jsonld.ErrEmptyCatalog):
		return false
	case errors.Is(err, jsonld.ErrDocumentResolution):
		return true
	default:
		return false
	}
}

// FatalStatuses returns a fatal class that stops polling only on the listed
// HTTP statuses. Every other failure is retried until the deadline.
func FatalStatuses(statuses ...int) func(error) bool {
	set := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return func(err error) bool {
		var te *TransportError
		if !errors.As(err, &te) {
			return false
		}
		_, ok := set[te.Status]
		return ok
	}
}

func remoteTerminal(kind, id, state, detail string) error {
	if detail == "" {
		return fmt.Errorf("%w: %s %s reached %s", ErrRemoteTerminal, kind, id, state)
	}
	return fmt.Errorf("%w: %s %s reached %s: %s", ErrRemoteTerminal, kind, id, state, detail)
}
