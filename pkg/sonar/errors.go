package sonar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientSamples = errors.New("receive trace shorter than matched filter")
	ErrMissingParameter    = errors.New("missing calibration parameter")
	ErrPingOutOfRange      = errors.New("ping index out of range")
)

// InsufficientSamplesError reports a receive trace that cannot hold the
// matched filter of its ping. Ping is negative when the trace was not taken
// from a batch.
type InsufficientSamplesError struct {
	Ping         int
	Samples      int
	FilterLength int
}

func (e *InsufficientSamplesError) Error() string {
	if e.Ping < 0 {
		return fmt.Sprintf("trace has %d samples, matched filter has %d", e.Samples, e.FilterLength)
	}
	return fmt.Sprintf("ping %d: trace has %d samples, matched filter has %d", e.Ping, e.Samples, e.FilterLength)
}

func (e *InsufficientSamplesError) Unwrap() error {
	return ErrInsufficientSamples
}

type MissingParameterError struct {
	Ping int
	Key  string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("ping %d: missing calibration parameter %q", e.Ping, e.Key)
}

func (e *MissingParameterError) Unwrap() error {
	return ErrMissingParameter
}

// PingError ties a processing failure to the ping it happened on.
type PingError struct {
	Ping int
	Err  error
}

func (e *PingError) Error() string {
	return fmt.Sprintf("ping %d: %v", e.Ping, e.Err)
}

func (e *PingError) Unwrap() error {
	return e.Err
}

// BatchError collects the per-ping failures of one batch call.
type BatchError struct {
	Errors []*PingError
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d pings failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	ret := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		ret[i] = err
	}
	return ret
}

func batchError(errs []*PingError) error {
	if len(errs) == 0 {
		return nil
	}
	return &BatchError{Errors: errs}
}
