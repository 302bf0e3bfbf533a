package msp

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge indicates the payload doesn't fit the length field
	// of the selected framing.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrTimeout indicates no response was received in time.
	ErrTimeout = errors.New("response timeout")
)

// TimeoutError is the result of a request which expired.
type TimeoutError struct {
	Code Code
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code.Name(), ErrTimeout)
}

// Is allows errors.Is(err, ErrTimeout).
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// WriteError wraps an error from the transport when sending a frame.
type WriteError struct {
	Code Code
	Err  error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Code.Name(), e.Err)
}

// Unwrap returns the transport error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// FramingError indicates an unexpected byte in the frame header.
type FramingError struct {
	Byte byte
}

// Error implements error.
func (e *FramingError) Error() string {
	return fmt.Sprintf("unexpected direction byte 0x%02x", e.Byte)
}

// ChecksumError indicates a received frame failed checksum validation.
type ChecksumError struct {
	Version  Version
	Code     Code
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s %s checksum mismatch: expect 0x%02x, got 0x%02x",
		e.Version, e.Code.Name(), e.Expected, e.Actual)
}
