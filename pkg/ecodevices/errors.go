package ecodevices

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrConnection     = errors.New("cannot connect to eco-devices")
	ErrAuthentication = errors.New("eco-devices authentication failed")
	ErrProtocol       = errors.New("unexpected eco-devices response")
	ErrInvalidChannel = errors.New("invalid channel")
)

// ConnectionError reports a timeout or transport failure. Callers may retry.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("timeout occurred while connecting to eco-devices at %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("error occurred while communicating with eco-devices at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// Timeout reports whether the request ran out of time.
func (e *ConnectionError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// AuthenticationError reports an HTTP 401 from the device.
type AuthenticationError struct {
	URL string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed with eco-devices at %s", e.URL)
}

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// ProtocolError reports a response that is not the expected XML document.
type ProtocolError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	msg := "eco-devices XML request error"
	if e.URL != "" {
		msg += " at " + e.URL
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
