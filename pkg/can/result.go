package can

import (
	"errors"
	"fmt"
)

// Result is the outcome of a controller lifecycle operation. The numeric values
// are stable and may be used on the wire.
type Result uint8

const (
	OK Result = iota
	UnknownError
	InvalidState
	NotSupported
	BadInterfaceID
	BadBitrate
	BadServiceName
)

var resultNames = [...]string{
	OK:             "OK",
	UnknownError:   "UNKNOWN_ERROR",
	InvalidState:   "INVALID_STATE",
	NotSupported:   "NOT_SUPPORTED",
	BadInterfaceID: "BAD_INTERFACE_ID",
	BadBitrate:     "BAD_BITRATE",
	BadServiceName: "BAD_SERVICE_NAME",
}

func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("Result(%d)", uint8(r))
}

// Error lets a bare Result be used as a sentinel with errors.Is.
func (r Result) Error() string {
	return r.String()
}

// Error is a failed lifecycle operation: the Result reported to the caller and
// the underlying cause, if any.
type Error struct {
	Result Result
	Err    error
}

// Errorf builds an *Error for result r with a formatted cause.
func Errorf(r Result, format string, args ...interface{}) error {
	return &Error{Result: r, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Result.String()
	}
	return fmt.Sprintf("%s: %v", e.Result, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Result.
func (e *Error) Is(target error) bool {
	r, ok := target.(Result)
	return ok && r == e.Result
}

// ResultOf maps an error returned by a lifecycle operation to its Result. A nil
// error is OK; errors which carry no Result are UNKNOWN_ERROR.
func ResultOf(err error) Result {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Result
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return UnknownError
}

// BusResult is the outcome of sending a frame on a bus.
type BusResult uint8

const (
	BusOK BusResult = iota
	BusUnknownError
	PayloadTooLong
	InterfaceDown
	TransmissionFailure
	InvalidArguments
)

var busResultNames = [...]string{
	BusOK:               "OK",
	BusUnknownError:     "UNKNOWN_ERROR",
	PayloadTooLong:      "PAYLOAD_TOO_LONG",
	InterfaceDown:       "INTERFACE_DOWN",
	TransmissionFailure: "TRANSMISSION_FAILURE",
	InvalidArguments:    "INVALID_ARGUMENTS",
}

func (r BusResult) String() string {
	if int(r) < len(busResultNames) {
		return busResultNames[r]
	}
	return fmt.Sprintf("BusResult(%d)", uint8(r))
}

var (
	// ErrInterfaceDown is returned by every send on a bus which has been brought down.
	ErrInterfaceDown = errors.New("interface down")
	// ErrTransmission wraps a failure of the transport to accept a frame.
	ErrTransmission = errors.New("transmission failure")
)

// BusResultOf maps an error returned by Bus.Send to its BusResult.
func BusResultOf(err error) BusResult {
	switch {
	case err == nil:
		return BusOK
	case errors.Is(err, ErrInterfaceDown):
		return InterfaceDown
	case errors.Is(err, ErrInvalidLen):
		return PayloadTooLong
	case errors.Is(err, ErrInvalidID):
		return InvalidArguments
	case errors.Is(err, ErrTransmission):
		return TransmissionFailure
	default:
		return BusUnknownError
	}
}
