package record

import "fmt"

// AlertDescription identifies the TLS alert raised when a record-layer
// operation fails (RFC 5246 Section 7.2).
type AlertDescription uint8

const (
	AlertCloseNotify       AlertDescription = 0
	AlertUnexpectedMessage AlertDescription = 10
	AlertBadRecordMAC      AlertDescription = 20
	AlertRecordOverflow    AlertDescription = 22
	AlertHandshakeFailure  AlertDescription = 40
	AlertIllegalParameter  AlertDescription = 47
	AlertDecodeError       AlertDescription = 50
	AlertInternalError     AlertDescription = 80
)

func (d AlertDescription) String() string {
	switch d {
	case AlertCloseNotify:
		return "close_notify"
	case AlertUnexpectedMessage:
		return "unexpected_message"
	case AlertBadRecordMAC:
		return "bad_record_mac"
	case AlertRecordOverflow:
		return "record_overflow"
	case AlertHandshakeFailure:
		return "handshake_failure"
	case AlertIllegalParameter:
		return "illegal_parameter"
	case AlertDecodeError:
		return "decode_error"
	case AlertInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// AlertError is a fatal record-layer failure. It carries the alert that
// must be sent to the peer before the connection is torn down; there is
// no recovery path at this layer.
type AlertError struct {
	Description AlertDescription
	Err         error // underlying cause, if any
}

func (e *AlertError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record: fatal alert %s: %v", e.Description, e.Err)
	}
	return fmt.Sprintf("record: fatal alert %s", e.Description)
}

func (e *AlertError) Unwrap() error {
	return e.Err
}

func alertErr(d AlertDescription) error {
	return &AlertError{Description: d}
}
