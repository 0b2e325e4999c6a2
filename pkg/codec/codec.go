package codec

import (
	"fmt"

	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// Codec converts a sequence of users to and from a transport
// representation. Encode never fails for users built through the record
// constructors; Decode is the only failure point and must return the
// users in encode order, each revalidated.
type Codec interface {
	Encode(users []*record.User) ([]byte, error)
	Decode(data []byte) ([]*record.User, error)

	// Name returns the codec identifier used for diagnostics.
	Name() string
}

// DecodeError is returned when a transport blob cannot be parsed into
// primitive form. It wraps the low-level parse failure without leaking
// parser internals; Row and Field locate the problem when the format
// allows it.
type DecodeError struct {
	Format string // codec name
	Row    int    // 1-based row or record number, 0 when not applicable
	Field  string // offending field, "" when not applicable
	Reason string
	cause  error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s decode failed", e.Format)
	if e.Row > 0 {
		msg += fmt.Sprintf(" at row %d", e.Row)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	return msg + ": " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.cause }
