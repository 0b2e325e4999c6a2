package codec

import (
	"bytes"
	"encoding/json"

	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// JSONCodec serializes users as a UTF-8 JSON array of primitive objects
// with keys id, email, value and created_at. Unknown keys are ignored on
// decode for forward compatibility; required-field presence is still
// enforced by the record layer.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec instance.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Name returns "json".
func (c *JSONCodec) Name() string { return "json" }

// Encode serializes the users into a JSON array in input order.
func (c *JSONCodec) Encode(users []*record.User) ([]byte, error) {
	prims := make([]record.UserPrimitive, 0, len(users))
	for _, u := range users {
		prims = append(prims, u.ToPrimitive())
	}
	return json.Marshal(prims)
}

// Decode parses a JSON array back into users. A malformed document fails
// with a DecodeError; an element missing required keys or carrying
// invalid values fails with the record layer's own error.
func (c *JSONCodec) Decode(data []byte) ([]*record.User, error) {
	// The transport's top level is an array. "null" would otherwise
	// unmarshal cleanly into a nil slice and pass as an empty sequence.
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &DecodeError{
			Format: c.Name(),
			Reason: "top level is not an array",
		}
	}

	var prims []record.UserPrimitive
	if err := json.Unmarshal(data, &prims); err != nil {
		return nil, &DecodeError{
			Format: c.Name(),
			Reason: "malformed JSON document",
			cause:  err,
		}
	}

	users := make([]*record.User, 0, len(prims))
	for _, p := range prims {
		u, err := record.UserFromPrimitive(p)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
