package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// csvHeader is the fixed column order: identity, scalar fields, the
// flattened address fields, then the timestamp. Encoding is fully
// deterministic, so the same users always produce byte-identical output.
var csvHeader = []string{"id", "email", "city", "country", "zip_code", "created_at"}

// CSVCodec serializes users as RFC 4180 CSV with a header row. The
// nested address is flattened into sibling columns.
type CSVCodec struct{}

// NewCSVCodec creates a new CSV codec instance.
func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

// Name returns "csv".
func (c *CSVCodec) Name() string { return "csv" }

// Encode writes the header row followed by one row per user in input
// order.
func (c *CSVCodec) Encode(users []*record.User) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, u := range users {
		row := []string{
			strconv.FormatInt(u.ID(), 10),
			u.Email(),
			u.Address().City(),
			u.Address().Country(),
			u.Address().ZipCode(),
			u.CreatedAt().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses CSV text back into users in row order. Structural
// problems (bad quoting, wrong column count) fail with a DecodeError
// naming the row; invalid field values surface through the record
// layer's validation.
func (c *CSVCodec) Decode(data []byte) ([]*record.User, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &DecodeError{Format: c.Name(), Reason: "missing header row"}
		}
		return nil, c.rowError(err)
	}
	if !equalHeader(header, csvHeader) {
		return nil, &DecodeError{
			Format: c.Name(),
			Row:    1,
			Reason: fmt.Sprintf("unexpected header %q, want %q", strings.Join(header, ","), strings.Join(csvHeader, ",")),
		}
	}

	var users []*record.User
	for row := 2; ; row++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, c.rowError(err)
		}

		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, &DecodeError{
				Format: c.Name(),
				Row:    row,
				Field:  "id",
				Reason: fmt.Sprintf("%q is not an integer", fields[0]),
				cause:  err,
			}
		}

		address := record.AddressPrimitive{
			City:    &fields[2],
			Country: &fields[3],
			ZipCode: &fields[4],
		}
		u, err := record.UserFromPrimitive(record.UserPrimitive{
			ID:        &id,
			Email:     &fields[1],
			Value:     &address,
			CreatedAt: &fields[5],
		})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// rowError translates a csv.Reader failure, keeping the parser's line
// number when it carries one.
func (c *CSVCodec) rowError(err error) *DecodeError {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		reason := "malformed row"
		if errors.Is(parseErr.Err, csv.ErrFieldCount) {
			reason = fmt.Sprintf("wrong column count, want %d", len(csvHeader))
		}
		return &DecodeError{
			Format: c.Name(),
			Row:    parseErr.Line,
			Reason: reason,
			cause:  err,
		}
	}
	return &DecodeError{Format: c.Name(), Reason: "malformed CSV document", cause: err}
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
