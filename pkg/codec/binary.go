package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// Binary blob layout (all integers little-endian):
//
//	[Magic(4)][Version(1)][Count(4)] then per record:
//	[CRC32(4)][ID(8)][CreatedAt(8)][Email][City][Country][ZipCode]
//
// String fields are length-prefixed with a uint32. The CRC covers the
// whole record after the CRC field itself. The header makes a foreign or
// corrupt blob fail fast with a DecodeError instead of being misparsed.
const (
	binaryMagic   = "RKB1"
	binaryVersion = 1

	// Cap on any single length-prefixed field, so a corrupt length
	// cannot trigger a huge allocation before the CRC check runs.
	maxFieldSize = 1 << 20

	// Smallest possible record: CRC(4) + ID(8) + CreatedAt(8) plus four
	// empty length-prefixed fields (4 bytes each). Bounds the record
	// count a blob of a given size can legitimately claim.
	minRecordSize = 4 + 8 + 8 + 4*4
)

// BinaryCodec serializes users in an opaque binary format. The decode
// path is meant for blobs produced by a trusted encode call of the same
// version; there is no cross-format or cross-version compatibility.
type BinaryCodec struct{}

// NewBinaryCodec creates a new binary codec instance.
func NewBinaryCodec() *BinaryCodec {
	return &BinaryCodec{}
}

// Name returns "binary".
func (c *BinaryCodec) Name() string { return "binary" }

// Encode serializes the users into a versioned binary blob in input
// order.
func (c *BinaryCodec) Encode(users []*record.User) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(binaryMagic)
	buf.WriteByte(binaryVersion)

	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(users)))
	buf.Write(count[:])

	for _, u := range users {
		payload := encodePayload(u)

		var crc [4]byte
		binary.LittleEndian.PutUint32(crc[:], crc32.ChecksumIEEE(payload))
		buf.Write(crc[:])
		buf.Write(payload)
	}
	return buf.Bytes(), nil
}

func encodePayload(u *record.User) []byte {
	var buf bytes.Buffer

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(u.ID()))
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], uint64(u.CreatedAt().Unix()))
	buf.Write(scratch[:])

	for _, field := range []string{u.Email(), u.Address().City(), u.Address().Country(), u.Address().ZipCode()} {
		binary.LittleEndian.PutUint32(scratch[:4], uint32(len(field)))
		buf.Write(scratch[:4])
		buf.WriteString(field)
	}
	return buf.Bytes()
}

// Decode parses a binary blob back into users. Header or checksum
// mismatches fail with a DecodeError; decoded fields still pass through
// the record constructors, so validation cannot be bypassed.
func (c *BinaryCodec) Decode(data []byte) ([]*record.User, error) {
	r := &binaryReader{data: data}

	magic, err := r.bytes(4)
	if err != nil || string(magic) != binaryMagic {
		return nil, &DecodeError{Format: c.Name(), Reason: "unrecognized header"}
	}
	version, err := r.byte()
	if err != nil {
		return nil, &DecodeError{Format: c.Name(), Reason: "truncated header"}
	}
	if version != binaryVersion {
		return nil, &DecodeError{Format: c.Name(), Reason: fmt.Sprintf("unsupported version %d", version)}
	}
	count, err := r.uint32()
	if err != nil {
		return nil, &DecodeError{Format: c.Name(), Reason: "truncated header"}
	}
	// A forged count must fail like any other corruption, not size an
	// allocation.
	if int64(count)*minRecordSize > int64(r.remaining()) {
		return nil, &DecodeError{
			Format: c.Name(),
			Reason: fmt.Sprintf("record count %d exceeds blob size", count),
		}
	}

	users := make([]*record.User, 0, count)
	for i := 1; i <= int(count); i++ {
		u, err := c.decodeRecord(r, i)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if r.remaining() != 0 {
		return nil, &DecodeError{
			Format: c.Name(),
			Reason: fmt.Sprintf("%d trailing bytes after last record", r.remaining()),
		}
	}
	return users, nil
}

func (c *BinaryCodec) decodeRecord(r *binaryReader, row int) (*record.User, error) {
	truncated := &DecodeError{Format: c.Name(), Row: row, Reason: "truncated record"}

	crc, err := r.uint32()
	if err != nil {
		return nil, truncated
	}
	payloadStart := r.pos

	id, err := r.uint64()
	if err != nil {
		return nil, truncated
	}
	createdAt, err := r.uint64()
	if err != nil {
		return nil, truncated
	}

	fields := make([]string, 4)
	for i := range fields {
		b, err := r.lengthPrefixed()
		if err != nil {
			return nil, truncated
		}
		fields[i] = string(b)
	}

	if crc32.ChecksumIEEE(r.data[payloadStart:r.pos]) != crc {
		return nil, &DecodeError{Format: c.Name(), Row: row, Reason: "checksum mismatch"}
	}

	address := record.NewAddress(fields[1], fields[2], fields[3])
	return record.NewUserAt(int64(id), fields[0], address, time.Unix(int64(createdAt), 0).UTC())
}

// binaryReader is a bounds-checked cursor over a blob.
type binaryReader struct {
	data []byte
	pos  int
}

func (r *binaryReader) remaining() int { return len(r.data) - r.pos }

func (r *binaryReader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("need %d bytes, have %d", n, r.remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *binaryReader) byte() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *binaryReader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *binaryReader) uint64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *binaryReader) lengthPrefixed() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if n > maxFieldSize {
		return nil, fmt.Errorf("field size %d exceeds limit", n)
	}
	return r.bytes(int(n))
}
