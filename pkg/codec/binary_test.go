package codec

import (
	"errors"
	"strings"
	"testing"
)

func TestBinaryCodec_HeaderShape(t *testing.T) {
	c := NewBinaryCodec()

	encoded, err := c.Encode(testUsers(t))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if string(encoded[:4]) != binaryMagic {
		t.Errorf("magic mismatch: got %q, want %q", encoded[:4], binaryMagic)
	}
	if encoded[4] != binaryVersion {
		t.Errorf("version mismatch: got %d, want %d", encoded[4], binaryVersion)
	}
}

func TestBinaryCodec_RejectsForeignBlob(t *testing.T) {
	c := NewBinaryCodec()

	testCases := []struct {
		name string
		blob []byte
		want string
	}{
		{name: "empty", blob: nil, want: "unrecognized header"},
		{name: "json blob", blob: []byte(`[{"id":1}]`), want: "unrecognized header"},
		{name: "short magic", blob: []byte("RK"), want: "unrecognized header"},
		{name: "magic only", blob: []byte("RKB1"), want: "truncated header"},
		{name: "future version", blob: []byte("RKB1\x02\x00\x00\x00\x00"), want: "unsupported version"},
		{name: "forged record count", blob: []byte("RKB1\x01\xff\xff\xff\xff"), want: "record count"},
		{name: "count beyond blob size", blob: []byte("RKB1\x01\x02\x00\x00\x00" + "payload"), want: "record count"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decode(tc.blob)

			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("got %v, want DecodeError", err)
			}
			if !strings.Contains(decodeErr.Reason, tc.want) {
				t.Errorf("reason mismatch: got %q, want substring %q", decodeErr.Reason, tc.want)
			}
		})
	}
}

func TestBinaryCodec_DetectsCorruption(t *testing.T) {
	c := NewBinaryCodec()

	encoded, err := c.Encode(testUsers(t))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	t.Run("flipped payload byte fails checksum", func(t *testing.T) {
		corrupted := append([]byte(nil), encoded...)
		// Header is 9 bytes, then CRC(4); offset 20 is inside the
		// first record's payload.
		corrupted[20] ^= 0xFF

		_, err := c.Decode(corrupted)

		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("got %v, want DecodeError", err)
		}
		if decodeErr.Row != 1 {
			t.Errorf("row mismatch: got %d, want 1", decodeErr.Row)
		}
		if !strings.Contains(decodeErr.Reason, "checksum") {
			t.Errorf("reason mismatch: got %q", decodeErr.Reason)
		}
	})

	t.Run("truncated blob", func(t *testing.T) {
		_, err := c.Decode(encoded[:len(encoded)-5])

		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("got %v, want DecodeError", err)
		}
	})

	t.Run("trailing garbage", func(t *testing.T) {
		_, err := c.Decode(append(append([]byte(nil), encoded...), 0xDE, 0xAD))

		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("got %v, want DecodeError", err)
		}
		if !strings.Contains(decodeErr.Reason, "trailing") {
			t.Errorf("reason mismatch: got %q", decodeErr.Reason)
		}
	})
}
