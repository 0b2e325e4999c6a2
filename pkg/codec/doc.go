// Package codec provides serialization and deserialization of validated
// user records for recordkit.
//
// Three interchangeable codecs implement the same round-trip contract:
//
//   - JSONCodec: a UTF-8 JSON array of primitive objects
//   - CSVCodec: RFC 4180 text with a header row and flattened address columns
//   - BinaryCodec: an opaque, versioned binary blob with per-record CRC32
//
// # Round-Trip Law
//
// For every codec C and every valid sequence of users R,
// C.Decode(C.Encode(R)) yields users structurally equal to R: same ids,
// emails, address fields and creation timestamps at second precision, in
// the same order.
//
// # Binary Format
//
// The binary blob is laid out as (all integers little-endian):
//
//	[Magic "RKB1"(4)][Version(1)][Count(4)]
//
// followed by one record per user:
//
//	[CRC32(4)][ID(8)][CreatedAt(8)][Email][City][Country][ZipCode]
//
// String fields are uint32-length-prefixed. The CRC32 checksum covers
// every record byte after the CRC field itself, so corruption anywhere in
// a record is detected during decode. The magic and version bytes let
// Decode reject a foreign blob outright rather than return garbage.
//
// The binary decode path is intended for blobs produced by a trusted
// encode call of the same version; it is not hardened against adversarial
// input beyond failing with a DecodeError.
//
// # Usage
//
//	c := codec.NewJSONCodec()
//
//	data, err := c.Encode(users)
//	if err != nil {
//	    return err
//	}
//
//	restored, err := c.Decode(data)
//	if err != nil {
//	    return err // DecodeError, ValidationError or MissingFieldError
//	}
//
// # Error Handling
//
// Encode never fails for users built through the record constructors.
// Decode fails with a *DecodeError when the transport itself cannot be
// parsed (malformed JSON, wrong CSV column count, unrecognized binary
// header), or with the record package's *ValidationError or
// *MissingFieldError when a parsed row fails revalidation. No raw parser
// error ever escapes unwrapped.
package codec
