package record

import "fmt"

// ContentType is the 1-byte tag classifying a record's payload
// (RFC 5246 Section 6.2.1).
type ContentType uint8

const (
	ContentTypeChangeCipherSpec ContentType = 20
	ContentTypeAlert            ContentType = 21
	ContentTypeHandshake        ContentType = 22
	ContentTypeApplicationData  ContentType = 23
)

func (t ContentType) String() string {
	switch t {
	case ContentTypeChangeCipherSpec:
		return "change_cipher_spec"
	case ContentTypeAlert:
		return "alert"
	case ContentTypeHandshake:
		return "handshake"
	case ContentTypeApplicationData:
		return "application_data"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ProtocolVersion is the 2-byte version stamped on record headers.
type ProtocolVersion uint16

const (
	VersionSSL30 ProtocolVersion = 0x0300
	VersionTLS10 ProtocolVersion = 0x0301
	VersionTLS11 ProtocolVersion = 0x0302
	VersionTLS12 ProtocolVersion = 0x0303
)

func (v ProtocolVersion) String() string {
	switch v {
	case VersionSSL30:
		return "SSLv3"
	case VersionTLS10:
		return "TLS 1.0"
	case VersionTLS11:
		return "TLS 1.1"
	case VersionTLS12:
		return "TLS 1.2"
	default:
		return fmt.Sprintf("0x%04x", uint16(v))
	}
}

// Record header layout: type (1), version (2), length (2, big-endian),
// then length bytes of fragment.
const (
	typeOffset    = 0
	versionOffset = 1
	lengthOffset  = 3

	// FragmentOffset is the size of the record header; the fragment
	// begins at this offset.
	FragmentOffset = 5
)

// DefaultPlaintextLimit is the maximum fragment length before
// protection is applied, 2^14 per RFC 5246 Section 6.2.1.
const DefaultPlaintextLimit = 1 << 14
