package record

import "encoding/binary"

// Preview reports the sizes derivable from a record header alone. A
// caller driving a non-blocking transport uses it to allocate exactly
// one record's worth of receive buffer before any fragment bytes exist.
type Preview struct {
	// RecordSize is the full on-wire size of the record, header
	// included.
	RecordSize int
	// ApplicationDataLimit is the usable plaintext capacity when the
	// record carries application data, zero otherwise.
	ApplicationDataLimit int
}

// PreviewHeader computes the sizes of the record announced by the given
// 5-byte header. Application data is rejected with unexpected_message
// until appDataAllowed reports that the handshake has progressed far
// enough to accept it.
func (s *Stream) PreviewHeader(header []byte, appDataAllowed bool) (Preview, error) {
	if len(header) < FragmentOffset {
		return Preview{}, alertErr(AlertDecodeError)
	}

	typ := ContentType(header[typeOffset])

	if !appDataAllowed && typ == ContentTypeApplicationData {
		return Preview{}, alertErr(AlertUnexpectedMessage)
	}
	if err := checkType(typ, AlertUnexpectedMessage); err != nil {
		return Preview{}, err
	}

	// The legacy version bytes of the header are not validated.

	length := int(binary.BigEndian.Uint16(header[lengthOffset:]))
	if err := checkLength(length, s.ciphertextLimit, AlertRecordOverflow); err != nil {
		return Preview{}, err
	}

	p := Preview{RecordSize: FragmentOffset + length}
	if typ == ContentTypeApplicationData {
		p.ApplicationDataLimit = min(s.plaintextLimit, s.state.read.PlaintextLimit(length))
	}
	return p, nil
}

// PreviewOutput predicts the record that writing applicationDataSize
// bytes of application data would produce, clamping the requested size
// into the negotiated plaintext limit. No bytes are written.
func (s *Stream) PreviewOutput(applicationDataSize int) Preview {
	limit := max(0, min(s.plaintextLimit, applicationDataSize))
	return Preview{
		RecordSize:           s.state.write.CiphertextEncodeLimit(limit) + FragmentOffset,
		ApplicationDataLimit: limit,
	}
}
