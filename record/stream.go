package record

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"
)

// Handler consumes the payload of each successfully decoded record.
// The payload slice is only valid until ProcessRecord returns; the
// backing buffer is reused for the next record.
type Handler interface {
	ProcessRecord(typ ContentType, payload []byte) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(typ ContentType, payload []byte) error

func (f HandlerFunc) ProcessRecord(typ ContentType, payload []byte) error {
	return f(typ, payload)
}

// Config assembles a Stream.
type Config struct {
	Handler Handler
	Input   io.Reader
	Output  io.Writer
	Logger  *zap.Logger // optional record tracing
}

// Stream is the TLS 1.0-1.2 record layer for one connection: it frames
// payloads into length-delimited records, applies and removes the
// per-record protection in force, and drives the cipher switch during a
// handshake.
//
// The read and write directions share no mutable state beyond the
// cipher register, so one goroutine per direction may proceed without
// coordination here; each direction's sequence counter serializes its
// own increments.
type Stream struct {
	handler Handler
	input   io.Reader
	output  io.Writer

	inputRecord *recordBuffer
	state       *cipherState

	writeVersion    ProtocolVersion
	writeVersionSet bool

	plaintextLimit  int
	ciphertextLimit int

	logger *zap.Logger
}

// NewStream creates a Stream with the identity cipher on both
// directions and the default plaintext limit.
func NewStream(cfg Config) *Stream {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stream{
		handler:     cfg.Handler,
		input:       cfg.Input,
		output:      cfg.Output,
		inputRecord: newRecordBuffer(),
		state:       newCipherState(),
		logger:      logger,
	}
	s.SetPlaintextLimit(DefaultPlaintextLimit)
	return s
}

// PlaintextLimit returns the negotiated maximum fragment length before
// protection.
func (s *Stream) PlaintextLimit() int {
	return s.plaintextLimit
}

// SetPlaintextLimit updates the plaintext limit and recomputes the
// ciphertext limit from the active read cipher's inflation.
func (s *Stream) SetPlaintextLimit(limit int) {
	s.plaintextLimit = limit
	s.ciphertextLimit = s.state.read.CiphertextDecodeLimit(limit)
}

// SetWriteVersion records the version stamped on outgoing headers.
// Until the first call, WriteRecord emits nothing: a server must not
// send a single byte before a valid ClientHello established a version.
func (s *Stream) SetWriteVersion(v ProtocolVersion) {
	s.writeVersion = v
	s.writeVersionSet = true
}

// SetPending arms the negotiated cipher for later activation.
func (s *Stream) SetPending(c Cipher) error {
	return s.state.setPending(c)
}

// ActivateWrite puts the pending cipher in force for the write
// direction, restarting its sequence counter.
func (s *Stream) ActivateWrite() error {
	return s.state.activateWrite()
}

// ActivateRead puts the pending cipher in force for the read direction,
// restarting its sequence counter and recomputing the ciphertext limit.
func (s *Stream) ActivateRead() error {
	if err := s.state.activateRead(); err != nil {
		return err
	}
	s.ciphertextLimit = s.state.read.CiphertextDecodeLimit(s.plaintextLimit)
	return nil
}

// Finalize completes the handshake's cipher switch, clearing the
// pending slot. It fails with handshake_failure unless both directions
// are running the pending cipher.
func (s *Stream) Finalize() error {
	return s.state.finalize()
}

// ReadRecord reads one record from the input stream, decodes it through
// the active read cipher and dispatches the payload to the handler. It
// returns false when the stream closed cleanly before any header byte
// arrived. The read buffer is reset even when decoding fails, so no
// partial-record state survives across calls.
func (s *Stream) ReadRecord() (bool, error) {
	ok, err := s.inputRecord.readHeader(s.input)
	if !ok || err != nil {
		return false, err
	}

	hdr := s.inputRecord.header()
	typ := ContentType(hdr[typeOffset])

	// RFC 5246 Section 6: an unexpected record type MUST produce an
	// unexpected_message alert.
	if err := checkType(typ, AlertUnexpectedMessage); err != nil {
		return false, err
	}

	version := ProtocolVersion(binary.BigEndian.Uint16(hdr[versionOffset:]))
	length := int(binary.BigEndian.Uint16(hdr[lengthOffset:]))

	if err := checkLength(length, s.ciphertextLimit, AlertRecordOverflow); err != nil {
		return false, err
	}

	if err := s.inputRecord.readFragment(s.input, length); err != nil {
		return false, err
	}

	decodedType, payload, err := s.decodeAndVerify(typ, version, s.inputRecord.fragment(length))
	s.inputRecord.reset()
	if err != nil {
		return false, err
	}

	s.logger.Debug("record received",
		zap.Stringer("type", decodedType),
		zap.Int("length", len(payload)))

	if err := s.handler.ProcessRecord(decodedType, payload); err != nil {
		return false, err
	}
	return true, nil
}

// ReadFullRecord consumes one record from buf, which must contain
// exactly the record announced by its header (sized via PreviewHeader).
// It returns false without consuming anything when buf is not exactly
// one full record. The input stream is not touched.
func (s *Stream) ReadFullRecord(buf []byte) (bool, error) {
	if len(buf) < FragmentOffset {
		return false, nil
	}
	length := int(binary.BigEndian.Uint16(buf[lengthOffset:]))
	if len(buf) != FragmentOffset+length {
		return false, nil
	}

	typ := ContentType(buf[typeOffset])
	if err := checkType(typ, AlertUnexpectedMessage); err != nil {
		return false, err
	}

	version := ProtocolVersion(binary.BigEndian.Uint16(buf[versionOffset:]))

	if err := checkLength(length, s.ciphertextLimit, AlertRecordOverflow); err != nil {
		return false, err
	}

	decodedType, payload, err := s.decodeAndVerify(typ, version, buf[FragmentOffset:])
	if err != nil {
		return false, err
	}

	if err := s.handler.ProcessRecord(decodedType, payload); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Stream) decodeAndVerify(typ ContentType, version ProtocolVersion, ciphertext []byte) (ContentType, []byte, error) {
	seq, err := s.state.readSeq.next(AlertUnexpectedMessage)
	if err != nil {
		return 0, nil, err
	}

	decodedType, payload, err := s.state.read.DecodeCiphertext(seq, typ, version, ciphertext)
	if err != nil {
		return 0, nil, err
	}

	if err := checkLength(len(payload), s.plaintextLimit, AlertRecordOverflow); err != nil {
		return 0, nil, err
	}

	// RFC 5246 Section 6.2.1: zero-length fragments are only legal for
	// application data.
	if len(payload) < 1 && typ != ContentTypeApplicationData {
		return 0, nil, alertErr(AlertIllegalParameter)
	}

	return decodedType, payload, nil
}

// WriteRecord protects plaintext under the active write cipher and
// writes one record to the output stream. A bad type, an oversize
// fragment or a zero-length non-application-data fragment is a local
// caller bug and reported as internal_error rather than a peer
// violation. Nothing is emitted before SetWriteVersion.
func (s *Stream) WriteRecord(typ ContentType, plaintext []byte) error {
	if !s.writeVersionSet {
		return nil
	}

	if err := checkType(typ, AlertInternalError); err != nil {
		return err
	}
	if err := checkLength(len(plaintext), s.plaintextLimit, AlertInternalError); err != nil {
		return err
	}
	if len(plaintext) < 1 && typ != ContentTypeApplicationData {
		return alertErr(AlertInternalError)
	}

	seq, err := s.state.writeSeq.next(AlertInternalError)
	if err != nil {
		return err
	}

	rec, err := s.state.write.EncodePlaintext(seq, typ, s.writeVersion, FragmentOffset, plaintext)
	if err != nil {
		return err
	}

	ciphertextLength := len(rec) - FragmentOffset
	if ciphertextLength > math.MaxUint16 {
		return &AlertError{
			Description: AlertInternalError,
			Err:         fmt.Errorf("ciphertext length %d exceeds uint16", ciphertextLength),
		}
	}

	rec[typeOffset] = byte(typ)
	binary.BigEndian.PutUint16(rec[versionOffset:], uint16(s.writeVersion))
	binary.BigEndian.PutUint16(rec[lengthOffset:], uint16(ciphertextLength))

	if _, err := s.output.Write(rec); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	s.logger.Debug("record sent",
		zap.Stringer("type", typ),
		zap.Uint64("seq", seq),
		zap.Int("length", ciphertextLength))

	return s.Flush()
}

type flusher interface {
	Flush() error
}

// Flush forwards to the output stream when it buffers writes.
func (s *Stream) Flush() error {
	if f, ok := s.output.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close closes both endpoints exactly once each, regardless of the
// other's outcome. When both closes fail only the first error is
// reported; Go has no suppressed-error chain and callers compare
// against the primary cause.
func (s *Stream) Close() error {
	s.inputRecord.reset()

	in, _ := s.input.(io.Closer)
	out, _ := s.output.(io.Closer)

	var first error
	if in != nil {
		if err := in.Close(); err != nil {
			first = err
		}
	}
	if out != nil && out != in {
		if err := out.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func checkType(typ ContentType, alert AlertDescription) error {
	switch typ {
	case ContentTypeApplicationData, ContentTypeAlert, ContentTypeChangeCipherSpec, ContentTypeHandshake:
		return nil
	default:
		return alertErr(alert)
	}
}

func checkLength(length, limit int, alert AlertDescription) error {
	if length > limit {
		return alertErr(alert)
	}
	return nil
}
