package record

import (
	"errors"
	"io"
	"testing"
)

// requireAlert fails the test unless err carries the wanted alert.
func requireAlert(t *testing.T, err error, want AlertDescription) {
	t.Helper()
	var alert *AlertError
	if !errors.As(err, &alert) {
		t.Fatalf("expected alert %s, got %v", want, err)
	}
	if alert.Description != want {
		t.Fatalf("alert = %s, want %s", alert.Description, want)
	}
}

// slowReader simulates a slow connection by returning one byte at a
// time.
type slowReader struct {
	data []byte
	pos  int
}

func (sr *slowReader) Read(p []byte) (int, error) {
	if sr.pos >= len(sr.data) {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = sr.data[sr.pos]
	sr.pos++
	return 1, nil
}

// capture collects every record dispatched by a Stream.
type capture struct {
	types    []ContentType
	payloads [][]byte
}

func (c *capture) ProcessRecord(typ ContentType, payload []byte) error {
	c.types = append(c.types, typ)
	c.payloads = append(c.payloads, append([]byte(nil), payload...))
	return nil
}

// seqRecorder is an identity cipher that records the sequence numbers
// it was driven with.
type seqRecorder struct {
	NullCipher
	encodeSeqs []uint64
	decodeSeqs []uint64
}

func (r *seqRecorder) DecodeCiphertext(seq uint64, typ ContentType, version ProtocolVersion, ciphertext []byte) (ContentType, []byte, error) {
	r.decodeSeqs = append(r.decodeSeqs, seq)
	return typ, ciphertext, nil
}

func (r *seqRecorder) EncodePlaintext(seq uint64, typ ContentType, version ProtocolVersion, headerLen int, plaintext []byte) ([]byte, error) {
	r.encodeSeqs = append(r.encodeSeqs, seq)
	return r.NullCipher.EncodePlaintext(seq, typ, version, headerLen, plaintext)
}
