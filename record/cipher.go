package record

// Cipher applies and removes per-record protection. Implementations are
// handed in by the handshake layer, which owns their lifetime; the
// record layer only references them through its cipher register.
type Cipher interface {
	// DecodeCiphertext verifies and strips protection from one received
	// fragment, returning the inner content type and payload.
	DecodeCiphertext(seq uint64, typ ContentType, version ProtocolVersion, ciphertext []byte) (ContentType, []byte, error)

	// EncodePlaintext protects one outgoing fragment. The result has
	// headerLen bytes reserved at the front for the record header.
	EncodePlaintext(seq uint64, typ ContentType, version ProtocolVersion, headerLen int, plaintext []byte) ([]byte, error)

	// CiphertextDecodeLimit is the largest fragment length acceptable
	// on receive for the given plaintext limit.
	CiphertextDecodeLimit(plaintextLimit int) int

	// PlaintextLimit is the largest plaintext a fragment of the given
	// length can decode to.
	PlaintextLimit(ciphertextLength int) int

	// CiphertextEncodeLimit is the largest fragment a plaintext of the
	// given length can encode to.
	CiphertextEncodeLimit(plaintextLength int) int
}

// NullCipher is the identity protection in force on both directions
// before the first change cipher spec.
type NullCipher struct{}

func (NullCipher) DecodeCiphertext(seq uint64, typ ContentType, version ProtocolVersion, ciphertext []byte) (ContentType, []byte, error) {
	return typ, ciphertext, nil
}

func (NullCipher) EncodePlaintext(seq uint64, typ ContentType, version ProtocolVersion, headerLen int, plaintext []byte) ([]byte, error) {
	out := make([]byte, headerLen+len(plaintext))
	copy(out[headerLen:], plaintext)
	return out, nil
}

func (NullCipher) CiphertextDecodeLimit(plaintextLimit int) int { return plaintextLimit }

func (NullCipher) PlaintextLimit(ciphertextLength int) int { return ciphertextLength }

func (NullCipher) CiphertextEncodeLimit(plaintextLength int) int { return plaintextLength }
