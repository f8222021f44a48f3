// Package suite provides TLS 1.2 AEAD record protection for the record
// layer, following RFC 5246 Section 6.2.3.3 with the nonce schemes of
// RFC 5288 (AES-GCM) and RFC 7905 (ChaCha20-Poly1305).
package suite

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"recordlayer/record"
)

// AEAD cipher suite identifiers (crypto/tls values).
const (
	TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256       uint16 = 0xc02f
	TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384       uint16 = 0xc030
	TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256 uint16 = 0xcca8
)

const tagLength = 16

// explicitNonceLength is the per-record nonce carried at the front of
// the fragment: 8 bytes for AES-GCM (RFC 5288 Section 3), none for
// ChaCha20-Poly1305.
func explicitNonceLength(id uint16) int {
	if id == TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256 {
		return 0
	}
	return 8
}

// keyLengths returns the key and implicit-IV lengths for a suite.
func keyLengths(id uint16) (keyLen, ivLen int, err error) {
	switch id {
	case TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:
		return 16, 4, nil
	case TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:
		return 32, 4, nil
	case TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256:
		return 32, 12, nil
	default:
		return 0, 0, fmt.Errorf("unsupported cipher suite: 0x%04x", id)
	}
}

// Keys holds one direction's traffic key material.
type Keys struct {
	Key []byte
	IV  []byte // implicit IV: 4 bytes for GCM suites, 12 for ChaCha20
}

// AEADCipher implements record.Cipher for one negotiated AEAD suite.
// A single instance holds both directions' keys, so the handshake layer
// can arm it as the pending cipher and activate each direction
// independently as the change cipher specs are exchanged.
type AEADCipher struct {
	id uint16

	write     cipher.AEAD
	read      cipher.AEAD
	writeIV   []byte
	readIV    []byte
	nonceLen  int // explicit nonce bytes on the wire
	overhead  int // explicit nonce + tag
	xorNonce  bool
}

// NewAEADCipher builds the record protection for the given suite from
// directional key material. Write keys protect outgoing records, read
// keys verify incoming ones; a client's write keys are the server's
// read keys.
func NewAEADCipher(id uint16, write, read Keys) (*AEADCipher, error) {
	keyLen, ivLen, err := keyLengths(id)
	if err != nil {
		return nil, err
	}
	for _, k := range []struct {
		name string
		got  int
		want int
	}{
		{"write key", len(write.Key), keyLen},
		{"read key", len(read.Key), keyLen},
		{"write IV", len(write.IV), ivLen},
		{"read IV", len(read.IV), ivLen},
	} {
		if k.got != k.want {
			return nil, fmt.Errorf("invalid %s length: got %d, expected %d", k.name, k.got, k.want)
		}
	}

	c := &AEADCipher{
		id:        id,
		writeIV:   append([]byte(nil), write.IV...),
		readIV:    append([]byte(nil), read.IV...),
		nonceLen:  explicitNonceLength(id),
		xorNonce:  id == TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	}
	c.overhead = c.nonceLen + tagLength

	if c.write, err = newAEAD(id, write.Key); err != nil {
		return nil, err
	}
	if c.read, err = newAEAD(id, read.Key); err != nil {
		return nil, err
	}
	return c, nil
}

func newAEAD(id uint16, key []byte) (cipher.AEAD, error) {
	switch id {
	case TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256:
		return chacha20poly1305.New(key)
	default:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		return cipher.NewGCM(block)
	}
}

// nonce builds the per-record nonce for one direction. GCM uses
// implicit_iv(4) || explicit_nonce(8); ChaCha20 XORs the sequence
// number into the 12-byte implicit IV.
func (c *AEADCipher) nonce(iv []byte, explicit uint64) []byte {
	n := make([]byte, 12)
	if c.xorNonce {
		copy(n, iv)
		for i := 0; i < 8; i++ {
			n[len(n)-1-i] ^= byte(explicit >> (8 * i))
		}
		return n
	}
	copy(n[:4], iv)
	binary.BigEndian.PutUint64(n[4:], explicit)
	return n
}

// additionalData is seq_num || type || version || plaintext length per
// RFC 5246 Section 6.2.3.3.
func additionalData(seq uint64, typ record.ContentType, version record.ProtocolVersion, plaintextLength int) []byte {
	ad := make([]byte, 13)
	binary.BigEndian.PutUint64(ad[:8], seq)
	ad[8] = byte(typ)
	binary.BigEndian.PutUint16(ad[9:], uint16(version))
	binary.BigEndian.PutUint16(ad[11:], uint16(plaintextLength))
	return ad
}

func (c *AEADCipher) EncodePlaintext(seq uint64, typ record.ContentType, version record.ProtocolVersion, headerLen int, plaintext []byte) ([]byte, error) {
	out := make([]byte, headerLen+c.nonceLen, headerLen+c.nonceLen+len(plaintext)+tagLength)
	if c.nonceLen > 0 {
		// The explicit nonce on the wire is the sequence number.
		binary.BigEndian.PutUint64(out[headerLen:], seq)
	}

	ad := additionalData(seq, typ, version, len(plaintext))
	return c.write.Seal(out, c.nonce(c.writeIV, seq), plaintext, ad), nil
}

func (c *AEADCipher) DecodeCiphertext(seq uint64, typ record.ContentType, version record.ProtocolVersion, ciphertext []byte) (record.ContentType, []byte, error) {
	if len(ciphertext) < c.overhead {
		return 0, nil, &record.AlertError{
			Description: record.AlertDecodeError,
			Err:         fmt.Errorf("fragment of %d bytes shorter than AEAD overhead %d", len(ciphertext), c.overhead),
		}
	}

	var explicit uint64
	if c.nonceLen > 0 {
		explicit = binary.BigEndian.Uint64(ciphertext[:c.nonceLen])
	} else {
		explicit = seq
	}

	sealed := ciphertext[c.nonceLen:]
	ad := additionalData(seq, typ, version, len(sealed)-tagLength)

	plaintext, err := c.read.Open(nil, c.nonce(c.readIV, explicit), sealed, ad)
	if err != nil {
		return 0, nil, &record.AlertError{Description: record.AlertBadRecordMAC, Err: err}
	}
	return typ, plaintext, nil
}

func (c *AEADCipher) CiphertextDecodeLimit(plaintextLimit int) int {
	return plaintextLimit + c.overhead
}

func (c *AEADCipher) PlaintextLimit(ciphertextLength int) int {
	return max(0, ciphertextLength-c.overhead)
}

func (c *AEADCipher) CiphertextEncodeLimit(plaintextLength int) int {
	return plaintextLength + c.overhead
}
