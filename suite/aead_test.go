package suite

import (
	"bytes"
	"errors"
	"testing"

	"recordlayer/record"
)

func testKeys(t *testing.T, id uint16) (client, server *AEADCipher) {
	t.Helper()
	keyLen, ivLen, err := keyLengths(id)
	if err != nil {
		t.Fatal(err)
	}

	pattern := func(fill byte, n int) []byte {
		return bytes.Repeat([]byte{fill}, n)
	}
	clientKeys := Keys{Key: pattern(0x11, keyLen), IV: pattern(0x22, ivLen)}
	serverKeys := Keys{Key: pattern(0x33, keyLen), IV: pattern(0x44, ivLen)}

	client, err = NewAEADCipher(id, clientKeys, serverKeys)
	if err != nil {
		t.Fatal(err)
	}
	server, err = NewAEADCipher(id, serverKeys, clientKeys)
	if err != nil {
		t.Fatal(err)
	}
	return client, server
}

func suiteName(id uint16) string {
	switch id {
	case TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:
		return "AES-128-GCM"
	case TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:
		return "AES-256-GCM"
	case TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256:
		return "ChaCha20-Poly1305"
	default:
		return "unknown"
	}
}

var allSuites = []uint16{
	TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
}

func TestAEADRoundTrip(t *testing.T) {
	for _, id := range allSuites {
		t.Run(suiteName(id), func(t *testing.T) {
			client, server := testKeys(t, id)
			plaintext := []byte("per-record protection round trip")

			for seq := uint64(0); seq < 4; seq++ {
				rec, err := client.EncodePlaintext(seq, record.ContentTypeApplicationData, record.VersionTLS12, record.FragmentOffset, plaintext)
				if err != nil {
					t.Fatalf("seq %d: encode failed: %v", seq, err)
				}

				ciphertext := rec[record.FragmentOffset:]
				if want := len(plaintext) + explicitNonceLength(id) + tagLength; len(ciphertext) != want {
					t.Fatalf("seq %d: ciphertext length = %d, want %d", seq, len(ciphertext), want)
				}

				typ, decoded, err := server.DecodeCiphertext(seq, record.ContentTypeApplicationData, record.VersionTLS12, ciphertext)
				if err != nil {
					t.Fatalf("seq %d: decode failed: %v", seq, err)
				}
				if typ != record.ContentTypeApplicationData {
					t.Fatalf("seq %d: type = %s", seq, typ)
				}
				if !bytes.Equal(decoded, plaintext) {
					t.Fatalf("seq %d: plaintext mismatch", seq)
				}
			}
		})
	}
}

func TestAEADTamperDetection(t *testing.T) {
	for _, id := range allSuites {
		t.Run(suiteName(id), func(t *testing.T) {
			client, server := testKeys(t, id)

			rec, err := client.EncodePlaintext(0, record.ContentTypeApplicationData, record.VersionTLS12, record.FragmentOffset, []byte("sealed"))
			if err != nil {
				t.Fatal(err)
			}
			ciphertext := rec[record.FragmentOffset:]

			// Flip one bit in the sealed portion.
			tampered := append([]byte(nil), ciphertext...)
			tampered[len(tampered)-1] ^= 0x01

			_, _, err = server.DecodeCiphertext(0, record.ContentTypeApplicationData, record.VersionTLS12, tampered)
			var alert *record.AlertError
			if !errors.As(err, &alert) || alert.Description != record.AlertBadRecordMAC {
				t.Fatalf("tampered record: err = %v, want bad_record_mac", err)
			}

			// Wrong sequence number breaks the additional data.
			_, _, err = server.DecodeCiphertext(7, record.ContentTypeApplicationData, record.VersionTLS12, ciphertext)
			if !errors.As(err, &alert) || alert.Description != record.AlertBadRecordMAC {
				t.Fatalf("wrong seq: err = %v, want bad_record_mac", err)
			}
		})
	}
}

func TestAEADShortFragment(t *testing.T) {
	_, server := testKeys(t, TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256)
	_, _, err := server.DecodeCiphertext(0, record.ContentTypeApplicationData, record.VersionTLS12, []byte{1, 2, 3})
	var alert *record.AlertError
	if !errors.As(err, &alert) || alert.Description != record.AlertDecodeError {
		t.Fatalf("err = %v, want decode_error", err)
	}
}

func TestAEADLimits(t *testing.T) {
	testCases := []struct {
		id       uint16
		overhead int
	}{
		{TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, 24},
		{TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384, 24},
		{TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256, 16},
	}

	for _, tc := range testCases {
		t.Run(suiteName(tc.id), func(t *testing.T) {
			c, _ := testKeys(t, tc.id)

			if got := c.CiphertextEncodeLimit(1000); got != 1000+tc.overhead {
				t.Errorf("CiphertextEncodeLimit(1000) = %d, want %d", got, 1000+tc.overhead)
			}
			if got := c.CiphertextDecodeLimit(record.DefaultPlaintextLimit); got != record.DefaultPlaintextLimit+tc.overhead {
				t.Errorf("CiphertextDecodeLimit = %d, want %d", got, record.DefaultPlaintextLimit+tc.overhead)
			}
			if got := c.PlaintextLimit(1000); got != 1000-tc.overhead {
				t.Errorf("PlaintextLimit(1000) = %d, want %d", got, 1000-tc.overhead)
			}
			if got := c.PlaintextLimit(3); got != 0 {
				t.Errorf("PlaintextLimit(3) = %d, want 0", got)
			}

			// Encode limit must predict the actual record exactly.
			plaintext := bytes.Repeat([]byte{0xAA}, 100)
			rec, err := c.EncodePlaintext(0, record.ContentTypeApplicationData, record.VersionTLS12, record.FragmentOffset, plaintext)
			if err != nil {
				t.Fatal(err)
			}
			if got := len(rec) - record.FragmentOffset; got != c.CiphertextEncodeLimit(len(plaintext)) {
				t.Errorf("actual ciphertext = %d, predicted %d", got, c.CiphertextEncodeLimit(len(plaintext)))
			}
		})
	}
}

func TestAEADKeyValidation(t *testing.T) {
	good := Keys{Key: make([]byte, 16), IV: make([]byte, 4)}
	short := Keys{Key: make([]byte, 15), IV: make([]byte, 4)}

	if _, err := NewAEADCipher(TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, short, good); err == nil {
		t.Fatal("short write key accepted")
	}
	if _, err := NewAEADCipher(TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, good, short); err == nil {
		t.Fatal("short read key accepted")
	}
	if _, err := NewAEADCipher(0x1301, good, good); err == nil {
		t.Fatal("unknown suite accepted")
	}
}

// TestStreamWithAEAD drives a full record.Stream pair through the
// cipher activation sequence and exchanges protected application data.
func TestStreamWithAEAD(t *testing.T) {
	for _, id := range allSuites {
		t.Run(suiteName(id), func(t *testing.T) {
			clientCipher, serverCipher := testKeys(t, id)

			wire := &bytes.Buffer{}
			client := record.NewStream(record.Config{
				Handler: record.HandlerFunc(func(record.ContentType, []byte) error { return nil }),
				Input:   &bytes.Buffer{},
				Output:  wire,
			})
			client.SetWriteVersion(record.VersionTLS12)

			var got []byte
			server := record.NewStream(record.Config{
				Handler: record.HandlerFunc(func(typ record.ContentType, payload []byte) error {
					got = append(got, payload...)
					return nil
				}),
				Input:  wire,
				Output: &bytes.Buffer{},
			})

			// Handshake-style activation on both ends.
			if err := client.SetPending(clientCipher); err != nil {
				t.Fatal(err)
			}
			if err := client.ActivateWrite(); err != nil {
				t.Fatal(err)
			}
			if err := client.ActivateRead(); err != nil {
				t.Fatal(err)
			}
			if err := client.Finalize(); err != nil {
				t.Fatal(err)
			}

			if err := server.SetPending(serverCipher); err != nil {
				t.Fatal(err)
			}
			if err := server.ActivateRead(); err != nil {
				t.Fatal(err)
			}
			if err := server.ActivateWrite(); err != nil {
				t.Fatal(err)
			}
			if err := server.Finalize(); err != nil {
				t.Fatal(err)
			}

			messages := [][]byte{
				[]byte("first protected record"),
				[]byte("second protected record"),
				bytes.Repeat([]byte{0x5A}, record.DefaultPlaintextLimit),
			}
			var want []byte
			for _, m := range messages {
				if err := client.WriteRecord(record.ContentTypeApplicationData, m); err != nil {
					t.Fatalf("WriteRecord failed: %v", err)
				}
				want = append(want, m...)
			}
			for range messages {
				ok, err := server.ReadRecord()
				if err != nil || !ok {
					t.Fatalf("ReadRecord() = %v, %v", ok, err)
				}
			}

			if !bytes.Equal(got, want) {
				t.Fatal("protected payload mismatch after round trip")
			}
		})
	}
}
