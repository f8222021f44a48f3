package kem

import (
	"bytes"
	"testing"
)

var allGroups = []NamedGroup{MLKem512, MLKem768, MLKem1024}

func TestKemAgreement(t *testing.T) {
	for _, group := range allGroups {
		t.Run(group.String(), func(t *testing.T) {
			domain, err := NewDomain(group)
			if err != nil {
				t.Fatal(err)
			}

			pk, sk, err := domain.GenerateKeyPair()
			if err != nil {
				t.Fatalf("GenerateKeyPair failed: %v", err)
			}

			// The public key travels encoded, as it would in a key share.
			encoded, err := domain.EncodePublicKey(pk)
			if err != nil {
				t.Fatal(err)
			}
			peerPK, err := domain.DecodePublicKey(encoded)
			if err != nil {
				t.Fatalf("DecodePublicKey failed: %v", err)
			}

			ciphertext, encapSecret, err := domain.Encapsulate(peerPK)
			if err != nil {
				t.Fatalf("Encapsulate failed: %v", err)
			}
			decapSecret, err := domain.Decapsulate(sk, ciphertext)
			if err != nil {
				t.Fatalf("Decapsulate failed: %v", err)
			}

			if !bytes.Equal(encapSecret, decapSecret) {
				t.Fatal("shared secrets disagree")
			}
			if len(encapSecret) == 0 {
				t.Fatal("empty shared secret")
			}
		})
	}
}

func TestKemRejectsUnknownGroup(t *testing.T) {
	if _, err := NewDomain(NamedGroup(17)); err == nil {
		t.Fatal("unknown group accepted")
	}
}

func TestKemRejectsMalformedPublicKey(t *testing.T) {
	domain, err := NewDomain(MLKem768)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := domain.DecodePublicKey([]byte{1, 2, 3}); err == nil {
		t.Fatal("malformed public key accepted")
	}
}
