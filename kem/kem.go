// Package kem provides the post-quantum key-encapsulation capability
// used by the handshake layer for key exchange. It is a peer of the
// record layer's cipher provider, not part of the record layer itself.
package kem

import (
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem512"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// NamedGroup selects the ML-KEM parameter set, one per security level.
type NamedGroup uint16

const (
	MLKem512  NamedGroup = 512
	MLKem768  NamedGroup = 768
	MLKem1024 NamedGroup = 1024
)

func (g NamedGroup) String() string {
	switch g {
	case MLKem512:
		return "ML-KEM-512"
	case MLKem768:
		return "ML-KEM-768"
	case MLKem1024:
		return "ML-KEM-1024"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(g))
	}
}

func schemeFor(group NamedGroup) kem.Scheme {
	switch group {
	case MLKem512:
		return mlkem512.Scheme()
	case MLKem768:
		return mlkem768.Scheme()
	case MLKem1024:
		return mlkem1024.Scheme()
	default:
		return nil
	}
}

// Domain binds the ML-KEM operations for one named group.
type Domain struct {
	group  NamedGroup
	scheme kem.Scheme
}

// NewDomain creates the KEM domain for the given named group.
func NewDomain(group NamedGroup) (*Domain, error) {
	scheme := schemeFor(group)
	if scheme == nil {
		return nil, fmt.Errorf("kem: unsupported named group %d", group)
	}
	return &Domain{group: group, scheme: scheme}, nil
}

func (d *Domain) Group() NamedGroup { return d.group }

// GenerateKeyPair creates a fresh encapsulation key pair.
func (d *Domain) GenerateKeyPair() (kem.PublicKey, kem.PrivateKey, error) {
	return d.scheme.GenerateKeyPair()
}

// EncodePublicKey serializes a public key for the key-share extension.
func (d *Domain) EncodePublicKey(pk kem.PublicKey) ([]byte, error) {
	return pk.MarshalBinary()
}

// DecodePublicKey parses a peer's key share.
func (d *Domain) DecodePublicKey(encoding []byte) (kem.PublicKey, error) {
	pk, err := d.scheme.UnmarshalBinaryPublicKey(encoding)
	if err != nil {
		return nil, fmt.Errorf("kem: invalid %s public key: %w", d.group, err)
	}
	return pk, nil
}

// Encapsulate derives a shared secret against the peer's public key,
// returning the ciphertext to send back and the local copy of the
// secret.
func (d *Domain) Encapsulate(pk kem.PublicKey) (ciphertext, sharedSecret []byte, err error) {
	return d.scheme.Encapsulate(pk)
}

// Decapsulate recovers the shared secret from a received ciphertext.
func (d *Domain) Decapsulate(sk kem.PrivateKey, ciphertext []byte) ([]byte, error) {
	secret, err := d.scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("kem: %s decapsulation failed: %w", d.group, err)
	}
	return secret, nil
}
