package record

import "errors"

// cipherState is the three-slot cipher register: the ciphers in force
// for each direction plus the negotiated cipher waiting for its change
// cipher spec, along with both directions' sequence counters. The
// change cipher spec is a one-way signal, so the same pending cipher is
// activated for read and write independently and possibly far apart;
// finalize checks that both directions converged on it.
type cipherState struct {
	pending Cipher
	read    Cipher
	write   Cipher

	readSeq  *sequenceNumber
	writeSeq *sequenceNumber
}

func newCipherState() *cipherState {
	return &cipherState{
		read:     NullCipher{},
		write:    NullCipher{},
		readSeq:  &sequenceNumber{},
		writeSeq: &sequenceNumber{},
	}
}

// setPending arms the negotiated cipher. A pending cipher that has not
// yet been consumed by finalize cannot be replaced; renegotiation may
// arm a new one afterwards.
func (c *cipherState) setPending(cipher Cipher) error {
	if cipher == nil {
		return &AlertError{Description: AlertInternalError, Err: errors.New("nil pending cipher")}
	}
	if c.pending != nil {
		return &AlertError{Description: AlertInternalError, Err: errors.New("pending cipher already armed")}
	}
	c.pending = cipher
	return nil
}

// activateWrite switches the write direction onto the pending cipher in
// response to sending our own change cipher spec. The write sequence
// counter restarts at zero under the new cipher.
func (c *cipherState) activateWrite() error {
	if c.pending == nil {
		return alertErr(AlertHandshakeFailure)
	}
	c.write = c.pending
	c.writeSeq = &sequenceNumber{}
	return nil
}

// activateRead is the symmetric switch for the read direction, driven
// by the peer's change cipher spec.
func (c *cipherState) activateRead() error {
	if c.pending == nil {
		return alertErr(AlertHandshakeFailure)
	}
	c.read = c.pending
	c.readSeq = &sequenceNumber{}
	return nil
}

// finalize completes the handshake's cipher switch. Both directions
// must already be running the pending cipher; otherwise the handshake
// finished with a direction that never switched, which is fatal. The
// pending slot is cleared and never referenced again.
func (c *cipherState) finalize() error {
	if c.pending == nil || c.read != c.pending || c.write != c.pending {
		return alertErr(AlertHandshakeFailure)
	}
	c.pending = nil
	return nil
}
