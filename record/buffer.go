package record

import (
	"fmt"
	"io"
)

// recordBuffer holds the one record currently being read. It starts as
// a header-only view, grows (copy-preserving) to header+fragment once
// the declared length is known, and resets back to the header view
// while keeping the grown backing storage for the next record.
//
// The buffer is owned exclusively by the Stream read path and never
// aliased across records.
type recordBuffer struct {
	buf []byte
	pos int
}

func newRecordBuffer() *recordBuffer {
	return &recordBuffer{buf: make([]byte, FragmentOffset)}
}

// fillTo reads from source until length bytes are buffered. The filled
// offset is advanced by every partial transfer before an error is
// surfaced, so a caller that retries after a timeout resumes exactly
// where the interrupted read stopped, neither losing nor double
// counting bytes. A premature EOF leaves pos short of length and
// returns nil; the callers distinguish clean close from truncation.
func (b *recordBuffer) fillTo(source io.Reader, length int) error {
	for b.pos < length {
		n, err := source.Read(b.buf[b.pos:length])
		b.pos += n
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readHeader fills the header region. It returns false only when the
// stream closed cleanly before any byte arrived; a close after some
// but not all header bytes is a truncation error.
func (b *recordBuffer) readHeader(source io.Reader) (bool, error) {
	if err := b.fillTo(source, FragmentOffset); err != nil {
		return false, err
	}
	if b.pos == 0 {
		return false, nil
	}
	if b.pos < FragmentOffset {
		return false, fmt.Errorf("record header truncated after %d bytes: %w", b.pos, io.ErrUnexpectedEOF)
	}
	return true, nil
}

// readFragment grows the buffer to hold the declared fragment and fills
// the remainder. Mid-fragment truncation is always an error.
func (b *recordBuffer) readFragment(source io.Reader, fragmentLength int) error {
	recordLength := FragmentOffset + fragmentLength
	b.resize(recordLength)
	if err := b.fillTo(source, recordLength); err != nil {
		return err
	}
	if b.pos < recordLength {
		return fmt.Errorf("record fragment truncated at %d of %d bytes: %w", b.pos, recordLength, io.ErrUnexpectedEOF)
	}
	return nil
}

// reset returns the buffer to its header-only view. The backing storage
// is kept so that reading many records amortizes the allocation.
func (b *recordBuffer) reset() {
	b.pos = 0
}

func (b *recordBuffer) resize(length int) {
	if len(b.buf) < length {
		grown := make([]byte, length)
		copy(grown, b.buf[:b.pos])
		b.buf = grown
	}
}

// header returns the header view of the buffered record.
func (b *recordBuffer) header() []byte {
	return b.buf[:FragmentOffset]
}

// fragment returns the fragment view of the buffered record.
func (b *recordBuffer) fragment(fragmentLength int) []byte {
	return b.buf[FragmentOffset : FragmentOffset+fragmentLength]
}
