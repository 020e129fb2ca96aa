package bits

import (
	"io"

	"github.com/icza/bitio"
)

// Reader reads individual bits and small bit-fields from an underlying
// io.Reader, most-significant-bit first.
type Reader struct {
	r *bitio.Reader
}

// NewReader returns a Reader that reads bits from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bitio.NewReader(r)}
}

// Read reads and returns the next n bits (0 <= n <= 64) as an unsigned
// integer, most-significant-bit first.
func (br *Reader) Read(n uint) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	x, err := br.r.ReadBits(byte(n))
	return x, err
}

// ReadBit reads and returns a single bit.
func (br *Reader) ReadBit() (uint64, error) {
	b, err := br.r.ReadBool()
	if err != nil {
		return 0, err
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// Align discards any unread bits cached from the last partially-consumed
// byte, resynchronizing the reader to the next byte boundary, and returns
// how many bits were discarded (0-7).
func (br *Reader) Align() uint8 {
	return br.r.Align()
}
