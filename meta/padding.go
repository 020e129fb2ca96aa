package meta

import (
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// Padding is a block reserving space in the metadata chain for future
// in-place block growth, without requiring a full file rewrite.
type Padding struct {
	// Length is the number of zero bytes the block occupies.
	Length int64
}

func decodePadding(r io.Reader, length int64) (*Padding, error) {
	buf := make([]byte, 4096)
	var n int64
	for n < length {
		want := int64(len(buf))
		if rem := length - n; rem < want {
			want = rem
		}
		read, err := io.ReadFull(r, buf[:want])
		n += int64(read)
		if err != nil {
			return nil, err
		}
		for _, b := range buf[:read] {
			if b != 0 {
				return nil, errutil.New("meta.decodePadding: non-zero byte in padding block")
			}
		}
	}
	return &Padding{Length: length}, nil
}

// Encode writes Length zero bytes to w.
func (p *Padding) Encode(w io.Writer) error {
	buf := make([]byte, 4096)
	for n := int64(0); n < p.Length; {
		want := int64(len(buf))
		if rem := p.Length - n; rem < want {
			want = rem
		}
		if _, err := w.Write(buf[:want]); err != nil {
			return errutil.Err(err)
		}
		n += want
	}
	return nil
}
