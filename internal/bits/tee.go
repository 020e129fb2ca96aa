package bits

import "io"

// TeeReader returns a reader that writes to w everything it reads from r,
// like io.TeeReader, but also implements io.ByteReader by reading exactly
// one byte at a time from r. This matters when the result is wrapped by
// github.com/icza/bitio.NewReader: bitio only avoids its own internal
// bufio.Reader (which would greedily over-read past the current frame) when
// its source already implements io.ByteReader.
func TeeReader(r io.Reader, w io.Writer) io.Reader {
	return &teeReader{r: r, w: w}
}

type teeReader struct {
	r io.Reader
	w io.Writer
}

func (t *teeReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		if _, werr := t.w.Write(p[:n]); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (t *teeReader) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(t.r, buf[:]); err != nil {
		return 0, err
	}
	if _, err := t.w.Write(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
