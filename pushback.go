package flac

import "io"

// pushbackReader wraps an io.Reader with a one-byte lookahead, letting the
// Decoder detect end-of-stream on its own terms instead of depending on the
// exact error value frame.Decode/frame.DecodeFrame happen to return (they
// wrap every read error, including io.EOF, through errutil.Err).
type pushbackReader struct {
	r   io.Reader
	b   byte
	has bool
}

func newPushbackReader(r io.Reader) *pushbackReader {
	return &pushbackReader{r: r}
}

// reset drops any buffered lookahead byte, used after repositioning the
// underlying reader with Seek.
func (p *pushbackReader) reset() {
	p.has = false
}

func (p *pushbackReader) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if p.has {
		buf[0] = p.b
		p.has = false
		if len(buf) == 1 {
			return 1, nil
		}
		n, err := p.r.Read(buf[1:])
		return n + 1, err
	}
	return p.r.Read(buf)
}

// peekEOF reports whether the stream is exhausted, without consuming the
// next byte if it isn't.
func (p *pushbackReader) peekEOF() (bool, error) {
	if p.has {
		return false, nil
	}
	var buf [1]byte
	n, err := io.ReadFull(p.r, buf[:])
	if n == 1 {
		p.b, p.has = buf[0], true
		return false, nil
	}
	if err == io.EOF {
		return true, nil
	}
	return false, err
}
