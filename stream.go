package flac

import (
	"os"

	"github.com/pkg/errors"
)

// Open opens the named file and parses its metadata block chain, returning
// a Decoder ready to read audio frames via Next and to Seek (the returned
// Decoder owns the file; it is closed only by an explicit call to Close,
// not by reaching the end of the stream).
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr("flac.Open", KindIO, errors.WithStack(err))
	}
	d, err := NewSeek(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// Close releases any file opened on the Decoder's behalf by Open or
// ParseFile. It is a no-op for a Decoder constructed directly with New or
// NewSeek over a caller-owned reader.
func (d *Decoder) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
