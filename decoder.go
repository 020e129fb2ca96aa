// Package flac implements access to FLAC (Free Lossless Audio Codec)
// streams: parsing and writing the metadata block chain, and decoding or
// encoding the audio frames that follow it.
package flac

import (
	"bufio"
	"crypto/md5"
	"hash"
	"io"
	"log"
	"sort"

	"github.com/mewkiz/goflac/frame"
	"github.com/mewkiz/goflac/internal/bufseekio"
	"github.com/mewkiz/goflac/meta"
	"github.com/pkg/errors"
)

// flacMagic is present at the beginning of every FLAC stream.
const flacMagic = "fLaC"

// Decoder reads the metadata block chain and audio frames of a FLAC
// stream. It implements the §4.7 state machine internally: callers simply
// call Next repeatedly, which folds SearchForFrameSync/ReadFrame together
// and reports EndOfStream as io.EOF.
type Decoder struct {
	r      *pushbackReader
	rs     io.ReadSeeker // non-nil when the underlying reader supports Seek
	pos    int64         // byte offset of the first audio frame, valid once known
	closer io.Closer     // non-nil when Open/ParseFile opened the underlying file

	// Info is the stream's StreamInfo block, always present.
	Info *meta.StreamInfo
	// Blocks holds every non-StreamInfo metadata block, in stream order.
	Blocks []*meta.Block

	seekTable *meta.SeekTable // cached from Blocks, if present

	checkMD5 bool
	md5sum   hash.Hash
}

// DecoderOption configures a Decoder at construction time.
type DecoderOption func(*Decoder)

// WithMD5Check enables or disables accumulation and verification of the
// running MD5 signature against StreamInfo.MD5sum; enabled by default.
func WithMD5Check(enabled bool) DecoderOption {
	return func(d *Decoder) { d.checkMD5 = enabled }
}

// New parses the metadata block chain from r and returns a Decoder
// positioned at the first audio frame. r need not support Seek; Seek on the
// returned Decoder will fail with KindUnsupported if it doesn't.
func New(r io.Reader, opts ...DecoderOption) (*Decoder, error) {
	d := &Decoder{checkMD5: true}
	for _, opt := range opts {
		opt(d)
	}
	if rs, ok := r.(io.ReadSeeker); ok {
		d.rs = bufseekio.NewReadSeeker(rs)
		d.r = newPushbackReader(d.rs)
	} else {
		d.r = newPushbackReader(bufio.NewReader(r))
	}
	if err := d.readMetadata(); err != nil {
		return nil, err
	}
	if d.checkMD5 {
		d.md5sum = md5.New()
	}
	return d, nil
}

// NewSeek is equivalent to New, but requires an io.ReadSeeker and enables
// Seek.
func NewSeek(rs io.ReadSeeker, opts ...DecoderOption) (*Decoder, error) {
	return New(rs, opts...)
}

// Parse is an alias of New, kept for parity with the package's ParseFile
// convenience (parses metadata only, stopping before the first frame).
func Parse(r io.Reader) (*Decoder, error) {
	return New(r)
}

// ParseFile opens path and parses its metadata block chain.
func ParseFile(path string) (*Decoder, error) {
	return Open(path)
}

// readMetadata implements SearchForMetadata and ReadMetadata.
func (d *Decoder) readMetadata() error {
	var magic [4]byte
	if _, err := io.ReadFull(d.r, magic[:]); err != nil {
		return wrapErr("flac.New", KindIO, errors.WithStack(err))
	}
	if string(magic[:]) != flacMagic {
		return wrapErr("flac.New", KindSyntax, errors.Errorf("invalid stream magic %q", magic))
	}

	for {
		block, err := meta.NewBlock(d.r)
		if err != nil {
			return wrapErr("flac.New", KindSyntax, err)
		}
		if si, ok := block.Body.(*meta.StreamInfo); ok {
			if d.Info != nil {
				return wrapErr("flac.New", KindSyntax, errors.New("duplicate StreamInfo block"))
			}
			d.Info = si
		} else {
			if block.Header.Type > meta.TypePicture {
				log.Printf("flac: ignoring metadata block of unknown type %d", block.Header.Type)
			}
			if st, ok := block.Body.(*meta.SeekTable); ok {
				d.seekTable = st
			}
			d.Blocks = append(d.Blocks, block)
		}
		if block.Header.IsLast {
			break
		}
	}
	if d.Info == nil {
		return wrapErr("flac.New", KindSyntax, errors.New("missing StreamInfo block"))
	}

	if d.rs != nil {
		pos, err := d.rs.Seek(0, io.SeekCurrent)
		if err == nil {
			d.pos = pos
		}
	}
	return nil
}

// Next implements ReadFrame: it decodes the frame that starts at the
// current position, verifies its header CRC-8 and its CRC-16 footer, and
// accumulates the running MD5 signature. It returns io.EOF at the expected
// end of stream. It does not scan ahead for the next sync pattern: a
// malformed frame, or a variable-blocksize frame in a stream whose
// StreamInfo has equal minimum and maximum block sizes, is returned as a
// KindSyntax error.
func (d *Decoder) Next() (*frame.Frame, error) {
	atEOF, err := d.r.peekEOF()
	if err != nil {
		return nil, wrapErr("Decoder.Next", KindIO, errors.WithStack(err))
	}
	if atEOF {
		return nil, io.EOF
	}
	f, err := frame.DecodeFrame(d.r, d.Info.BitsPerSample, d.Info.SampleRate)
	if err != nil {
		return nil, wrapErr("Decoder.Next", KindSyntax, err)
	}
	if !f.Header.HasFixedBlockSize && d.Info.BlockSizeMin == d.Info.BlockSizeMax {
		return nil, wrapErr("Decoder.Next", KindSyntax, errors.New("variable-blocksize frame in a fixed-blocksize stream"))
	}
	if d.md5sum != nil {
		writeSamplesHash(d.md5sum, f.Samples(), d.Info.BitsPerSample)
	}
	return f, nil
}

// ParseNext is an alias of Next, matching the teacher's naming.
func (d *Decoder) ParseNext() (*frame.Frame, error) {
	return d.Next()
}

// CheckMD5 reports whether the MD5 signature accumulated so far over every
// frame returned by Next matches StreamInfo.MD5sum. It is meaningful only
// after Next has returned io.EOF, and only if MD5 checking was enabled and
// StreamInfo.MD5sum is non-zero.
func (d *Decoder) CheckMD5() bool {
	if d.md5sum == nil {
		return true
	}
	got := d.md5sum.Sum(nil)
	for _, b := range d.Info.MD5sum {
		if b != 0 {
			return string(got) == string(d.Info.MD5sum[:])
		}
	}
	return true
}

// Seek repositions the decoder so the next call to Next returns the frame
// containing sample number sampleNum, and reports the sample number the
// decoder actually landed on (the first sample of that frame), which is
// less than sampleNum unless sampleNum starts a frame. It requires the
// Decoder to have been constructed over an io.ReadSeeker.
func (d *Decoder) Seek(sampleNum uint64) (uint64, error) {
	if d.rs == nil {
		return 0, wrapErr("Decoder.Seek", KindUnsupported, errors.New("underlying reader does not support seeking"))
	}
	if d.Info.NSamples != 0 && sampleNum >= d.Info.NSamples {
		return 0, wrapErr("Decoder.Seek", KindIO, errors.Errorf("unable to seek to sample number %d", sampleNum))
	}

	start := d.pos
	if d.seekTable != nil && len(d.seekTable.Points) > 0 {
		if _, offset, ok := seekTableSearch(d.seekTable, sampleNum); ok {
			start = d.pos + int64(offset)
		}
	}

	if _, err := d.rs.Seek(start, io.SeekStart); err != nil {
		return 0, wrapErr("Decoder.Seek", KindIO, errors.WithStack(err))
	}
	if sampleNum == 0 {
		d.r.reset()
		return 0, nil
	}

	// Scan forward, frame by frame, from the seek point (or from the first
	// frame when no seek point applies) until we pass the target; then
	// rewind to the start of the containing frame.
	var landed uint64
	landedOffset := start
	for {
		offset, err := d.rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, wrapErr("Decoder.Seek", KindIO, errors.WithStack(err))
		}
		var probe [1]byte
		if n, err := io.ReadFull(d.rs, probe[:]); n == 0 && err == io.EOF {
			break
		} else if err != nil && err != io.EOF {
			return 0, wrapErr("Decoder.Seek", KindIO, errors.WithStack(err))
		}
		if _, err := d.rs.Seek(offset, io.SeekStart); err != nil {
			return 0, wrapErr("Decoder.Seek", KindIO, errors.WithStack(err))
		}
		hdr, err := frame.Decode(d.rs)
		if err != nil {
			return 0, wrapErr("Decoder.Seek", KindSyntax, err)
		}
		firstSample := hdr.Num
		if !hdr.HasFixedBlockSize {
			// Num is already the first sample number.
		} else {
			firstSample = hdr.Num * uint64(d.Info.BlockSizeMax)
		}
		if firstSample > sampleNum {
			break
		}
		landed, landedOffset = firstSample, offset
		if _, err := d.rs.Seek(offset, io.SeekStart); err != nil {
			return 0, wrapErr("Decoder.Seek", KindIO, errors.WithStack(err))
		}
		if _, err := frame.DecodeFrame(d.rs, d.Info.BitsPerSample, d.Info.SampleRate); err != nil {
			return 0, wrapErr("Decoder.Seek", KindSyntax, err)
		}
	}
	if _, err := d.rs.Seek(landedOffset, io.SeekStart); err != nil {
		return 0, wrapErr("Decoder.Seek", KindIO, errors.WithStack(err))
	}
	d.r.reset()
	return landed, nil
}

// seekTableSearch finds the seek point with the greatest sample number not
// exceeding sampleNum, returning the first sample number of the frame it
// names, its byte offset (relative to the first audio frame), and whether a
// usable point was found.
func seekTableSearch(st *meta.SeekTable, sampleNum uint64) (landed uint64, offset uint64, ok bool) {
	points := st.Points
	i := sort.Search(len(points), func(i int) bool {
		return points[i].SampleNum != meta.PlaceholderPoint && points[i].SampleNum > sampleNum
	})
	if i == 0 {
		return 0, 0, false
	}
	p := points[i-1]
	if p.SampleNum == meta.PlaceholderPoint {
		return 0, 0, false
	}
	return p.SampleNum, p.Offset, true
}
