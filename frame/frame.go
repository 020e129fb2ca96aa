// Package frame implements access to FLAC audio frames: the frame header,
// per-channel subframes (constant, verbatim, fixed and LPC prediction) and
// their partitioned Rice-coded residuals.
package frame

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/goflac/internal/bits"
	"github.com/mewkiz/goflac/internal/hashutil/crc16"
	"github.com/mewkiz/pkg/errutil"
)

// A Frame is a decoded (or to-be-encoded) audio frame: a header followed by
// one subframe per channel.
type Frame struct {
	// Header describes how the frame's subframes are encoded.
	Header *Header
	// Subframes holds one subframe per channel, in the bitstream order
	// implied by Header.Channels.
	Subframes []*Subframe
}

// DecodeFrame parses and returns a new frame from r, verifying the header's
// CRC-8 and the frame's CRC-16 footer. bps and sampleRate are used when the
// frame header defers to the stream's StreamInfo block (BitsPerSample or
// SampleRate of 0).
func DecodeFrame(r io.Reader, bps uint8, sampleRate uint32) (*Frame, error) {
	buf := &bytes.Buffer{}
	tr := bits.TeeReader(r, buf)

	hdr, err := Decode(tr)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if hdr.BitsPerSample == 0 {
		hdr.BitsPerSample = bps
	}
	if hdr.SampleRate == 0 {
		hdr.SampleRate = sampleRate
	}

	br := bits.NewReader(tr)
	nchannels := hdr.Channels.Count()
	subframes := make([]*Subframe, nchannels)
	for ch := 0; ch < nchannels; ch++ {
		chBps := uint(hdr.BitsPerSample)
		switch hdr.Channels {
		case ChannelsLeftSide, ChannelsMidSide:
			if ch == 1 {
				chBps++
			}
		case ChannelsSideRight:
			if ch == 0 {
				chBps++
			}
		}
		sf, err := decodeSubframe(br, int(hdr.BlockSize), chBps)
		if err != nil {
			return nil, errutil.Err(err)
		}
		subframes[ch] = sf
	}

	br.Align()

	want, err := readUint16(r)
	if err != nil {
		return nil, errutil.Err(err)
	}
	got := crc16.Checksum(buf.Bytes())
	if got != want {
		return nil, errutil.Newf("frame.DecodeFrame: footer checksum mismatch; expected 0x%04X, got 0x%04X", want, got)
	}

	return &Frame{Header: hdr, Subframes: subframes}, nil
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// Samples returns the frame's decoded inter-channel audio samples, one slice
// per channel, undoing any inter-channel decorrelation (left/side,
// side/right, mid/side) implied by the frame's channel assignment.
func (f *Frame) Samples() [][]int32 {
	n := len(f.Subframes[0].Samples)
	nchannels := len(f.Subframes)
	out := make([][]int32, nchannels)
	for i := range out {
		out[i] = make([]int32, n)
	}

	switch f.Header.Channels {
	case ChannelsLeftSide:
		left := f.Subframes[0].Samples
		side := f.Subframes[1].Samples
		for i := 0; i < n; i++ {
			out[0][i] = left[i]
			out[1][i] = left[i] - side[i]
		}
	case ChannelsSideRight:
		side := f.Subframes[0].Samples
		right := f.Subframes[1].Samples
		for i := 0; i < n; i++ {
			out[0][i] = right[i] + side[i]
			out[1][i] = right[i]
		}
	case ChannelsMidSide:
		mid := f.Subframes[0].Samples
		side := f.Subframes[1].Samples
		for i := 0; i < n; i++ {
			s := side[i]
			m := (mid[i] << 1) | (s & 1)
			out[0][i] = (m + s) >> 1
			out[1][i] = (m - s) >> 1
		}
	default:
		for ch := range f.Subframes {
			copy(out[ch], f.Subframes[ch].Samples)
		}
	}
	return out
}

// Encode writes the frame's header, subframes and CRC-16 footer to w.
func (f *Frame) Encode(w io.Writer) error {
	buf := &bytes.Buffer{}
	mw := io.MultiWriter(buf, w)

	if err := f.Header.Encode(mw); err != nil {
		return errutil.Err(err)
	}

	bw := bitio.NewWriter(mw)
	for ch, sf := range f.Subframes {
		chBps := uint(f.Header.BitsPerSample)
		switch f.Header.Channels {
		case ChannelsLeftSide, ChannelsMidSide:
			if ch == 1 {
				chBps++
			}
		case ChannelsSideRight:
			if ch == 0 {
				chBps++
			}
		}
		if err := encodeSubframe(bw, sf, chBps); err != nil {
			return errutil.Err(err)
		}
	}
	if _, err := bw.Align(); err != nil {
		return errutil.Err(err)
	}

	crc := crc16.Checksum(buf.Bytes())
	return binary.Write(w, binary.BigEndian, crc)
}
