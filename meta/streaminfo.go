package meta

import (
	"encoding/binary"
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// StreamInfo contains the parameters that describe the whole stream: sample
// rate, channel and bit depth, block size bounds, total sample count, and
// the MD5 signature of the decoded audio. Exactly one StreamInfo block
// exists per stream, and it is always the first metadata block.
type StreamInfo struct {
	// BlockSizeMin is the minimum block size (in samples) used in the
	// stream.
	BlockSizeMin uint16
	// BlockSizeMax is the maximum block size (in samples) used in the
	// stream. BlockSizeMin == BlockSizeMax implies a fixed-blocksize stream.
	BlockSizeMax uint16
	// FrameSizeMin is the minimum frame size (in bytes) used in the stream,
	// or 0 if unknown.
	FrameSizeMin uint32
	// FrameSizeMax is the maximum frame size (in bytes) used in the stream,
	// or 0 if unknown.
	FrameSizeMax uint32
	// SampleRate in Hz; nonzero, at most 655350.
	SampleRate uint32
	// NChannels is the number of channels; between 1 and 8.
	NChannels uint8
	// BitsPerSample; between 4 and 32.
	BitsPerSample uint8
	// NSamples is the total number of inter-channel samples in the stream,
	// or 0 if unknown.
	NSamples uint64
	// MD5sum of the unencoded, little-endian packed audio data.
	MD5sum [16]byte
}

// streamInfoLen is the fixed body length, in bytes, of a StreamInfo block.
const streamInfoLen = 34

func decodeStreamInfo(r io.Reader) (*StreamInfo, error) {
	// 16+16+24+24+20+3+5+36 = 144 bits = 18 bytes, followed by 16 bytes MD5sum.
	var buf [18]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}

	si := &StreamInfo{}
	si.BlockSizeMin = binary.BigEndian.Uint16(buf[0:2])
	if si.BlockSizeMin < 16 {
		return nil, errutil.Newf("meta.decodeStreamInfo: invalid min block size; expected >= 16, got %d", si.BlockSizeMin)
	}
	si.BlockSizeMax = binary.BigEndian.Uint16(buf[2:4])
	if si.BlockSizeMax < 16 {
		return nil, errutil.Newf("meta.decodeStreamInfo: invalid max block size; expected >= 16, got %d", si.BlockSizeMax)
	}

	si.FrameSizeMin = uint32(buf[4])<<16 | uint32(buf[5])<<8 | uint32(buf[6])
	si.FrameSizeMax = uint32(buf[7])<<16 | uint32(buf[8])<<8 | uint32(buf[9])

	// 20 bits sample rate, 3 bits (channels-1), 5 bits (bps-1), 36 bits
	// sample count, packed across buf[10:18].
	bits := uint64(buf[10])<<56 | uint64(buf[11])<<48 | uint64(buf[12])<<40 |
		uint64(buf[13])<<32 | uint64(buf[14])<<24 | uint64(buf[15])<<16 |
		uint64(buf[16])<<8 | uint64(buf[17])

	si.SampleRate = uint32(bits >> 44)
	if si.SampleRate == 0 || si.SampleRate > 655350 {
		return nil, errutil.Newf("meta.decodeStreamInfo: invalid sample rate; expected > 0 and <= 655350, got %d", si.SampleRate)
	}
	si.NChannels = uint8(bits>>41&0x7) + 1
	si.BitsPerSample = uint8(bits>>36&0x1F) + 1
	if si.BitsPerSample < 4 {
		return nil, errutil.Newf("meta.decodeStreamInfo: invalid bits-per-sample; expected >= 4, got %d", si.BitsPerSample)
	}
	si.NSamples = bits & 0xFFFFFFFFF

	if _, err := io.ReadFull(r, si.MD5sum[:]); err != nil {
		return nil, err
	}
	return si, nil
}

// Encode writes the big-endian stream-info body of si to w.
func (si *StreamInfo) Encode(w io.Writer) error {
	var buf [18]byte
	binary.BigEndian.PutUint16(buf[0:2], si.BlockSizeMin)
	binary.BigEndian.PutUint16(buf[2:4], si.BlockSizeMax)
	buf[4], buf[5], buf[6] = byte(si.FrameSizeMin>>16), byte(si.FrameSizeMin>>8), byte(si.FrameSizeMin)
	buf[7], buf[8], buf[9] = byte(si.FrameSizeMax>>16), byte(si.FrameSizeMax>>8), byte(si.FrameSizeMax)

	bits := uint64(si.SampleRate)<<44 |
		uint64(si.NChannels-1)<<41 |
		uint64(si.BitsPerSample-1)<<36 |
		si.NSamples&0xFFFFFFFFF
	binary.BigEndian.PutUint64(buf[10:18], bits)

	if _, err := w.Write(buf[:]); err != nil {
		return errutil.Err(err)
	}
	_, err := w.Write(si.MD5sum[:])
	return errutil.Err(err)
}
