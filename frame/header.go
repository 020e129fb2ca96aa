package frame

import (
	"encoding/binary"
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/goflac/internal/bits"
	"github.com/mewkiz/goflac/internal/hashutil/crc8"
	"github.com/mewkiz/pkg/errutil"
)

// SyncCode is the 14-bit frame sync code, bit representation 11111111111110.
const SyncCode = 0x3FFE

// A Header is a frame header, containing information about how the frame's
// subframes were encoded, followed by an 8-bit CRC of the header itself.
type Header struct {
	// HasFixedBlockSize is true if the stream uses a fixed number of samples
	// per block (in which case Num is a frame number), and false if it uses a
	// variable number of samples per block (in which case Num is the first
	// sample number of the frame).
	HasFixedBlockSize bool
	// BlockSize is the number of inter-channel samples in each subframe of
	// the frame.
	BlockSize uint16
	// SampleRate in Hz; 0 means the rate must be read from the stream's
	// StreamInfo metadata block.
	SampleRate uint32
	// Channels specifies the number and order of channels stored in the
	// frame's subframes, and any inter-channel decorrelation in use.
	Channels Channels
	// BitsPerSample; 0 means the value must be read from the stream's
	// StreamInfo metadata block.
	BitsPerSample uint8
	// Num is the frame number (fixed block size) or the first sample number
	// of the frame (variable block size).
	Num uint64
}

// Decode parses and returns a new frame header, reading from r.
func Decode(r io.Reader) (*Header, error) {
	h := crc8.NewATM()
	br := bits.NewReader(bits.TeeReader(r, h))

	syncCode, err := br.Read(14)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if syncCode != SyncCode {
		return nil, errutil.Newf("frame.Decode: invalid sync code; expected 0x%04X, got 0x%04X", SyncCode, syncCode)
	}
	if _, err := br.ReadBit(); err != nil {
		return nil, errutil.Err(err)
	}

	hasVariableBlockSizeBit, err := br.ReadBit()
	if err != nil {
		return nil, errutil.Err(err)
	}
	hasVariableBlockSize := hasVariableBlockSizeBit != 0

	blockSizeSpec, err := br.Read(4)
	if err != nil {
		return nil, errutil.Err(err)
	}
	sampleRateSpec, err := br.Read(4)
	if err != nil {
		return nil, errutil.Err(err)
	}
	channelSpec, err := br.Read(4)
	if err != nil {
		return nil, errutil.Err(err)
	}
	bpsSpec, err := br.Read(3)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if _, err := br.ReadBit(); err != nil {
		return nil, errutil.Err(err)
	}

	hdr := &Header{HasFixedBlockSize: !hasVariableBlockSize}

	// Channel assignment.
	switch {
	case channelSpec <= 10:
		hdr.Channels = Channels(channelSpec)
	default:
		return nil, errutil.Newf("frame.Decode: reserved channel assignment bit pattern: %04b", channelSpec)
	}

	// Bits-per-sample.
	switch bpsSpec {
	case 0:
		hdr.BitsPerSample = 0
	case 1:
		hdr.BitsPerSample = 8
	case 2:
		hdr.BitsPerSample = 12
	case 3, 7:
		return nil, errutil.Newf("frame.Decode: reserved sample size bit pattern: %03b", bpsSpec)
	case 4:
		hdr.BitsPerSample = 16
	case 5:
		hdr.BitsPerSample = 20
	case 6:
		hdr.BitsPerSample = 24
	}

	// "UTF-8" coded frame or sample number.
	num, err := bits.DecodeUTF8(br)
	if err != nil {
		return nil, errutil.Err(err)
	}
	hdr.Num = num

	// Block size.
	switch {
	case blockSizeSpec == 0:
		return nil, errutil.New("frame.Decode: reserved block size bit pattern")
	case blockSizeSpec == 1:
		hdr.BlockSize = 192
	case blockSizeSpec >= 2 && blockSizeSpec <= 5:
		hdr.BlockSize = 576 << (blockSizeSpec - 2)
	case blockSizeSpec == 6:
		x, err := br.Read(8)
		if err != nil {
			return nil, errutil.Err(err)
		}
		hdr.BlockSize = uint16(x) + 1
	case blockSizeSpec == 7:
		x, err := br.Read(16)
		if err != nil {
			return nil, errutil.Err(err)
		}
		hdr.BlockSize = uint16(x) + 1
	default:
		// 1000-1111.
		hdr.BlockSize = 256 << (blockSizeSpec - 8)
	}

	// Sample rate.
	switch sampleRateSpec {
	case 0:
		hdr.SampleRate = 0
	case 1:
		hdr.SampleRate = 88200
	case 2:
		hdr.SampleRate = 176400
	case 3:
		hdr.SampleRate = 192000
	case 4:
		hdr.SampleRate = 8000
	case 5:
		hdr.SampleRate = 16000
	case 6:
		hdr.SampleRate = 22050
	case 7:
		hdr.SampleRate = 24000
	case 8:
		hdr.SampleRate = 32000
	case 9:
		hdr.SampleRate = 44100
	case 10:
		hdr.SampleRate = 48000
	case 11:
		hdr.SampleRate = 96000
	case 12:
		x, err := br.Read(8)
		if err != nil {
			return nil, errutil.Err(err)
		}
		hdr.SampleRate = uint32(x) * 1000
	case 13:
		x, err := br.Read(16)
		if err != nil {
			return nil, errutil.Err(err)
		}
		hdr.SampleRate = uint32(x)
	case 14:
		x, err := br.Read(16)
		if err != nil {
			return nil, errutil.Err(err)
		}
		hdr.SampleRate = uint32(x) * 10
	case 15:
		return nil, errutil.New("frame.Decode: invalid sample rate bit pattern 1111")
	}

	// Verify CRC-8 of the header, from the sync code up to but excluding
	// this checksum byte.
	want, err := readByte(r)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if got := h.Sum8(); got != want {
		return nil, errutil.Newf("frame.Decode: header checksum mismatch; expected 0x%02X, got 0x%02X", want, got)
	}

	return hdr, nil
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Encode writes the encoding of hdr to w, appending a CRC-8 checksum.
func (hdr *Header) Encode(w io.Writer) error {
	h := crc8.NewATM()
	hw := io.MultiWriter(h, w)
	bw := bitio.NewWriter(hw)

	if err := bw.WriteBits(SyncCode, 14); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(0x0, 1); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBool(!hdr.HasFixedBlockSize); err != nil {
		return errutil.Err(err)
	}

	var (
		blockSizeSpec   uint64
		blockSizeSuffix byte
	)
	switch hdr.BlockSize {
	case 192:
		blockSizeSpec = 0x1
	case 576:
		blockSizeSpec = 0x2
	case 1152:
		blockSizeSpec = 0x3
	case 2304:
		blockSizeSpec = 0x4
	case 4608:
		blockSizeSpec = 0x5
	case 256:
		blockSizeSpec = 0x8
	case 512:
		blockSizeSpec = 0x9
	case 1024:
		blockSizeSpec = 0xA
	case 2048:
		blockSizeSpec = 0xB
	case 4096:
		blockSizeSpec = 0xC
	case 8192:
		blockSizeSpec = 0xD
	case 16384:
		blockSizeSpec = 0xE
	case 32768:
		blockSizeSpec = 0xF
	default:
		if hdr.BlockSize <= 256 {
			blockSizeSpec = 0x6
			blockSizeSuffix = 8
		} else {
			blockSizeSpec = 0x7
			blockSizeSuffix = 16
		}
	}
	if err := bw.WriteBits(blockSizeSpec, 4); err != nil {
		return errutil.Err(err)
	}

	var (
		sampleRateSpec   uint64
		sampleRateSuffix uint64
		sampleRateBits   byte
	)
	switch hdr.SampleRate {
	case 0:
		sampleRateSpec = 0x0
	case 88200:
		sampleRateSpec = 0x1
	case 176400:
		sampleRateSpec = 0x2
	case 192000:
		sampleRateSpec = 0x3
	case 8000:
		sampleRateSpec = 0x4
	case 16000:
		sampleRateSpec = 0x5
	case 22050:
		sampleRateSpec = 0x6
	case 24000:
		sampleRateSpec = 0x7
	case 32000:
		sampleRateSpec = 0x8
	case 44100:
		sampleRateSpec = 0x9
	case 48000:
		sampleRateSpec = 0xA
	case 96000:
		sampleRateSpec = 0xB
	default:
		switch {
		case hdr.SampleRate <= 255000 && hdr.SampleRate%1000 == 0:
			sampleRateSpec = 0xC
			sampleRateSuffix = uint64(hdr.SampleRate / 1000)
			sampleRateBits = 8
		case hdr.SampleRate <= 65535:
			sampleRateSpec = 0xD
			sampleRateSuffix = uint64(hdr.SampleRate)
			sampleRateBits = 16
		case hdr.SampleRate <= 655350 && hdr.SampleRate%10 == 0:
			sampleRateSpec = 0xE
			sampleRateSuffix = uint64(hdr.SampleRate / 10)
			sampleRateBits = 16
		default:
			// No header code for this rate; read it from StreamInfo.
			sampleRateSpec = 0x0
		}
	}
	if err := bw.WriteBits(sampleRateSpec, 4); err != nil {
		return errutil.Err(err)
	}

	if err := bw.WriteBits(uint64(hdr.Channels), 4); err != nil {
		return errutil.Err(err)
	}

	var bpsSpec uint64
	switch hdr.BitsPerSample {
	case 0:
		bpsSpec = 0x0
	case 8:
		bpsSpec = 0x1
	case 12:
		bpsSpec = 0x2
	case 16:
		bpsSpec = 0x4
	case 20:
		bpsSpec = 0x5
	case 24:
		bpsSpec = 0x6
	default:
		// No header code for this width; read it from StreamInfo.
		bpsSpec = 0x0
	}
	if err := bw.WriteBits(bpsSpec, 3); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(0x0, 1); err != nil {
		return errutil.Err(err)
	}

	if err := bits.EncodeUTF8(bw, hdr.Num); err != nil {
		return errutil.Err(err)
	}

	if blockSizeSuffix > 0 {
		if err := bw.WriteBits(uint64(hdr.BlockSize-1), blockSizeSuffix); err != nil {
			return errutil.Err(err)
		}
	}
	if sampleRateBits > 0 {
		if err := bw.WriteBits(sampleRateSuffix, sampleRateBits); err != nil {
			return errutil.Err(err)
		}
	}

	if _, err := bw.Align(); err != nil {
		return errutil.Err(err)
	}

	crc := h.Sum8()
	return binary.Write(w, binary.BigEndian, crc)
}
