package bits

import (
	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// The frame header encodes its sample/frame number using the same byte
// shape as a UTF-8 code point, but extended to cover up to 36 bits of
// payload (a lead byte and up to 6 continuation bytes, 7 bytes in all)
// instead of UTF-8's 6 bytes.
const (
	contMask    = 0x3F // 0011 1111, payload bits of a continuation byte
	contTag     = 0x80 // 1000 0000, tag bits of a continuation byte
	maxRune1 = 1<<7 - 1
	maxRune2 = 1<<11 - 1
	maxRune3 = 1<<16 - 1
	maxRune4 = 1<<21 - 1
	maxRune5 = 1<<26 - 1
	maxRune6 = 1<<31 - 1
	maxRune7 = 1<<36 - 1
)

// leadTags and leadMasks index by the number of continuation bytes that
// follow the lead byte (0..6).
var (
	leadTags  = [7]byte{0x00, 0xC0, 0xE0, 0xF0, 0xF8, 0xFC, 0xFE}
	leadMasks = [7]byte{0x7F, 0x1F, 0x0F, 0x07, 0x03, 0x01, 0x00}
)

// minValues holds, indexed by number of continuation bytes, the smallest
// value that encoding actually requires that many continuation bytes;
// anything smaller decoded with that lead byte shape is an over-long
// encoding.
var minValues = [7]uint64{0, maxRune1 + 1, maxRune2 + 1, maxRune3 + 1, maxRune4 + 1, maxRune5 + 1, maxRune6 + 1}

// EncodeUTF8 encodes x using the UTF-8-style variable-length scheme used for
// frame and sample numbers (§6). x must fit in 36 bits.
func EncodeUTF8(bw *bitio.Writer, x uint64) error {
	if x <= maxRune1 {
		return writeBits(bw, x, 8)
	}
	var ncont int
	switch {
	case x <= maxRune2:
		ncont = 1
	case x <= maxRune3:
		ncont = 2
	case x <= maxRune4:
		ncont = 3
	case x <= maxRune5:
		ncont = 4
	case x <= maxRune6:
		ncont = 5
	case x <= maxRune7:
		ncont = 6
	default:
		return errutil.Newf("bits.EncodeUTF8: value out of range: %d", x)
	}
	lead := uint64(leadTags[ncont]) | (x>>(uint(ncont)*6))&uint64(leadMasks[ncont])
	if err := writeBits(bw, lead, 8); err != nil {
		return err
	}
	for i := ncont - 1; i >= 0; i-- {
		cont := uint64(contTag) | (x>>(uint(i)*6))&contMask
		if err := writeBits(bw, cont, 8); err != nil {
			return err
		}
	}
	return nil
}

func writeBits(bw *bitio.Writer, x uint64, n byte) error {
	if err := bw.WriteBits(x, n); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// DecodeUTF8 decodes a UTF-8-style variable-length integer from br. Over-long
// encodings and truncated continuation sequences are rejected.
func DecodeUTF8(br *Reader) (uint64, error) {
	lead, err := br.Read(8)
	if err != nil {
		return 0, err
	}
	var ncont int
	switch {
	case lead&0x80 == 0x00:
		ncont = 0
	case lead&0xE0 == 0xC0:
		ncont = 1
	case lead&0xF0 == 0xE0:
		ncont = 2
	case lead&0xF8 == 0xF0:
		ncont = 3
	case lead&0xFC == 0xF8:
		ncont = 4
	case lead&0xFE == 0xFC:
		ncont = 5
	case lead == 0xFE:
		ncont = 6
	default:
		return 0, errutil.Newf("bits.DecodeUTF8: invalid lead byte: 0x%02X", lead)
	}
	x := lead & uint64(leadMasks[ncont])
	for i := 0; i < ncont; i++ {
		cont, err := br.Read(8)
		if err != nil {
			return 0, err
		}
		if cont&0xC0 != 0x80 {
			return 0, errutil.Newf("bits.DecodeUTF8: invalid continuation byte: 0x%02X", cont)
		}
		x = x<<6 | (cont & contMask)
	}
	if x < minValues[ncont] {
		return 0, errutil.Newf("bits.DecodeUTF8: over-long encoding of value %d", x)
	}
	return x, nil
}
