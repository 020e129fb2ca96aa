package meta

import (
	"encoding/binary"
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// PlaceholderPoint is the sample number used by a placeholder seek point: a
// reserved slot carrying no useful offset, always sorted last.
const PlaceholderPoint = 0xFFFFFFFFFFFFFFFF

// SeekPoint locates the frame containing a given sample.
type SeekPoint struct {
	// SampleNum is the sample number of the first sample in the target
	// frame, or PlaceholderPoint.
	SampleNum uint64
	// Offset is the byte offset of the target frame's header, relative to
	// the first byte of the first frame.
	Offset uint64
	// NSamples is the number of samples in the target frame.
	NSamples uint16
}

// seekPointLen is the encoded length, in bytes, of a single seek point.
const seekPointLen = 8 + 8 + 2

// SeekTable is an optional block listing seek points for fast, approximate
// seeking; there is at most one per stream.
type SeekTable struct {
	Points []SeekPoint
}

func decodeSeekTable(r io.Reader, length int64) (*SeekTable, error) {
	if length%seekPointLen != 0 {
		return nil, errutil.Newf("meta.decodeSeekTable: length %d not divisible by seek point size %d", length, seekPointLen)
	}
	st := &SeekTable{}
	n := int(length / seekPointLen)
	var prev uint64
	var hasPrev bool
	for i := 0; i < n; i++ {
		var buf [seekPointLen]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		p := SeekPoint{
			SampleNum: binary.BigEndian.Uint64(buf[0:8]),
			Offset:    binary.BigEndian.Uint64(buf[8:16]),
			NSamples:  binary.BigEndian.Uint16(buf[16:18]),
		}
		if hasPrev && p.SampleNum != PlaceholderPoint && prev >= p.SampleNum {
			return nil, errutil.Newf("meta.decodeSeekTable: seek point sample number %d not strictly increasing after %d", p.SampleNum, prev)
		}
		if p.SampleNum != PlaceholderPoint {
			prev, hasPrev = p.SampleNum, true
		}
		st.Points = append(st.Points, p)
	}
	return st, nil
}

// Encode writes the seek points of st to w.
func (st *SeekTable) Encode(w io.Writer) error {
	for _, p := range st.Points {
		var buf [seekPointLen]byte
		binary.BigEndian.PutUint64(buf[0:8], p.SampleNum)
		binary.BigEndian.PutUint64(buf[8:16], p.Offset)
		binary.BigEndian.PutUint16(buf[16:18], p.NSamples)
		if _, err := w.Write(buf[:]); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

// Sort moves placeholder points to the end of the table and stable-sorts the
// remaining points by sample number, restoring the invariant required of a
// seek-table the encoder is about to emit.
func (st *SeekTable) Sort() {
	real := make([]SeekPoint, 0, len(st.Points))
	placeholders := 0
	for _, p := range st.Points {
		if p.SampleNum == PlaceholderPoint {
			placeholders++
			continue
		}
		real = append(real, p)
	}
	for i := 1; i < len(real); i++ {
		for j := i; j > 0 && real[j-1].SampleNum > real[j].SampleNum; j-- {
			real[j-1], real[j] = real[j], real[j-1]
		}
	}
	for i := 0; i < placeholders; i++ {
		real = append(real, SeekPoint{SampleNum: PlaceholderPoint})
	}
	st.Points = real
}
