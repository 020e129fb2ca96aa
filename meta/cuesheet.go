package meta

import (
	"bytes"
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// CueSheetTrackIndex is an index point within a CueSheetTrack.
type CueSheetTrackIndex struct {
	// Offset in samples, relative to the track's offset.
	Offset uint64
	// Num is the index point number.
	Num uint8
}

// CueSheetTrack describes one track of a CueSheet.
type CueSheetTrack struct {
	// Offset in samples, relative to the beginning of the stream.
	Offset uint64
	// Num is the track number: 1..99, or 170 for the CD-DA lead-out, 255 for
	// the non-CD-DA lead-out.
	Num uint8
	// ISRC is the 12-character track ISRC, or all-NUL if absent.
	ISRC string
	// IsAudio is false for a non-audio (data) track.
	IsAudio bool
	// HasPreEmphasis reports the CD-DA Q-channel pre-emphasis bit.
	HasPreEmphasis bool
	// Indicies holds the track's index points.
	Indicies []CueSheetTrackIndex
}

// CueSheet is a block describing a CD-DA-compatible cue sheet: a media
// catalog number, optional CD-DA lead-in, and an ordered list of tracks
// terminated by a mandatory lead-out track.
type CueSheet struct {
	// MCN is the media catalog number, ASCII, NUL-padded to 128 bytes on
	// the wire.
	MCN string
	// NLeadInSamples is the number of CD-DA lead-in samples; 0 for
	// non-CD-DA cue sheets.
	NLeadInSamples uint64
	// IsCompactDisc reports whether the cue sheet corresponds to a CD-DA
	// disc.
	IsCompactDisc bool
	// Tracks holds one or more tracks, the last of which is always the
	// lead-out.
	Tracks []CueSheetTrack
}

func nulTerminated(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i != -1 {
		buf = buf[:i]
	}
	return string(buf)
}

func decodeCueSheet(r io.Reader) (*CueSheet, error) {
	cs := &CueSheet{}

	var mcn [128]byte
	if _, err := io.ReadFull(r, mcn[:]); err != nil {
		return nil, err
	}
	cs.MCN = nulTerminated(mcn[:])

	var buf8 [8]byte
	if _, err := io.ReadFull(r, buf8[:]); err != nil {
		return nil, err
	}
	cs.NLeadInSamples = beUint64(buf8[:])

	flags, err := readByte(r)
	if err != nil {
		return nil, err
	}
	cs.IsCompactDisc = flags&0x80 != 0
	if flags&0x7F != 0 {
		return nil, errutil.New("meta.decodeCueSheet: reserved bits must be zero")
	}
	if !cs.IsCompactDisc && cs.NLeadInSamples != 0 {
		return nil, errutil.Newf("meta.decodeCueSheet: invalid lead-in for non-CD-DA cue sheet; expected 0, got %d", cs.NLeadInSamples)
	}

	var reserved [258]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		return nil, err
	}
	if !isAllZero(reserved[:]) {
		return nil, errutil.New("meta.decodeCueSheet: reserved bytes must be zero")
	}

	nTracks, err := readByte(r)
	if err != nil {
		return nil, err
	}
	if nTracks < 1 {
		return nil, errutil.New("meta.decodeCueSheet: at least one (lead-out) track is required")
	}
	if cs.IsCompactDisc && nTracks > 100 {
		return nil, errutil.Newf("meta.decodeCueSheet: too many tracks for CD-DA; expected <= 100, got %d", nTracks)
	}

	cs.Tracks = make([]CueSheetTrack, nTracks)
	for i := range cs.Tracks {
		track := &cs.Tracks[i]
		isLast := i == len(cs.Tracks)-1

		if _, err := io.ReadFull(r, buf8[:]); err != nil {
			return nil, err
		}
		track.Offset = beUint64(buf8[:])
		if cs.IsCompactDisc && track.Offset%588 != 0 {
			return nil, errutil.Newf("meta.decodeCueSheet: track offset %d not divisible by 588", track.Offset)
		}

		num, err := readByte(r)
		if err != nil {
			return nil, err
		}
		track.Num = num
		if track.Num == 0 {
			return nil, errutil.New("meta.decodeCueSheet: track number 0 is reserved for the lead-in")
		}
		if err := validateTrackNum(cs.IsCompactDisc, isLast, track.Num); err != nil {
			return nil, err
		}

		var isrc [12]byte
		if _, err := io.ReadFull(r, isrc[:]); err != nil {
			return nil, err
		}
		track.ISRC = nulTerminated(isrc[:])

		tflags, err := readByte(r)
		if err != nil {
			return nil, err
		}
		track.IsAudio = tflags&0x80 == 0
		track.HasPreEmphasis = tflags&0x40 != 0
		if tflags&0x3F != 0 {
			return nil, errutil.New("meta.decodeCueSheet: reserved track bits must be zero")
		}

		var treserved [13]byte
		if _, err := io.ReadFull(r, treserved[:]); err != nil {
			return nil, err
		}
		if !isAllZero(treserved[:]) {
			return nil, errutil.New("meta.decodeCueSheet: reserved track bytes must be zero")
		}

		nIdx, err := readByte(r)
		if err != nil {
			return nil, err
		}
		if isLast {
			if nIdx != 0 {
				return nil, errutil.Newf("meta.decodeCueSheet: lead-out track must have 0 index points, got %d", nIdx)
			}
		} else if nIdx < 1 {
			return nil, errutil.New("meta.decodeCueSheet: non-lead-out track requires at least one index point")
		}

		track.Indicies = make([]CueSheetTrackIndex, nIdx)
		for j := range track.Indicies {
			idx := &track.Indicies[j]
			if _, err := io.ReadFull(r, buf8[:]); err != nil {
				return nil, err
			}
			idx.Offset = beUint64(buf8[:])
			num, err := readByte(r)
			if err != nil {
				return nil, err
			}
			idx.Num = num
			var ireserved [3]byte
			if _, err := io.ReadFull(r, ireserved[:]); err != nil {
				return nil, err
			}
			if !isAllZero(ireserved[:]) {
				return nil, errutil.New("meta.decodeCueSheet: reserved index bytes must be zero")
			}
		}
	}
	return cs, nil
}

func validateTrackNum(isCD, isLast bool, num uint8) error {
	if isCD {
		if isLast {
			if num != 170 {
				return errutil.Newf("meta.decodeCueSheet: CD-DA lead-out track number must be 170, got %d", num)
			}
			return nil
		}
		if num > 99 {
			return errutil.Newf("meta.decodeCueSheet: CD-DA track number must be <= 99, got %d", num)
		}
		return nil
	}
	if isLast && num != 255 {
		return errutil.Newf("meta.decodeCueSheet: non-CD-DA lead-out track number must be 255, got %d", num)
	}
	return nil
}

// IsLegalCDDA reports whether cs satisfies the additional constraints a
// CD-DA cue sheet must meet (track offsets divisible by 588 samples, track
// numbering, lead-out placement); used on request, not enforced universally.
func (cs *CueSheet) IsLegalCDDA() bool {
	if !cs.IsCompactDisc {
		return false
	}
	if len(cs.Tracks) < 1 || len(cs.Tracks) > 100 {
		return false
	}
	for i, track := range cs.Tracks {
		isLast := i == len(cs.Tracks)-1
		if validateTrackNum(true, isLast, track.Num) != nil {
			return false
		}
		if track.Offset%588 != 0 {
			return false
		}
	}
	return true
}

func isAllZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

func beUint64(buf []byte) uint64 {
	var x uint64
	for _, b := range buf {
		x = x<<8 | uint64(b)
	}
	return x
}

func readByte(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Encode writes the body of cs to w.
func (cs *CueSheet) Encode(w io.Writer) error {
	var mcn [128]byte
	copy(mcn[:], cs.MCN)
	if _, err := w.Write(mcn[:]); err != nil {
		return errutil.Err(err)
	}

	if err := writeBEUint64(w, cs.NLeadInSamples); err != nil {
		return errutil.Err(err)
	}

	flags := byte(0)
	if cs.IsCompactDisc {
		flags |= 0x80
	}
	if err := writeByte(w, flags); err != nil {
		return errutil.Err(err)
	}
	if _, err := w.Write(make([]byte, 258)); err != nil {
		return errutil.Err(err)
	}

	if err := writeByte(w, uint8(len(cs.Tracks))); err != nil {
		return errutil.Err(err)
	}
	for _, track := range cs.Tracks {
		if err := writeBEUint64(w, track.Offset); err != nil {
			return errutil.Err(err)
		}
		if err := writeByte(w, track.Num); err != nil {
			return errutil.Err(err)
		}
		var isrc [12]byte
		copy(isrc[:], track.ISRC)
		if _, err := w.Write(isrc[:]); err != nil {
			return errutil.Err(err)
		}
		tflags := byte(0)
		if !track.IsAudio {
			tflags |= 0x80
		}
		if track.HasPreEmphasis {
			tflags |= 0x40
		}
		if err := writeByte(w, tflags); err != nil {
			return errutil.Err(err)
		}
		if _, err := w.Write(make([]byte, 13)); err != nil {
			return errutil.Err(err)
		}
		if err := writeByte(w, uint8(len(track.Indicies))); err != nil {
			return errutil.Err(err)
		}
		for _, idx := range track.Indicies {
			if err := writeBEUint64(w, idx.Offset); err != nil {
				return errutil.Err(err)
			}
			if err := writeByte(w, idx.Num); err != nil {
				return errutil.Err(err)
			}
			if _, err := w.Write(make([]byte, 3)); err != nil {
				return errutil.Err(err)
			}
		}
	}
	return nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeBEUint64(w io.Writer, x uint64) error {
	buf := [8]byte{byte(x >> 56), byte(x >> 48), byte(x >> 40), byte(x >> 32), byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
	_, err := w.Write(buf[:])
	return err
}

// len returns the encoded length, in bytes, of cs's body.
func (cs *CueSheet) len() int64 {
	n := int64(128 + 8 + 1 + 258 + 1)
	for _, track := range cs.Tracks {
		n += 8 + 1 + 12 + 1 + 13 + 1
		n += int64(len(track.Indicies)) * (8 + 1 + 3)
	}
	return n
}
