package flac

import (
	"encoding/binary"
	"hash"
)

// writeSamplesHash feeds the little-endian, packed PCM representation of
// samples (one slice per channel, native sample width bps) into h, matching
// the byte layout StreamInfo.MD5sum is computed over: interleaved samples,
// each sample truncated to ceil(bps/8) bytes, little-endian, sign included.
func writeSamplesHash(h hash.Hash, samples [][]int32, bps uint8) {
	nchannels := len(samples)
	if nchannels == 0 {
		return
	}
	nsamples := len(samples[0])
	nbytes := int((bps + 7) / 8)
	buf := make([]byte, nbytes)
	for i := 0; i < nsamples; i++ {
		for ch := 0; ch < nchannels; ch++ {
			putLittleEndian(buf, samples[ch][i])
			h.Write(buf)
		}
	}
}

// putLittleEndian packs the low nbytes=len(buf) bytes of sample into buf,
// least-significant byte first.
func putLittleEndian(buf []byte, sample int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(sample))
	copy(buf, tmp[:len(buf)])
}
