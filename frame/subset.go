package frame

// IsSubset reports whether hdr and the LPC order used by its subframes (if
// any) comply with the FLAC "Subset" stream constraints: the tighter
// restrictions a decoder can assume a well-behaved streaming or
// internet-radio encoder to respect, within what the general bitstream
// format otherwise allows. A Subset-compliant stream additionally
// guarantees seekable/streamable block sizes and predictor orders.
//
// Field widths referenced here (frame header block-size/sample-rate/LPC
// order fields) come from libFLAC's format.c constants; the Subset limits
// themselves are the conventional ones a FLAC decoder checks when asked
// to validate streamability, independent of any single subframe's coding
// choice.
func IsSubset(hdr *Header, lpcOrder int) bool {
	if hdr.SampleRate != 0 {
		switch {
		case hdr.SampleRate <= 48000:
			if hdr.BlockSize > 4608 {
				return false
			}
			if lpcOrder > 12 {
				return false
			}
		default:
			if hdr.BlockSize > 16384 {
				return false
			}
		}
	} else if hdr.BlockSize > 16384 {
		return false
	}
	if lpcOrder > maxLPCOrder {
		return false
	}
	if !subsetSampleRate(hdr.SampleRate) {
		return false
	}
	if !subsetBitsPerSample(hdr.BitsPerSample) {
		return false
	}
	return true
}

// subsetSampleRate reports whether rate is one a Subset-compliant encoder
// may use: either deferred to StreamInfo (0), one of the header's eleven
// predefined rates, or an explicit rate that fits the header's 16-bit Hz
// or decahertz suffix fields.
func subsetSampleRate(rate uint32) bool {
	switch rate {
	case 0, 88200, 176400, 192000, 8000, 16000, 22050, 24000, 32000, 44100, 48000, 96000:
		return true
	}
	return rate <= 65535 || (rate <= 655350 && rate%10 == 0)
}

// subsetBitsPerSample reports whether bps is one of the header's five
// directly-encodable sample widths, or deferred to StreamInfo (0).
func subsetBitsPerSample(bps uint8) bool {
	switch bps {
	case 0, 8, 12, 16, 20, 24:
		return true
	}
	return false
}
