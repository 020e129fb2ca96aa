package frame

import (
	"github.com/icza/bitio"
	"github.com/mewkiz/goflac/internal/bits"
	"github.com/mewkiz/pkg/errutil"
)

// PredMethod specifies the prediction method used to encode a subframe's
// audio samples.
type PredMethod uint8

// Subframe prediction methods.
const (
	PredConstant PredMethod = iota
	PredFixed
	PredLPC
	PredVerbatim
)

// Subframe holds the decoded (or to-be-encoded) audio samples of a single
// channel of a frame, together with the parameters used to predict them.
type Subframe struct {
	// Pred is the prediction method used by the subframe.
	Pred PredMethod
	// Order is the predictor order: fixed predictor order (0-4) or LPC order
	// (1-32). Unused for constant and verbatim subframes.
	Order int
	// Wasted is the number of wasted bits-per-sample shared by every sample
	// in the subframe (zero if none).
	Wasted uint8
	// NSamples is the number of samples in the subframe, equal to the
	// frame's block size.
	NSamples int
	// Samples holds the subframe's decoded audio samples (or, during
	// encoding, the samples to be encoded), at the subframe's native bit
	// depth (i.e. bps - Wasted).
	Samples []int32
	// ResidualCodingMethod is the coding method of the residual signal.
	// Unused for constant and verbatim subframes.
	ResidualCodingMethod ResidualCodingMethod
	// RiceSubframe holds the partitioned Rice coding parameters of the
	// residual. Unused for constant and verbatim subframes.
	RiceSubframe *RiceSubframe
	// QLPCCoeffs holds the quantized LPC coefficients. Only set for PredLPC
	// subframes.
	QLPCCoeffs []int32
	// QLPCShift is the quantized LPC coefficient shift. Only set for PredLPC
	// subframes.
	QLPCShift uint
	// QLPCPrecision is the bit width (including sign) of each quantized LPC
	// coefficient. Only set for PredLPC subframes.
	QLPCPrecision int
}

// decodeSubframe parses and returns a new subframe of the channel's
// bits-per-sample bps, which comes from the frame header (or StreamInfo),
// plus one for a side channel; any wasted bits signalled in the subframe
// header are subtracted here.
func decodeSubframe(br *bits.Reader, nsamples int, bps uint) (*Subframe, error) {
	pad, err := br.Read(1)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if pad != 0 {
		return nil, errutil.New("frame.decodeSubframe: invalid padding; must be 0")
	}

	typ, err := br.Read(6)
	if err != nil {
		return nil, errutil.Err(err)
	}

	sf := &Subframe{NSamples: nsamples}
	switch {
	case typ == 0:
		sf.Pred = PredConstant
	case typ == 1:
		sf.Pred = PredVerbatim
	case typ < 8:
		return nil, errutil.Newf("frame.decodeSubframe: reserved subframe type bit pattern: %06b", typ)
	case typ < 16:
		order := int(typ) & 0x07
		if order > 4 {
			return nil, errutil.Newf("frame.decodeSubframe: reserved fixed predictor order: %d", order)
		}
		sf.Pred = PredFixed
		sf.Order = order
	case typ < 32:
		return nil, errutil.Newf("frame.decodeSubframe: reserved subframe type bit pattern: %06b", typ)
	default:
		sf.Pred = PredLPC
		sf.Order = int(typ&0x1F) + 1
	}

	hasWasted, err := br.Read(1)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if hasWasted != 0 {
		k, err := br.ReadUnary()
		if err != nil {
			return nil, errutil.Err(err)
		}
		sf.Wasted = uint8(k) + 1
		bps -= uint(sf.Wasted)
	}

	switch sf.Pred {
	case PredConstant:
		x, err := br.Read(bps)
		if err != nil {
			return nil, errutil.Err(err)
		}
		sample := bits.SignExtend32(uint32(x), bps)
		sf.Samples = make([]int32, nsamples)
		for i := range sf.Samples {
			sf.Samples[i] = sample
		}
	case PredVerbatim:
		sf.Samples = make([]int32, nsamples)
		for i := range sf.Samples {
			x, err := br.Read(bps)
			if err != nil {
				return nil, errutil.Err(err)
			}
			sf.Samples[i] = bits.SignExtend32(uint32(x), bps)
		}
	case PredFixed:
		if err := decodeWarmAndResidual(br, sf, bps, sf.Order, FixedCoeffs[sf.Order], 0, false); err != nil {
			return nil, errutil.Err(err)
		}
	case PredLPC:
		qcoeffs, shift, precision, err := decodeQLPCHeader(br, sf.Order)
		if err != nil {
			return nil, errutil.Err(err)
		}
		sf.QLPCCoeffs, sf.QLPCShift, sf.QLPCPrecision = qcoeffs, shift, precision
		if err := decodeWarmAndResidual(br, sf, bps, sf.Order, qcoeffs, shift, true); err != nil {
			return nil, errutil.Err(err)
		}
	}

	if sf.Wasted > 0 {
		for i, s := range sf.Samples {
			sf.Samples[i] = s << sf.Wasted
		}
	}

	return sf, nil
}

// decodeQLPCHeader decodes the quantized LPC precision, shift and
// coefficients preceding an LPC subframe's warm-up samples.
func decodeQLPCHeader(br *bits.Reader, order int) (qcoeffs []int32, shift uint, precision int, err error) {
	x, err := br.Read(4)
	if err != nil {
		return nil, 0, 0, err
	}
	if x == 0xF {
		return nil, 0, 0, errutil.New("frame.decodeQLPCHeader: invalid quantized LPC precision; reserved bit pattern 1111")
	}
	precision = int(x) + 1

	x, err = br.Read(5)
	if err != nil {
		return nil, 0, 0, err
	}
	s := bits.SignExtend32(uint32(x), 5)
	if s < 0 {
		return nil, 0, 0, errutil.New("frame.decodeQLPCHeader: negative quantized LPC shift not supported")
	}
	shift = uint(s)

	qcoeffs = make([]int32, order)
	for i := range qcoeffs {
		x, err := br.Read(uint(precision))
		if err != nil {
			return nil, 0, 0, err
		}
		qcoeffs[i] = bits.SignExtend32(uint32(x), uint(precision))
	}
	return qcoeffs, shift, precision, nil
}

// decodeWarmAndResidual reads order warm-up samples followed by the residual
// signal, and reconstructs sf.Samples using the given predictor coefficients
// and shift (shift is 0 for fixed predictors).
func decodeWarmAndResidual(br *bits.Reader, sf *Subframe, bps uint, order int, coeffs []int32, shift uint, isLPC bool) error {
	warm := make([]int32, order)
	for i := range warm {
		x, err := br.Read(bps)
		if err != nil {
			return err
		}
		warm[i] = bits.SignExtend32(uint32(x), bps)
	}

	residuals, rs, method, err := decodeResidual(br, order, sf.NSamples)
	if err != nil {
		return err
	}
	sf.ResidualCodingMethod = method
	sf.RiceSubframe = rs

	if isLPC {
		sf.Samples = predictLPC(coeffs, shift, warm, residuals)
	} else {
		sf.Samples = predictFixed(order, warm, residuals)
	}
	return nil
}

// encodeSubframe encodes sf (a channel's samples at the subframe's native
// bit depth, already reduced for any wasted bits) to bw.
func encodeSubframe(bw *bitio.Writer, sf *Subframe, bps uint) error {
	if err := encodeSubframeHeader(bw, sf); err != nil {
		return errutil.Err(err)
	}

	nativeBps := bps - uint(sf.Wasted)
	switch sf.Pred {
	case PredConstant:
		return bw.WriteBits(bits.UintN(int64(sf.Samples[0]), nativeBps), uint8(nativeBps))
	case PredVerbatim:
		for _, s := range sf.Samples {
			if err := bw.WriteBits(bits.UintN(int64(s), nativeBps), uint8(nativeBps)); err != nil {
				return errutil.Err(err)
			}
		}
		return nil
	case PredFixed:
		return encodeWarmAndResidual(bw, sf, nativeBps, nil, 0)
	case PredLPC:
		return encodeLPCSubframeBody(bw, sf, nativeBps)
	}
	return errutil.Newf("frame.encodeSubframe: unsupported prediction method %v", sf.Pred)
}

// encodeLPCSubframeBody writes the quantized LPC coefficient header followed
// by the warm-up samples and residual of an LPC subframe, using the
// precision/shift/coefficients already computed onto sf by the encoder.
func encodeLPCSubframeBody(bw *bitio.Writer, sf *Subframe, nativeBps uint) error {
	if err := bw.WriteBits(uint64(sf.QLPCPrecision-1), 4); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(sf.QLPCShift), 5); err != nil {
		return errutil.Err(err)
	}
	for _, c := range sf.QLPCCoeffs {
		if err := bw.WriteBits(bits.UintN(int64(c), uint(sf.QLPCPrecision)), uint8(sf.QLPCPrecision)); err != nil {
			return errutil.Err(err)
		}
	}

	return encodeWarmAndResidual(bw, sf, nativeBps, sf.QLPCCoeffs, sf.QLPCShift)
}

// encodeSubframeHeader writes the 1-bit padding, 6-bit subframe type and
// wasted-bits flag of sf.
func encodeSubframeHeader(bw *bitio.Writer, sf *Subframe) error {
	if err := bw.WriteBits(0x0, 1); err != nil {
		return errutil.Err(err)
	}

	var typ uint64
	switch sf.Pred {
	case PredConstant:
		typ = 0x00
	case PredVerbatim:
		typ = 0x01
	case PredFixed:
		typ = 0x08 | uint64(sf.Order)
	case PredLPC:
		typ = 0x20 | uint64(sf.Order-1)
	}
	if err := bw.WriteBits(typ, 6); err != nil {
		return errutil.Err(err)
	}

	hasWasted := sf.Wasted > 0
	if err := bw.WriteBool(hasWasted); err != nil {
		return errutil.Err(err)
	}
	if hasWasted {
		if err := bits.WriteUnary(bw, uint64(sf.Wasted-1)); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

// encodeWarmAndResidual writes order warm-up samples (at nativeBps) followed
// by the residual signal already computed for sf.
func encodeWarmAndResidual(bw *bitio.Writer, sf *Subframe, nativeBps uint, qcoeffs []int32, shift uint) error {
	for i := 0; i < sf.Order; i++ {
		if err := bw.WriteBits(bits.UintN(int64(sf.Samples[i]), nativeBps), uint8(nativeBps)); err != nil {
			return errutil.Err(err)
		}
	}

	var residuals []int32
	if qcoeffs != nil {
		residuals = lpcResiduals(sf.Samples, qcoeffs, shift)
	} else {
		residuals = fixedResiduals(sf.Samples, sf.Order)
	}

	if sf.RiceSubframe == nil {
		sf.ResidualCodingMethod, sf.RiceSubframe = buildRiceSubframe(residuals, sf.Order)
	}
	return encodeResidual(bw, sf.ResidualCodingMethod, sf.RiceSubframe, sf.Order, residuals)
}
