package frame

import "math/bits"

// EncodeOptions controls the subframe analysis NewSubframe performs when
// choosing a prediction method.
type EncodeOptions struct {
	// MaxLPCOrder is the highest LPC order to consider; 0 disables LPC
	// analysis entirely (fixed predictors only).
	MaxLPCOrder int
	// QLPCPrecision is the quantized LPC coefficient precision, in bits
	// including sign; 0 selects a default of 14.
	QLPCPrecision int
	// Windows lists the apodization windows to try; the cheapest result
	// across all of them is kept. A nil slice selects WindowWelch alone,
	// matching the unapodized default order/precision search.
	Windows []Window
}

// NewSubframe analyzes samples (a single channel's audio, at the channel's
// native bits-per-sample bps) and returns a Subframe that encodes them as
// cheaply as possible. A block whose samples are all equal becomes a
// constant subframe with no wasted bits. Otherwise any wasted
// bits-per-sample shared by every sample are factored out first, and fixed,
// LPC or verbatim coding is chosen, whichever yields the fewest estimated
// bits.
func NewSubframe(samples []int32, bps uint, opts EncodeOptions) *Subframe {
	if isConstant(samples) {
		return &Subframe{
			Pred:     PredConstant,
			NSamples: len(samples),
			Samples:  samples,
		}
	}

	wasted := wastedBits(samples)
	native := bps
	work := samples
	if wasted > 0 {
		work = make([]int32, len(samples))
		for i, s := range samples {
			work[i] = s >> wasted
		}
		native -= uint(wasted)
	}

	fixedOrder, fixedRes, fixedK := bestFixedOrder(work, native)
	fixedBits := fixedOrder*int(native) + 6 + riceCost(fixedRes, fixedK)

	bestPred := PredFixed
	bestOrder := fixedOrder
	var qcoeffs []int32
	var shift uint
	bestBits := fixedBits

	precision := opts.QLPCPrecision
	if precision == 0 {
		precision = 14
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = []Window{WindowWelch}
	}
	if opts.MaxLPCOrder > 0 {
		for _, win := range windows {
			lpcOrder, lqcoeffs, lshift, lres := bestLPCOrderWindow(work, native, opts.MaxLPCOrder, precision, win)
			if lpcOrder == 0 {
				continue
			}
			lk := bestRiceParam(lres)
			lpcBits := lpcOrder*int(native) + lpcOrder*precision + 4 + 5 + riceCost(lres, lk)
			if lpcBits < bestBits {
				bestPred = PredLPC
				bestOrder = lpcOrder
				qcoeffs = lqcoeffs
				shift = lshift
				bestBits = lpcBits
			}
		}
	}

	verbatimBits := len(work) * int(native)
	if verbatimBits < bestBits {
		return &Subframe{
			Pred:     PredVerbatim,
			Wasted:   wasted,
			NSamples: len(work),
			Samples:  work,
		}
	}

	sf := &Subframe{
		Pred:     bestPred,
		Order:    bestOrder,
		Wasted:   wasted,
		NSamples: len(work),
		Samples:  work,
	}
	if bestPred == PredLPC {
		sf.QLPCCoeffs = qcoeffs
		sf.QLPCShift = shift
		sf.QLPCPrecision = precision
	}
	return sf
}

// wastedBits returns the number of trailing zero bits shared by every
// sample in samples, which may be factored out before prediction and
// restored by the decoder.
func wastedBits(samples []int32) uint8 {
	if len(samples) == 0 {
		return 0
	}
	var acc uint32
	for _, s := range samples {
		acc |= uint32(s)
	}
	if acc == 0 {
		return 0
	}
	n := bits.TrailingZeros32(acc)
	if n > 255 {
		n = 255
	}
	return uint8(n)
}

func isConstant(samples []int32) bool {
	for _, s := range samples[1:] {
		if s != samples[0] {
			return false
		}
	}
	return true
}

// EstimateBits returns the approximate number of bits sf will occupy when
// encoded at bps, recomputing its residual from scratch. Used to compare
// candidate channel decorrelations before committing to one, not on the
// steady-state encode path (encodeSubframe computes the residual again when
// it writes the chosen subframe, and keeps only its Rice parameters).
func EstimateBits(sf *Subframe, bps uint) int {
	native := bps - uint(sf.Wasted)
	switch sf.Pred {
	case PredConstant:
		return int(native)
	case PredVerbatim:
		return sf.NSamples * int(native)
	case PredFixed:
		res := fixedResiduals(sf.Samples, sf.Order)
		k := bestRiceParam(res)
		return sf.Order*int(native) + 6 + riceCost(res, k)
	case PredLPC:
		res := lpcResiduals(sf.Samples, sf.QLPCCoeffs, sf.QLPCShift)
		k := bestRiceParam(res)
		return sf.Order*int(native) + sf.Order*sf.QLPCPrecision + 4 + 5 + riceCost(res, k)
	}
	return 0
}
