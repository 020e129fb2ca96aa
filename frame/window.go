package frame

import "math"

// Window names an apodization function applied to a block of samples before
// autocorrelation, trading off main-lobe width against side-lobe leakage in
// the resulting LPC coefficient estimate. An encoder may try several and
// keep whichever yields the cheapest frame.
type Window uint8

// Apodization windows.
const (
	WindowRectangle Window = iota
	WindowHann
	WindowTukey
	WindowWelch
	WindowGauss
)

func (w Window) String() string {
	switch w {
	case WindowRectangle:
		return "rectangle"
	case WindowHann:
		return "hann"
	case WindowTukey:
		return "tukey"
	case WindowWelch:
		return "welch"
	case WindowGauss:
		return "gauss"
	default:
		return "unknown"
	}
}

// apply multiplies samples by w's coefficients, returning the windowed
// signal as float64 for autocorrelation.
func (w Window) apply(samples []int32) []float64 {
	n := len(samples)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	switch w {
	case WindowHann:
		for i, s := range samples {
			c := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
			out[i] = float64(s) * c
		}
	case WindowTukey:
		const alpha = 0.5
		taper := int(alpha * float64(n-1) / 2)
		for i, s := range samples {
			var c float64 = 1
			switch {
			case taper > 0 && i < taper:
				c = 0.5 * (1 + math.Cos(math.Pi*(float64(i)/float64(taper)-1)))
			case taper > 0 && i >= n-taper:
				c = 0.5 * (1 + math.Cos(math.Pi*(float64(i-(n-1-taper))/float64(taper))))
			}
			out[i] = float64(s) * c
		}
	case WindowWelch:
		mid := float64(n-1) / 2
		for i, s := range samples {
			var c float64 = 1
			if mid != 0 {
				t := (float64(i) - mid) / mid
				c = 1 - t*t
			}
			out[i] = float64(s) * c
		}
	case WindowGauss:
		const stddev = 0.5
		mid := float64(n-1) / 2
		for i, s := range samples {
			var c float64 = 1
			if mid != 0 {
				t := (float64(i) - mid) / (stddev * mid)
				c = math.Exp(-0.5 * t * t)
			}
			out[i] = float64(s) * c
		}
	default: // WindowRectangle
		for i, s := range samples {
			out[i] = float64(s)
		}
	}
	return out
}

// autocorrelateWindowed computes the autocorrelation of windowed (already
// apodized) samples for lags 0 through maxOrder.
func autocorrelateWindowed(windowed []float64, maxOrder int) []float64 {
	n := len(windowed)
	autoc := make([]float64, maxOrder+1)
	for lag := 0; lag <= maxOrder; lag++ {
		var sum float64
		for i := lag; i < n; i++ {
			sum += windowed[i] * windowed[i-lag]
		}
		autoc[lag] = sum
	}
	return autoc
}

// bestLPCOrderWindow is bestLPCOrder, apodized by window rather than the
// fixed Welch window.
func bestLPCOrderWindow(samples []int32, bps uint, maxOrder int, precision int, window Window) (order int, qcoeffs []int32, shift uint, residuals []int32) {
	if maxOrder > maxLPCOrder {
		maxOrder = maxLPCOrder
	}
	if maxOrder > len(samples)-1 {
		maxOrder = len(samples) - 1
	}
	if maxOrder < 1 {
		return 0, nil, 0, nil
	}

	autoc := autocorrelateWindowed(window.apply(samples), maxOrder)
	lpcPerOrder, _ := levinsonDurbin(autoc, maxOrder)

	bestBits := int(^uint(0) >> 1)
	bestOrder := 1
	for o := 1; o <= maxOrder; o++ {
		qc, sh := quantizeLPC(lpcPerOrder[o-1], precision)
		res := lpcResiduals(samples, qc, uint(sh))
		k := bestRiceParam(res)
		headerBits := o*int(bps) + o*precision + 4 + 5
		bits := headerBits + riceCost(res, k)
		if bits < bestBits {
			bestBits = bits
			bestOrder = o
			qcoeffs = qc
			shift = uint(sh)
			residuals = res
		}
	}
	return bestOrder, qcoeffs, shift, residuals
}
