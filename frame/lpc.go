package frame

import "math"

// maxLPCOrder is the highest linear prediction order supported by the
// bitstream (5-bit order-1 field).
const maxLPCOrder = 32

// maxQLPCPrecision is the highest quantized LPC coefficient precision (in
// bits) supported by the bitstream (4-bit precision-1 field).
const maxQLPCPrecision = 15

// autocorrelate computes the autocorrelation of samples under the default
// Welch apodization window, for lags 0 through maxOrder, used as input to
// the Levinson-Durbin recursion. Callers that want a different window (see
// the Window family in window.go) use autocorrelateWindowed directly.
func autocorrelate(samples []int32, maxOrder int) []float64 {
	return autocorrelateWindowed(WindowWelch.apply(samples), maxOrder)
}

// levinsonDurbin runs the Levinson-Durbin recursion on the autocorrelation
// sequence autoc, returning the LPC coefficients for every order from 1 to
// maxOrder (lpcPerOrder[k] holds the k+1 coefficients of a predictor of
// order k+1) along with the prediction error (residual energy) at each
// order. bestLPCOrderWindow does not use the error values; it quantizes and
// costs every order instead.
func levinsonDurbin(autoc []float64, maxOrder int) (lpcPerOrder [][]float64, errPerOrder []float64) {
	lpcPerOrder = make([][]float64, maxOrder)
	errPerOrder = make([]float64, maxOrder)

	err := autoc[0]
	lpc := make([]float64, maxOrder)
	for i := 0; i < maxOrder; i++ {
		var acc float64
		for j := 0; j < i; j++ {
			acc += lpc[j] * autoc[i-j]
		}
		var k float64
		if err != 0 {
			k = (autoc[i+1] - acc) / err
		}

		next := make([]float64, i+1)
		copy(next, lpc[:i])
		next[i] = k
		for j := 0; j < i; j++ {
			next[j] = lpc[j] - k*lpc[i-1-j]
		}
		copy(lpc, next)

		err *= 1 - k*k

		lpcPerOrder[i] = append([]float64(nil), next...)
		errPerOrder[i] = err
	}
	return lpcPerOrder, errPerOrder
}

// quantizeLPC quantizes floating-point LPC coefficients to fixed-point
// integers with the given precision (in bits, including sign), returning the
// quantized coefficients and the shift to apply after the prediction dot
// product.
func quantizeLPC(coeffs []float64, precision int) (qcoeffs []int32, shift int) {
	cmax := 0.0
	for _, c := range coeffs {
		if a := math.Abs(c); a > cmax {
			cmax = a
		}
	}
	if cmax <= 0 {
		return make([]int32, len(coeffs)), 0
	}

	// Choose the largest shift such that the largest-magnitude coefficient
	// still fits in a signed precision-bit integer.
	_, exp := math.Frexp(cmax)
	shift = precision - 1 - exp
	const maxShift = 15 // largest non-negative value of the 5-bit signed shift field
	if shift > maxShift {
		shift = maxShift
	}
	if shift < 0 {
		shift = 0
	}

	qmax := int32(1<<(precision-1) - 1)
	qmin := -qmax - 1

	qcoeffs = make([]int32, len(coeffs))
	var errCarry float64
	for i, c := range coeffs {
		v := c*float64(int64(1)<<uint(shift)) + errCarry
		q := int32(math.Round(v))
		if q > qmax {
			q = qmax
		} else if q < qmin {
			q = qmin
		}
		errCarry = v - float64(q)
		qcoeffs[i] = q
	}
	return qcoeffs, shift
}

// predictLPC reconstructs samples from warm-up samples, quantized
// coefficients, a quantization shift and the residual signal.
func predictLPC(coeffs []int32, shift uint, warm []int32, residuals []int32) []int32 {
	samples := make([]int32, len(warm)+len(residuals))
	copy(samples, warm)
	for i := len(warm); i < len(samples); i++ {
		var sum int64
		for j, c := range coeffs {
			sum += int64(c) * int64(samples[i-j-1])
		}
		samples[i] = residuals[i-len(warm)] + int32(sum>>shift)
	}
	return samples
}

// lpcResiduals computes the prediction residuals of samples using the given
// quantized LPC coefficients and shift.
func lpcResiduals(samples []int32, coeffs []int32, shift uint) []int32 {
	order := len(coeffs)
	res := make([]int32, 0, len(samples)-order)
	for i := order; i < len(samples); i++ {
		var sum int64
		for j, c := range coeffs {
			sum += int64(c) * int64(samples[i-j-1])
		}
		res = append(res, samples[i]-int32(sum>>shift))
	}
	return res
}

// bestLPCOrder analyzes samples and returns the LPC order that minimizes the
// estimated total bits (every order up to maxOrder is quantized and its
// residual costed), its quantized coefficients, shift and residuals.
// maxOrder is clamped to the number of available samples and to
// maxLPCOrder.
func bestLPCOrder(samples []int32, bps uint, maxOrder int, precision int) (order int, qcoeffs []int32, shift uint, residuals []int32) {
	return bestLPCOrderWindow(samples, bps, maxOrder, precision, WindowWelch)
}
