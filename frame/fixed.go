package frame

// FixedCoeffs maps from a fixed predictor order (0-4) to the LPC coefficients
// used to reconstruct the prediction.
//
//	x_0[n] = 0
//	x_1[n] = x[n-1]
//	x_2[n] = 2*x[n-1] - x[n-2]
//	x_3[n] = 3*x[n-1] - 3*x[n-2] + x[n-3]
//	x_4[n] = 4*x[n-1] - 6*x[n-2] + 4*x[n-3] - x[n-4]
//
// ref: Section 2.2 of http://www.hpl.hp.com/techreports/1999/HPL-1999-144.pdf
var FixedCoeffs = [...][]int32{
	0: {},
	1: {1},
	2: {2, -1},
	3: {3, -3, 1},
	4: {4, -6, 4, -1},
}

// predictFixed reconstructs samples from the warm-up samples and the
// residuals of a fixed predictor of the given order.
func predictFixed(order int, warm []int32, residuals []int32) []int32 {
	samples := make([]int32, len(warm)+len(residuals))
	copy(samples, warm)
	coeffs := FixedCoeffs[order]
	for i := len(warm); i < len(samples); i++ {
		var sum int64
		for j, c := range coeffs {
			sum += int64(c) * int64(samples[i-j-1])
		}
		samples[i] = residuals[i-len(warm)] + int32(sum)
	}
	return samples
}

// fixedResiduals computes the prediction residuals of samples using the
// fixed predictor of the given order (0-4).
func fixedResiduals(samples []int32, order int) []int32 {
	n := len(samples)
	res := make([]int32, 0, n-order)
	coeffs := FixedCoeffs[order]
	for i := order; i < n; i++ {
		var sum int64
		for j, c := range coeffs {
			sum += int64(c) * int64(samples[i-j-1])
		}
		res = append(res, samples[i]-int32(sum))
	}
	return res
}

// fixedOrderCost estimates the number of Rice-coded bits (single partition,
// parameter k) needed to store samples using the fixed predictor of the given
// order, returning the residuals, chosen Rice parameter and bit cost.
func fixedOrderCost(samples []int32, order int, bps uint) (residuals []int32, k uint, bits int) {
	residuals = fixedResiduals(samples, order)
	k = bestRiceParam(residuals)
	bits = order*int(bps) + 6 + riceCost(residuals, k)
	return residuals, k, bits
}

// bestFixedOrder searches fixed predictor orders 0 through 4 (bounded by the
// number of available samples) for the cheapest encoding, returning the
// chosen order, its residuals and Rice parameter.
func bestFixedOrder(samples []int32, bps uint) (order int, residuals []int32, k uint) {
	maxOrder := 4
	if maxOrder > len(samples) {
		maxOrder = len(samples)
	}
	bestBits := int(^uint(0) >> 1)
	for o := 0; o <= maxOrder; o++ {
		res, rk, bits := fixedOrderCost(samples, o, bps)
		if bits < bestBits {
			bestBits, order, residuals, k = bits, o, res, rk
		}
	}
	return order, residuals, k
}
