package frame

import "testing"

func TestWindowApplyEndpoints(t *testing.T) {
	samples := []int32{1, 2, 3, 4, 5, 6, 7, 8}
	golden := []Window{WindowRectangle, WindowHann, WindowTukey, WindowWelch, WindowGauss}
	for _, w := range golden {
		out := w.apply(samples)
		if len(out) != len(samples) {
			t.Fatalf("%s: length mismatch; expected %d, got %d", w, len(samples), len(out))
		}
		if w == WindowHann || w == WindowWelch {
			// Both windows taper to zero at the very first and last sample.
			if out[0] > 1e-9 || out[0] < -1e-9 {
				t.Errorf("%s: expected first sample to be tapered to ~0, got %v", w, out[0])
			}
			if out[len(out)-1] > 1e-9 || out[len(out)-1] < -1e-9 {
				t.Errorf("%s: expected last sample to be tapered to ~0, got %v", w, out[len(out)-1])
			}
		}
	}
}

func TestWindowRectangleIsIdentity(t *testing.T) {
	samples := []int32{-5, 0, 7, 42, -100}
	out := WindowRectangle.apply(samples)
	for i, s := range samples {
		if out[i] != float64(s) {
			t.Errorf("index %d: expected %v, got %v", i, float64(s), out[i])
		}
	}
}

func TestBestLPCOrderWindowRecoversLinearPredictor(t *testing.T) {
	// A linear ramp is well modeled by a low order LPC predictor; every
	// window should find a nonzero order with one coefficient per order and
	// one residual per non-warm-up sample.
	n := 128
	samples := make([]int32, n)
	for i := range samples {
		samples[i] = int32(1000 * float64(n-i) / float64(n))
	}
	for _, w := range []Window{WindowRectangle, WindowHann, WindowTukey, WindowWelch, WindowGauss} {
		order, qcoeffs, _, res := bestLPCOrderWindow(samples, 16, 8, 14, w)
		if order == 0 {
			t.Errorf("%s: expected a nonzero LPC order", w)
			continue
		}
		if len(qcoeffs) != order {
			t.Errorf("%s: expected %d quantized coefficients, got %d", w, order, len(qcoeffs))
		}
		if len(res) != n-order {
			t.Errorf("%s: expected %d residuals, got %d", w, n-order, len(res))
		}
	}
}
