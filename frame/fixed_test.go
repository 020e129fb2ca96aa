package frame

import "testing"

func TestFixedPredictRoundTrip(t *testing.T) {
	samples := []int32{10, 12, 15, 11, 9, 20, 25, 18, 5, -3, -10, 0, 7, 14, 21, 28}
	for order := 0; order <= 4; order++ {
		res := fixedResiduals(samples, order)
		warm := samples[:order]
		got := predictFixed(order, warm, res)
		if len(got) != len(samples) {
			t.Fatalf("order=%d: length mismatch; expected %d, got %d", order, len(samples), len(got))
		}
		for i, want := range samples {
			if got[i] != want {
				t.Errorf("order=%d: sample %d mismatch; expected %d, got %d", order, i, want, got[i])
			}
		}
	}
}

func TestBestFixedOrderPicksExact(t *testing.T) {
	// A pure linear ramp has zero second difference, so the order-2 fixed
	// predictor (x[n] = 2x[n-1] - x[n-2]) predicts it exactly.
	samples := make([]int32, 64)
	for i := range samples {
		samples[i] = int32(i) * 3
	}
	order, res, _ := bestFixedOrder(samples, 16)
	if order != 2 {
		t.Fatalf("expected order 2 for a linear ramp, got %d", order)
	}
	for i, r := range res {
		if r != 0 {
			t.Fatalf("expected zero residual at index %d for a linear ramp, got %d", i, r)
		}
	}
}
