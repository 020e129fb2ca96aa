package frame

import (
	"bytes"
	"testing"

	"github.com/icza/bitio"
	"github.com/mewkiz/goflac/internal/bits"
)

func TestRiceResidualRoundTrip(t *testing.T) {
	golden := []int32{0, 1, -1, 2, -2, 100, -100, 32767, -32768, 7, -7}
	for _, k := range []uint{0, 1, 4, 10} {
		buf := &bytes.Buffer{}
		bw := bitio.NewWriter(buf)
		for _, r := range golden {
			if err := encodeRiceResidual(bw, k, r); err != nil {
				t.Fatalf("k=%d: error encoding residual: %v", k, err)
			}
		}
		if err := bw.Close(); err != nil {
			t.Fatalf("k=%d: error closing writer: %v", k, err)
		}

		br := bits.NewReader(buf)
		for i, want := range golden {
			got, err := decodeRiceResidual(br, k)
			if err != nil {
				t.Fatalf("k=%d, i=%d: error decoding residual: %v", k, i, err)
			}
			if got != want {
				t.Errorf("k=%d, i=%d: residual mismatch; expected %d, got %d", k, i, want, got)
			}
		}
	}
}

func TestBestRiceParamIsConvexMinimum(t *testing.T) {
	residuals := make([]int32, 200)
	for i := range residuals {
		residuals[i] = int32((i%37)*13 - 200)
	}
	best := bestRiceParam(residuals)
	bestCost := riceCost(residuals, best)
	for k := uint(0); k < 20; k++ {
		if riceCost(residuals, k) < bestCost {
			t.Errorf("k=%d has lower cost (%d) than reported best k=%d (%d)", k, riceCost(residuals, k), best, bestCost)
		}
	}
}

func TestMaxRicePartitionOrder(t *testing.T) {
	golden := []struct {
		predOrder, nsamplesTotal int
		want                     uint
	}{
		{predOrder: 9, nsamplesTotal: 18, want: 0},
		{predOrder: 0, nsamplesTotal: 16, want: 4},
		{predOrder: 4, nsamplesTotal: 16, want: 1},
	}
	for _, g := range golden {
		got := maxRicePartitionOrder(g.predOrder, g.nsamplesTotal)
		if got != g.want {
			t.Errorf("predOrder=%d, nsamplesTotal=%d: expected max order %d, got %d", g.predOrder, g.nsamplesTotal, g.want, got)
		}
	}
}

func TestBuildRiceSubframePicksBeneficialPartitionOrder(t *testing.T) {
	residuals := make([]int32, 16)
	for i := 8; i < 16; i++ {
		residuals[i] = 2000
	}
	_, rs := buildRiceSubframe(residuals, 0)
	if rs.PartOrder == 0 {
		t.Fatal("expected a higher partition order for residuals with a sharp cost discontinuity")
	}
	if len(rs.Partitions) != 1<<rs.PartOrder {
		t.Fatalf("expected %d partitions for partition order %d, got %d", 1<<rs.PartOrder, rs.PartOrder, len(rs.Partitions))
	}
}

func TestResidualEncodeDecodeRoundTrip(t *testing.T) {
	residuals := []int32{5, -3, 2, 0, -1, 8, -8, 4, -4, 1, 1, 1, 1, -2, -2, -2}
	predOrder := 2
	nsamples := len(residuals) + predOrder
	method, rs := buildRiceSubframe(residuals, predOrder)

	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)
	if err := encodeResidual(bw, method, rs, predOrder, residuals); err != nil {
		t.Fatalf("error encoding residual: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("error closing writer: %v", err)
	}

	br := bits.NewReader(buf)
	gotResiduals, gotRS, gotMethod, err := decodeResidual(br, predOrder, nsamples)
	if err != nil {
		t.Fatalf("error decoding residual: %v", err)
	}
	if gotMethod != method {
		t.Errorf("method mismatch; expected %v, got %v", method, gotMethod)
	}
	if gotRS.PartOrder != rs.PartOrder {
		t.Errorf("partition order mismatch; expected %d, got %d", rs.PartOrder, gotRS.PartOrder)
	}
	if len(gotResiduals) != len(residuals) {
		t.Fatalf("residual count mismatch; expected %d, got %d", len(residuals), len(gotResiduals))
	}
	for i, want := range residuals {
		if gotResiduals[i] != want {
			t.Errorf("residual %d mismatch; expected %d, got %d", i, want, gotResiduals[i])
		}
	}
}
