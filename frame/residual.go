package frame

import (
	"github.com/icza/bitio"
	"github.com/mewkiz/goflac/internal/bits"
	"github.com/mewkiz/pkg/errutil"
)

// ResidualCodingMethod specifies how the residual (prediction error) signal
// of a subframe is encoded.
type ResidualCodingMethod uint8

// Residual coding methods.
const (
	// ResidualCodingMethodRice1 is partitioned Rice coding with a 4-bit Rice
	// parameter per partition.
	ResidualCodingMethodRice1 ResidualCodingMethod = iota
	// ResidualCodingMethodRice2 is partitioned Rice coding with a 5-bit Rice
	// parameter per partition.
	ResidualCodingMethodRice2
)

// riceEscape is the Rice parameter bit pattern that marks a partition as
// being stored unencoded (raw binary).
const (
	riceEscape1 = 0xF  // all-ones 4-bit parameter
	riceEscape2 = 0x1F // all-ones 5-bit parameter
)

// RicePartition holds the Rice coding parameters used to encode one
// partition of a partitioned Rice residual.
type RicePartition struct {
	// Param is the Rice parameter. Ignored if Escaped.
	Param uint
	// Escaped is true if the partition is stored as unencoded binary values
	// rather than Rice coded.
	Escaped bool
	// RawBits is the number of bits used to store each raw residual, valid
	// only if Escaped.
	RawBits uint
}

// RiceSubframe holds the partitioned Rice coding parameters of a subframe's
// residual.
type RiceSubframe struct {
	// PartOrder is the partition order; the residual is split into
	// 2^PartOrder partitions.
	PartOrder uint
	// Partitions holds the per-partition Rice parameters.
	Partitions []RicePartition
}

// paramSize returns the number of bits used to store a partition's Rice
// parameter for the given coding method.
func (method ResidualCodingMethod) paramSize() uint8 {
	if method == ResidualCodingMethodRice2 {
		return 5
	}
	return 4
}

func (method ResidualCodingMethod) escape() uint {
	if method == ResidualCodingMethodRice2 {
		return riceEscape2
	}
	return riceEscape1
}

// decodeResidual reads the 2-bit residual coding method selector and decodes
// nsamples-predOrder residual values accordingly.
func decodeResidual(br *bits.Reader, predOrder, nsamples int) ([]int32, *RiceSubframe, ResidualCodingMethod, error) {
	method, err := br.Read(2)
	if err != nil {
		return nil, nil, 0, errutil.Err(err)
	}
	switch ResidualCodingMethod(method) {
	case ResidualCodingMethodRice1, ResidualCodingMethodRice2:
		residuals, rs, err := decodeRicePartitions(br, ResidualCodingMethod(method), predOrder, nsamples)
		return residuals, rs, ResidualCodingMethod(method), err
	default:
		return nil, nil, 0, errutil.Newf("frame.decodeResidual: reserved residual coding method bit pattern: %02b", method)
	}
}

// decodeRicePartitions decodes a partitioned Rice residual.
func decodeRicePartitions(br *bits.Reader, method ResidualCodingMethod, predOrder, nsamples int) ([]int32, *RiceSubframe, error) {
	partOrder, err := br.Read(4)
	if err != nil {
		return nil, nil, errutil.Err(err)
	}
	nparts := 1 << partOrder
	if nsamples%nparts != 0 {
		return nil, nil, errutil.Newf("frame.decodeRicePartitions: sample count %d not divisible by partition count %d", nsamples, nparts)
	}

	rs := &RiceSubframe{PartOrder: uint(partOrder)}
	var residuals []int32
	paramSize := method.paramSize()
	for i := 0; i < nparts; i++ {
		partSampleCount := nsamples / nparts
		if i == 0 {
			partSampleCount -= predOrder
		}

		param, err := br.Read(uint(paramSize))
		if err != nil {
			return nil, nil, errutil.Err(err)
		}
		part := RicePartition{Param: uint(param)}

		if uint(param) == method.escape() {
			part.Escaped = true
			nbits, err := br.Read(5)
			if err != nil {
				return nil, nil, errutil.Err(err)
			}
			part.RawBits = uint(nbits)
			for j := 0; j < partSampleCount; j++ {
				x, err := br.Read(uint(nbits))
				if err != nil {
					return nil, nil, errutil.Err(err)
				}
				residuals = append(residuals, bits.SignExtend32(uint32(x), uint(nbits)))
			}
		} else {
			for j := 0; j < partSampleCount; j++ {
				residual, err := decodeRiceResidual(br, uint(param))
				if err != nil {
					return nil, nil, errutil.Err(err)
				}
				residuals = append(residuals, residual)
			}
		}
		rs.Partitions = append(rs.Partitions, part)
	}
	return residuals, rs, nil
}

// decodeRiceResidual decodes a single Rice-coded residual with parameter k.
func decodeRiceResidual(br *bits.Reader, k uint) (int32, error) {
	high, err := br.ReadUnary()
	if err != nil {
		return 0, err
	}
	low, err := br.Read(k)
	if err != nil {
		return 0, err
	}
	folded := uint32(high)<<k | uint32(low)
	return bits.DecodeZigZag(folded), nil
}

// encodeResidual writes the 2-bit coding method selector and the partitioned
// Rice residual described by rs.
func encodeResidual(bw *bitio.Writer, method ResidualCodingMethod, rs *RiceSubframe, predOrder int, residuals []int32) error {
	if err := bw.WriteBits(uint64(method), 2); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(rs.PartOrder), 4); err != nil {
		return errutil.Err(err)
	}
	return encodeRicePartitions(bw, method, rs, predOrder, residuals)
}

// encodeRicePartitions writes the per-partition Rice parameters and residual
// bodies of a partitioned Rice residual (the 2-bit method selector and 4-bit
// partition order are written by encodeResidual before this is called).
func encodeRicePartitions(bw *bitio.Writer, method ResidualCodingMethod, rs *RiceSubframe, predOrder int, residuals []int32) error {
	paramSize := method.paramSize()
	nparts := 1 << rs.PartOrder
	nsamplesTotal := len(residuals) + predOrder
	idx := 0
	for i := 0; i < nparts; i++ {
		part := rs.Partitions[i]
		partSampleCount := nsamplesTotal / nparts
		if i == 0 {
			partSampleCount -= predOrder
		}
		if part.Escaped {
			if err := bw.WriteBits(uint64(method.escape()), paramSize); err != nil {
				return errutil.Err(err)
			}
			if err := bw.WriteBits(uint64(part.RawBits), 5); err != nil {
				return errutil.Err(err)
			}
			for j := 0; j < partSampleCount; j++ {
				if err := bw.WriteBits(bits.UintN(int64(residuals[idx]), part.RawBits), uint8(part.RawBits)); err != nil {
					return errutil.Err(err)
				}
				idx++
			}
			continue
		}
		if err := bw.WriteBits(uint64(part.Param), paramSize); err != nil {
			return errutil.Err(err)
		}
		for j := 0; j < partSampleCount; j++ {
			if err := encodeRiceResidual(bw, part.Param, residuals[idx]); err != nil {
				return errutil.Err(err)
			}
			idx++
		}
	}
	return nil
}

// encodeRiceResidual Rice-encodes a single residual with parameter k.
func encodeRiceResidual(bw *bitio.Writer, k uint, residual int32) error {
	folded := bits.EncodeZigZag(residual)
	high := uint64(folded >> k)
	low := uint64(folded) & (uint64(1)<<k - 1)
	if err := bits.WriteUnary(bw, high); err != nil {
		return errutil.Err(err)
	}
	return bw.WriteBits(low, uint8(k))
}

// riceCost estimates the number of bits needed to Rice-code residuals with
// parameter k, using a single partition.
func riceCost(residuals []int32, k uint) int {
	n := 0
	for _, r := range residuals {
		folded := bits.EncodeZigZag(r)
		n += int(folded>>k) + 1 + int(k)
	}
	return n
}

// bestRiceParam returns the Rice parameter (0-29) that minimizes the encoded
// length of residuals, ignoring partitioning and escape coding.
func bestRiceParam(residuals []int32) uint {
	bestK := uint(0)
	bestBits := riceCost(residuals, 0)
	for k := uint(1); k < 30; k++ {
		bits := riceCost(residuals, k)
		if bits >= bestBits {
			// Rice cost is convex in k; stop once it starts increasing.
			break
		}
		bestBits, bestK = bits, k
	}
	return bestK
}

// maxRicePartitionOrder returns the greatest partition order that legally
// splits nsamplesTotal residuals with predOrder warm-up samples folded into
// the first partition: the partition count must evenly divide nsamplesTotal,
// and the first partition must retain at least one residual once predOrder
// is subtracted. Partition order is capped at 15, the field's 4-bit width.
func maxRicePartitionOrder(predOrder, nsamplesTotal int) uint {
	order := uint(0)
	for order < 15 {
		nparts := 1 << (order + 1)
		if nsamplesTotal%nparts != 0 {
			break
		}
		if nsamplesTotal/nparts <= predOrder {
			break
		}
		order++
	}
	return order
}

// buildRiceSubframe searches every legal partition order from 0 up to
// maxRicePartitionOrder, keeping the cheapest per-partition Rice parameters
// (§4.4's partitioned-Rice search), then picks the narrower of the two
// parameter widths unless some partition's parameter needs the wider one.
func buildRiceSubframe(residuals []int32, predOrder int) (ResidualCodingMethod, *RiceSubframe) {
	nsamplesTotal := len(residuals) + predOrder
	maxOrder := maxRicePartitionOrder(predOrder, nsamplesTotal)

	var bestOrder uint
	var bestPartitions []RicePartition
	bestCost := -1
	for order := uint(0); order <= maxOrder; order++ {
		nparts := 1 << order
		partitions := make([]RicePartition, nparts)
		cost := 0
		idx := 0
		for i := 0; i < nparts; i++ {
			count := nsamplesTotal/nparts - boolToInt(i == 0)*predOrder
			part := residuals[idx : idx+count]
			k := bestRiceParam(part)
			partitions[i] = RicePartition{Param: k}
			cost += riceCost(part, k) + 5 // partition parameter overhead
			idx += count
		}
		if bestCost < 0 || cost < bestCost {
			bestCost, bestOrder, bestPartitions = cost, order, partitions
		}
	}

	method := ResidualCodingMethodRice1
	for _, p := range bestPartitions {
		if p.Param > 14 {
			method = ResidualCodingMethodRice2
			break
		}
	}
	return method, &RiceSubframe{PartOrder: bestOrder, Partitions: bestPartitions}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
