package flac_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/mewkiz/goflac"
)

// sineSamples builds n int32 samples of a quantized sine wave, scaled to fit
// within bitsPerSample.
func sineSamples(n int, bitsPerSample uint) []int32 {
	max := int32(1<<(bitsPerSample-1)) - 1
	out := make([]int32, n)
	for i := range out {
		// A cheap integer "sine-ish" wave, deterministic and without
		// depending on math.Sin (kept simple and exact).
		phase := i % 64
		if phase < 32 {
			out[i] = int32(phase) * max / 32
		} else {
			out[i] = -int32(phase-32) * max / 32
		}
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const (
		nChannels     = 2
		bitsPerSample = 16
		sampleRate    = 44100
		blockSize     = 256
		nBlocks       = 5
	)
	left := sineSamples(blockSize*nBlocks, bitsPerSample)
	right := make([]int32, len(left))
	for i, v := range left {
		right[i] = -v / 2
	}

	buf := &bytes.Buffer{}
	enc, err := flac.NewEncoder(buf,
		flac.WithChannels(nChannels),
		flac.WithBitsPerSample(bitsPerSample),
		flac.WithSampleRate(sampleRate),
		flac.WithBlockSize(blockSize),
	)
	if err != nil {
		t.Fatalf("error creating encoder: %v", err)
	}
	for b := 0; b < nBlocks; b++ {
		chunk := [][]int32{
			left[b*blockSize : (b+1)*blockSize],
			right[b*blockSize : (b+1)*blockSize],
		}
		if err := enc.WriteSamples(chunk); err != nil {
			t.Fatalf("block %d: error writing samples: %v", b, err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("error closing encoder: %v", err)
	}
	if enc.Info == nil {
		t.Fatal("expected Encoder.Info to be populated after Close")
	}
	if enc.Info.NSamples != uint64(blockSize*nBlocks) {
		t.Errorf("expected NSamples=%d, got %d", blockSize*nBlocks, enc.Info.NSamples)
	}

	dec, err := flac.New(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("error creating decoder: %v", err)
	}
	if dec.Info.NChannels != nChannels {
		t.Errorf("expected %d channels, got %d", nChannels, dec.Info.NChannels)
	}
	if dec.Info.SampleRate != sampleRate {
		t.Errorf("expected sample rate %d, got %d", sampleRate, dec.Info.SampleRate)
	}

	var gotLeft, gotRight []int32
	for {
		f, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("error reading frame: %v", err)
		}
		samples := f.Samples()
		if len(samples) != nChannels {
			t.Fatalf("expected %d channels in frame, got %d", nChannels, len(samples))
		}
		gotLeft = append(gotLeft, samples[0]...)
		gotRight = append(gotRight, samples[1]...)
	}

	if len(gotLeft) != len(left) {
		t.Fatalf("left channel length mismatch; expected %d, got %d", len(left), len(gotLeft))
	}
	for i, want := range left {
		if gotLeft[i] != want {
			t.Fatalf("left sample %d mismatch; expected %d, got %d", i, want, gotLeft[i])
		}
	}
	for i, want := range right {
		if gotRight[i] != want {
			t.Fatalf("right sample %d mismatch; expected %d, got %d", i, want, gotRight[i])
		}
	}

	if !dec.CheckMD5() {
		t.Error("expected MD5 signature to match after full decode")
	}
}

func TestEncodeDecodeMidSideRoundTrip(t *testing.T) {
	const (
		bitsPerSample = 16
		sampleRate    = 8000
		blockSize     = 512
	)
	left := sineSamples(blockSize, bitsPerSample)
	right := make([]int32, len(left))
	for i, v := range left {
		right[i] = v + int32(i%3) - 1
	}

	buf := &bytes.Buffer{}
	enc, err := flac.NewEncoder(buf,
		flac.WithChannels(2),
		flac.WithBitsPerSample(bitsPerSample),
		flac.WithSampleRate(sampleRate),
		flac.WithBlockSize(blockSize),
		flac.WithMidSideStereo(true, false),
		flac.WithVerify(true),
	)
	if err != nil {
		t.Fatalf("error creating encoder: %v", err)
	}
	if err := enc.WriteSamples([][]int32{left, right}); err != nil {
		t.Fatalf("error writing samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("error closing encoder: %v", err)
	}

	dec, err := flac.New(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("error creating decoder: %v", err)
	}
	f, err := dec.Next()
	if err != nil {
		t.Fatalf("error reading frame: %v", err)
	}
	samples := f.Samples()
	for i, want := range left {
		if samples[0][i] != want {
			t.Fatalf("left sample %d mismatch; expected %d, got %d", i, want, samples[0][i])
		}
	}
	for i, want := range right {
		if samples[1][i] != want {
			t.Fatalf("right sample %d mismatch; expected %d, got %d", i, want, samples[1][i])
		}
	}
	if _, err := dec.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after the only frame, got %v", err)
	}
}

func TestDecoderSeek(t *testing.T) {
	const (
		bitsPerSample = 16
		sampleRate    = 44100
		blockSize     = 128
		nBlocks       = 10
	)
	samples := sineSamples(blockSize*nBlocks, bitsPerSample)

	tmp := newSeekableBuffer()
	enc, err := flac.NewEncoder(tmp,
		flac.WithChannels(1),
		flac.WithBitsPerSample(bitsPerSample),
		flac.WithSampleRate(sampleRate),
		flac.WithBlockSize(blockSize),
		flac.WithTotalSamplesEstimate(uint64(len(samples))),
	)
	if err != nil {
		t.Fatalf("error creating encoder: %v", err)
	}
	for b := 0; b < nBlocks; b++ {
		chunk := [][]int32{samples[b*blockSize : (b+1)*blockSize]}
		if err := enc.WriteSamples(chunk); err != nil {
			t.Fatalf("block %d: error writing samples: %v", b, err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("error closing encoder: %v", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("error rewinding buffer: %v", err)
	}

	dec, err := flac.NewSeek(tmp)
	if err != nil {
		t.Fatalf("error creating seekable decoder: %v", err)
	}

	target := uint64(3 * blockSize)
	landed, err := dec.Seek(target)
	if err != nil {
		t.Fatalf("error seeking to sample %d: %v", target, err)
	}
	if landed > target {
		t.Fatalf("seek landed past target: landed=%d target=%d", landed, target)
	}
	f, err := dec.Next()
	if err != nil {
		t.Fatalf("error reading frame after seek: %v", err)
	}
	got := f.Samples()[0]
	want := samples[landed : landed+uint64(len(got))]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d mismatch after seek; expected %d, got %d", i, want[i], got[i])
		}
	}

	outOfRange := uint64(len(samples)) + 1000
	if _, err := dec.Seek(outOfRange); err == nil {
		t.Fatalf("expected error seeking past end of stream to sample %d, got nil", outOfRange)
	}
}

// seekableBuffer adapts a bytes.Buffer into an io.ReadWriteSeeker backed by
// an in-memory byte slice, the way an *os.File backs a real FLAC encode.
type seekableBuffer struct {
	data []byte
	pos  int64
}

func newSeekableBuffer() *seekableBuffer {
	return &seekableBuffer{}
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekableBuffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = b.pos + offset
	case io.SeekEnd:
		newPos = int64(len(b.data)) + offset
	}
	b.pos = newPos
	return newPos, nil
}
