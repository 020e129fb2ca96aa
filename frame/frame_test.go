package frame

import (
	"bytes"
	"math"
	"testing"
)

func sineSamples(n int, amp float64) []int32 {
	samples := make([]int32, n)
	for i := range samples {
		samples[i] = int32(amp * math.Sin(float64(i)*0.1))
	}
	return samples
}

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	const (
		bps        = 16
		sampleRate = 44100
		n          = 256
	)
	left := sineSamples(n, 10000)
	right := make([]int32, n)
	for i, s := range left {
		right[i] = s + int32(i%7) - 3
	}

	golden := []struct {
		name     string
		channels Channels
		samples  [][]int32
	}{
		{name: "left/right", channels: ChannelsLR, samples: [][]int32{left, right}},
		{name: "left/side", channels: ChannelsLeftSide, samples: [][]int32{left, subtract(left, right)}},
		{name: "mid/side", channels: ChannelsMidSide, samples: [][]int32{mid(left, right), subtract(left, right)}},
	}

	opts := EncodeOptions{MaxLPCOrder: 8}
	for _, g := range golden {
		subframes := make([]*Subframe, len(g.samples))
		for ch, samples := range g.samples {
			chBps := uint(bps)
			switch g.channels {
			case ChannelsLeftSide, ChannelsMidSide:
				if ch == 1 {
					chBps++
				}
			case ChannelsSideRight:
				if ch == 0 {
					chBps++
				}
			}
			subframes[ch] = NewSubframe(samples, chBps, opts)
		}
		f := &Frame{
			Header: &Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        sampleRate,
				Channels:          g.channels,
				BitsPerSample:     bps,
				Num:               0,
			},
			Subframes: subframes,
		}

		buf := &bytes.Buffer{}
		if err := f.Encode(buf); err != nil {
			t.Fatalf("%s: error encoding frame: %v", g.name, err)
		}

		got, err := DecodeFrame(bytes.NewReader(buf.Bytes()), bps, sampleRate)
		if err != nil {
			t.Fatalf("%s: error decoding frame: %v", g.name, err)
		}

		decoded := got.Samples()
		if g.channels == ChannelsMidSide || g.channels == ChannelsLeftSide {
			for i := range left {
				if decoded[0][i] != left[i] {
					t.Errorf("%s: left sample %d mismatch; expected %d, got %d", g.name, i, left[i], decoded[0][i])
					break
				}
			}
			for i := range right {
				if decoded[1][i] != right[i] {
					t.Errorf("%s: right sample %d mismatch; expected %d, got %d", g.name, i, right[i], decoded[1][i])
					break
				}
			}
		} else {
			for ch, want := range g.samples {
				for i := range want {
					if decoded[ch][i] != want[i] {
						t.Errorf("%s: channel %d sample %d mismatch; expected %d, got %d", g.name, ch, i, want[i], decoded[ch][i])
						break
					}
				}
			}
		}
	}
}

func subtract(a, b []int32) []int32 {
	out := make([]int32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func mid(a, b []int32) []int32 {
	out := make([]int32, len(a))
	for i := range a {
		out[i] = (a[i] + b[i]) >> 1
	}
	return out
}
