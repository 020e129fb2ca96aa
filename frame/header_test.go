package frame

import (
	"bytes"
	"testing"
)

func TestHeaderEncodeDecode(t *testing.T) {
	golden := []struct {
		hdr *Header
	}{
		{hdr: &Header{HasFixedBlockSize: true, BlockSize: 4096, SampleRate: 44100, Channels: ChannelsLR, BitsPerSample: 16, Num: 0}},
		{hdr: &Header{HasFixedBlockSize: true, BlockSize: 192, SampleRate: 8000, Channels: ChannelsMono, BitsPerSample: 8, Num: 1}},
		{hdr: &Header{HasFixedBlockSize: true, BlockSize: 256, SampleRate: 96000, Channels: ChannelsMidSide, BitsPerSample: 24, Num: 300}},
		{hdr: &Header{HasFixedBlockSize: true, BlockSize: 65536 / 2, SampleRate: 123000, Channels: ChannelsLeftSide, BitsPerSample: 20, Num: 70000}},
		{hdr: &Header{HasFixedBlockSize: false, BlockSize: 4608, SampleRate: 192000, Channels: ChannelsSideRight, BitsPerSample: 12, Num: 1 << 20}},
	}
	for i, g := range golden {
		buf := &bytes.Buffer{}
		if err := g.hdr.Encode(buf); err != nil {
			t.Fatalf("i=%d: error encoding header: %v", i, err)
		}
		got, err := Decode(buf)
		if err != nil {
			t.Fatalf("i=%d: error decoding header: %v", i, err)
		}
		if *got != *g.hdr {
			t.Errorf("i=%d: header mismatch; expected %#v, got %#v", i, g.hdr, got)
		}
	}
}

func TestHeaderChecksumMismatch(t *testing.T) {
	hdr := &Header{HasFixedBlockSize: true, BlockSize: 4096, SampleRate: 44100, Channels: ChannelsLR, BitsPerSample: 16, Num: 0}
	buf := &bytes.Buffer{}
	if err := hdr.Encode(buf); err != nil {
		t.Fatalf("error encoding header: %v", err)
	}
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF
	if _, err := Decode(bytes.NewReader(raw)); err == nil {
		t.Fatal("expected checksum mismatch error, got nil")
	}
}
