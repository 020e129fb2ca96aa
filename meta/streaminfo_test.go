package meta

import (
	"bytes"
	"testing"
)

func TestStreamInfoEncodeDecode(t *testing.T) {
	golden := []*StreamInfo{
		{BlockSizeMin: 4096, BlockSizeMax: 4096, FrameSizeMin: 1000, FrameSizeMax: 5000, SampleRate: 44100, NChannels: 2, BitsPerSample: 16, NSamples: 123456, MD5sum: [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
		{BlockSizeMin: 16, BlockSizeMax: 65535, FrameSizeMin: 0, FrameSizeMax: 0, SampleRate: 655350, NChannels: 8, BitsPerSample: 32, NSamples: 0, MD5sum: [16]byte{}},
		{BlockSizeMin: 192, BlockSizeMax: 192, FrameSizeMin: 10, FrameSizeMax: 10, SampleRate: 8000, NChannels: 1, BitsPerSample: 4, NSamples: 1, MD5sum: [16]byte{0xFF}},
	}
	for i, want := range golden {
		buf := &bytes.Buffer{}
		if err := want.Encode(buf); err != nil {
			t.Fatalf("i=%d: error encoding: %v", i, err)
		}
		got, err := decodeStreamInfo(buf)
		if err != nil {
			t.Fatalf("i=%d: error decoding: %v", i, err)
		}
		if *got != *want {
			t.Errorf("i=%d: mismatch; expected %#v, got %#v", i, want, got)
		}
	}
}

func TestDecodeStreamInfoRejectsInvalidBlockSize(t *testing.T) {
	si := &StreamInfo{BlockSizeMin: 10, BlockSizeMax: 4096, SampleRate: 44100, NChannels: 2, BitsPerSample: 16}
	buf := &bytes.Buffer{}
	if err := si.Encode(buf); err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if _, err := decodeStreamInfo(buf); err == nil {
		t.Fatal("expected error for block size below 16, got nil")
	}
}
