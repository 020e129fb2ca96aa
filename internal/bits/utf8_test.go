package bits

import (
	"bytes"
	"testing"

	"github.com/icza/bitio"
)

func TestUTF8EncodeDecodeRoundTrip(t *testing.T) {
	golden := []uint64{0, 1, 127, 128, 2047, 2048, 65535, 65536, 1 << 20, 1 << 21, 1 << 35, maxRune7}
	for _, want := range golden {
		buf := &bytes.Buffer{}
		bw := bitio.NewWriter(buf)
		if err := EncodeUTF8(bw, want); err != nil {
			t.Fatalf("x=%d: error encoding: %v", want, err)
		}
		if err := bw.Close(); err != nil {
			t.Fatalf("x=%d: error closing writer: %v", want, err)
		}
		got, err := DecodeUTF8(NewReader(buf))
		if err != nil {
			t.Fatalf("x=%d: error decoding: %v", want, err)
		}
		if got != want {
			t.Errorf("value mismatch; expected %d, got %d", want, got)
		}
	}
}

func TestDecodeUTF8RejectsOverlongEncoding(t *testing.T) {
	// A 2-byte lead/continuation pair (0xC0, 0x80) decodes to 0, which fits
	// in a single byte (0x00) and must therefore be rejected as over-long.
	buf := bytes.NewReader([]byte{0xC0, 0x80})
	if _, err := DecodeUTF8(NewReader(buf)); err == nil {
		t.Fatal("expected error decoding an over-long 2-byte encoding of 0, got nil")
	}

	// A 3-byte encoding of 128 fits in 2 bytes (0xC2 0x80) and must be
	// rejected when instead spelled with a 3-byte lead.
	buf2 := bytes.NewReader([]byte{0xE0, 0x82, 0x80})
	if _, err := DecodeUTF8(NewReader(buf2)); err == nil {
		t.Fatal("expected error decoding an over-long 3-byte encoding of 128, got nil")
	}
}

func TestDecodeUTF8AcceptsMinimalEncoding(t *testing.T) {
	// 128 is the smallest value that legitimately requires a 2-byte
	// encoding (0xC2 0x80) and must round-trip.
	buf := bytes.NewReader([]byte{0xC2, 0x80})
	got, err := DecodeUTF8(NewReader(buf))
	if err != nil {
		t.Fatalf("error decoding minimal 2-byte encoding: %v", err)
	}
	if got != 128 {
		t.Errorf("expected 128, got %d", got)
	}
}
