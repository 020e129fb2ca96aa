package meta

import (
	"bytes"
	"testing"
)

func TestVorbisCommentEncodeDecode(t *testing.T) {
	want := &VorbisComment{
		Vendor: "reference libFLAC 1.2.1 20070917",
		Tags: [][2]string{
			{"ARTIST", "Test Artist"},
			{"ALBUM", "Test Album"},
			{"TITLE", "A Song"},
		},
	}
	buf := &bytes.Buffer{}
	if err := want.Encode(buf); err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	got, err := decodeVorbisComment(buf)
	if err != nil {
		t.Fatalf("error decoding: %v", err)
	}
	if got.Vendor != want.Vendor {
		t.Errorf("vendor mismatch; expected %q, got %q", want.Vendor, got.Vendor)
	}
	if len(got.Tags) != len(want.Tags) {
		t.Fatalf("tag count mismatch; expected %d, got %d", len(want.Tags), len(got.Tags))
	}
	for i, tag := range want.Tags {
		if got.Tags[i] != tag {
			t.Errorf("tag %d mismatch; expected %v, got %v", i, tag, got.Tags[i])
		}
	}
}

func TestVorbisCommentGetSet(t *testing.T) {
	vc := &VorbisComment{}
	if _, ok := vc.Get("ARTIST"); ok {
		t.Fatal("expected no ARTIST tag on empty VorbisComment")
	}
	vc.Set("artist", "First")
	if v, ok := vc.Get("ARTIST"); !ok || v != "First" {
		t.Fatalf("expected ARTIST=First, got %q, ok=%v", v, ok)
	}
	vc.Set("ARTIST", "Second")
	if len(vc.Tags) != 1 {
		t.Fatalf("expected Set to replace the existing tag, got %d tags", len(vc.Tags))
	}
	if v, _ := vc.Get("Artist"); v != "Second" {
		t.Fatalf("expected ARTIST=Second, got %q", v)
	}
}
