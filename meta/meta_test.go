package meta

import (
	"bytes"
	"testing"
)

func TestBlockEncodeNewBlockRoundTrip(t *testing.T) {
	golden := []struct {
		name string
		body interface{}
		typ  Type
	}{
		{name: "stream info", typ: TypeStreamInfo, body: &StreamInfo{BlockSizeMin: 4096, BlockSizeMax: 4096, SampleRate: 44100, NChannels: 2, BitsPerSample: 16, NSamples: 1000}},
		{name: "padding", typ: TypePadding, body: &Padding{Length: 32}},
		{name: "application", typ: TypeApplication, body: &Application{ID: [4]byte{'T', 'E', 'S', 'T'}, Data: []byte("hello")}},
		{name: "seek table", typ: TypeSeekTable, body: &SeekTable{Points: []SeekPoint{{SampleNum: 0, Offset: 0, NSamples: 4096}}}},
		{name: "vorbis comment", typ: TypeVorbisComment, body: &VorbisComment{Vendor: "goflac", Tags: [][2]string{{"TITLE", "x"}}}},
	}
	for i, g := range golden {
		block := &Block{
			Header: &Header{Type: g.typ, IsLast: true},
			Body:   g.body,
		}
		block.Header.Length = block.Len()

		buf := &bytes.Buffer{}
		if err := block.Encode(buf); err != nil {
			t.Fatalf("i=%d (%s): error encoding block: %v", i, g.name, err)
		}

		got, err := NewBlock(buf)
		if err != nil {
			t.Fatalf("i=%d (%s): error decoding block: %v", i, g.name, err)
		}
		if got.Header.Type != g.typ {
			t.Errorf("i=%d (%s): type mismatch; expected %v, got %v", i, g.name, g.typ, got.Header.Type)
		}
		if !got.Header.IsLast {
			t.Errorf("i=%d (%s): expected IsLast to round-trip true", i, g.name)
		}
	}
}

func TestNewBlockPreservesUnknownType(t *testing.T) {
	hdr := &Header{Type: Type(50), Length: 4, IsLast: true}
	buf := &bytes.Buffer{}
	if err := hdr.Encode(buf); err != nil {
		t.Fatalf("error encoding header: %v", err)
	}
	buf.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	got, err := NewBlock(buf)
	if err != nil {
		t.Fatalf("error decoding block: %v", err)
	}
	unknown, ok := got.Body.(*Unknown)
	if !ok {
		t.Fatalf("expected *Unknown body, got %T", got.Body)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(unknown.Data, want) {
		t.Errorf("data mismatch; expected % X, got % X", want, unknown.Data)
	}
}

func TestNewBlockRejectsReservedInvalidType(t *testing.T) {
	hdr := &Header{Type: 127, Length: 0, IsLast: true}
	buf := &bytes.Buffer{}
	if err := hdr.Encode(buf); err != nil {
		t.Fatalf("error encoding header: %v", err)
	}
	if _, err := NewBlock(buf); err == nil {
		t.Fatal("expected error for reserved invalid block type 127, got nil")
	}
}
