package meta

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// writeTestStream builds a minimal on-disk FLAC file: magic, a StreamInfo
// block, a VorbisComment block and a trailing padding block, followed by
// arbitrary "audio frame" bytes that must survive every chain mutation
// untouched.
func writeTestStream(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "test.flac")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("error creating test file: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteString(streamMagic); err != nil {
		t.Fatalf("error writing magic: %v", err)
	}
	blocks := []*Block{
		{
			Header: &Header{Type: TypeStreamInfo},
			Body:   &StreamInfo{BlockSizeMin: 4096, BlockSizeMax: 4096, SampleRate: 44100, NChannels: 2, BitsPerSample: 16, NSamples: 1000},
		},
		{
			Header: &Header{Type: TypeVorbisComment},
			Body:   &VorbisComment{Vendor: "goflac", Tags: [][2]string{{"TITLE", "x"}}},
		},
		{
			Header: &Header{Type: TypePadding},
			Body:   &Padding{Length: 64},
		},
	}
	if err := encodeBlocks(f, blocks); err != nil {
		t.Fatalf("error encoding blocks: %v", err)
	}
	if _, err := f.Write(bytes.Repeat([]byte{0xAA}, 128)); err != nil {
		t.Fatalf("error writing fake frame data: %v", err)
	}
	return path
}

func TestChainReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeTestStream(t, dir)

	c := NewChain()
	if err := c.Read(path); err != nil {
		t.Fatalf("error reading chain: %v", err)
	}
	if len(c.Blocks()) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(c.Blocks()))
	}
	if _, ok := c.Blocks()[0].Body.(*StreamInfo); !ok {
		t.Fatalf("expected first block to be StreamInfo, got %T", c.Blocks()[0].Body)
	}

	it := NewIterator(c)
	for it.Next() {
		if vc, ok := it.Block().Body.(*VorbisComment); ok {
			vc.Set("ARTIST", "Someone")
			if err := it.SetBlock(&Block{Header: &Header{Type: TypeVorbisComment}, Body: vc}); err != nil {
				t.Fatalf("error setting block: %v", err)
			}
		}
	}

	if err := c.Write(true, false); err != nil {
		t.Fatalf("error writing chain: %v", err)
	}

	c2 := NewChain()
	if err := c2.Read(path); err != nil {
		t.Fatalf("error re-reading chain: %v", err)
	}
	var found bool
	for _, block := range c2.Blocks() {
		if vc, ok := block.Body.(*VorbisComment); ok {
			found = true
			if v, _ := vc.Get("ARTIST"); v != "Someone" {
				t.Errorf("expected ARTIST=Someone after round-trip, got %q", v)
			}
		}
	}
	if !found {
		t.Fatal("expected a VorbisComment block to survive the round-trip")
	}

	// The audio frame bytes beyond the metadata chain must be untouched.
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("error reopening file: %v", err)
	}
	defer f.Close()
	c3 := NewChain()
	if err := c3.read(f); err != nil {
		t.Fatalf("error reading chain for frame check: %v", err)
	}
	rest := make([]byte, 128)
	if _, err := f.Read(rest); err != nil {
		t.Fatalf("error reading frame bytes: %v", err)
	}
	if !bytes.Equal(rest, bytes.Repeat([]byte{0xAA}, 128)) {
		t.Fatal("audio frame bytes were corrupted by chain write")
	}
}

func TestChainValidateRejectsMissingStreamInfo(t *testing.T) {
	c := NewChain()
	c.blocks = []*Block{
		{Header: &Header{Type: TypePadding}, Body: &Padding{Length: 4}},
	}
	if err := c.validate(); err == nil {
		t.Fatal("expected error for a chain without a leading StreamInfo block, got nil")
	}
}

func TestChainMergePadding(t *testing.T) {
	c := NewChain()
	c.blocks = []*Block{
		{Header: &Header{Type: TypeStreamInfo}, Body: &StreamInfo{BlockSizeMin: 4096, BlockSizeMax: 4096, SampleRate: 44100, NChannels: 2, BitsPerSample: 16}},
		{Header: &Header{Type: TypePadding}, Body: &Padding{Length: 10}},
		{Header: &Header{Type: TypePadding}, Body: &Padding{Length: 20}},
		{Header: &Header{Type: TypeVorbisComment}, Body: &VorbisComment{Vendor: "x"}},
	}
	c.MergePadding()
	if len(c.blocks) != 3 {
		t.Fatalf("expected 3 blocks after merging two padding blocks, got %d", len(c.blocks))
	}
	pad, ok := c.blocks[1].Body.(*Padding)
	if !ok {
		t.Fatalf("expected merged block to be padding, got %T", c.blocks[1].Body)
	}
	if want := int64(10 + headerBits/8 + 20); pad.Length != want {
		t.Errorf("expected merged padding length %d, got %d", want, pad.Length)
	}
}

func TestSimpleIteratorSetBlock(t *testing.T) {
	dir := t.TempDir()
	path := writeTestStream(t, dir)

	it, err := NewSimpleIterator(path, false)
	if err != nil {
		t.Fatalf("error opening simple iterator: %v", err)
	}
	defer it.Close()
	if !it.IsWritable() {
		t.Fatal("expected iterator to be writable")
	}

	var foundPadding bool
	for it.Next() {
		if it.BlockType() == TypePadding {
			foundPadding = true
			break
		}
	}
	if !foundPadding {
		t.Fatal("expected to find the padding block")
	}

	smaller := &Block{Header: &Header{Type: TypePadding}, Body: &Padding{Length: 16}}
	if err := it.SetBlock(smaller, true); err != nil {
		t.Fatalf("error shrinking padding block in place: %v", err)
	}

	it2, err := NewSimpleIterator(path, true)
	if err != nil {
		t.Fatalf("error reopening simple iterator: %v", err)
	}
	defer it2.Close()
	var sawShrunkPadding bool
	for it2.Next() {
		block, err := it2.Block()
		if err != nil {
			t.Fatalf("error reading block: %v", err)
		}
		if pad, ok := block.Body.(*Padding); ok && pad.Length == 16 {
			sawShrunkPadding = true
		}
	}
	if !sawShrunkPadding {
		t.Fatal("expected the shrunk padding block to be readable after SetBlock")
	}
}
