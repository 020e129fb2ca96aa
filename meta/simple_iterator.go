package meta

import (
	"io"
	"os"

	"github.com/mewkiz/pkg/errutil"
)

// ErrNotWritable is returned by SimpleIterator operations that attempt to
// modify a file opened read-only, or whose change does not fit in place.
var ErrNotWritable = errutil.New("meta: file not open for writing")

// simplePos records where a block's header begins on disk and the length of
// its body, so the iterator can seek back to rewrite it without touching
// neighboring blocks.
type simplePos struct {
	offset int64 // absolute offset of the block's 4-byte header
	hdr    *Header
}

// SimpleIterator is the level-1 metadata editing API: it walks the block
// chain of a file directly, one block at a time, writing each mutation back
// to disk immediately rather than buffering the whole chain in memory.
// Grounded on FLAC++'s SimpleIterator; every mutating method only succeeds
// in place when the new block's encoded size fits the space the old block
// (plus any immediately following padding it is allowed to consume)
// occupied — level-1 editing never moves the audio frames.
type SimpleIterator struct {
	f        *os.File
	writable bool
	blocks   []simplePos
	pos      int
}

// NewSimpleIterator opens path and reads its metadata block chain. When
// readOnly is false the file is opened for read-write access; if that open
// fails, NewSimpleIterator falls back to read-only and IsWritable reports
// false.
func NewSimpleIterator(path string, readOnly bool) (*SimpleIterator, error) {
	it := &SimpleIterator{}
	if !readOnly {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err == nil {
			it.f = f
			it.writable = true
		}
	}
	if it.f == nil {
		f, err := os.Open(path)
		if err != nil {
			return nil, errutil.Err(err)
		}
		it.f = f
		it.writable = false
	}
	if err := it.index(); err != nil {
		it.f.Close()
		return nil, err
	}
	it.pos = -1
	return it, nil
}

// Close releases the underlying file handle.
func (it *SimpleIterator) Close() error {
	return it.f.Close()
}

// IsWritable reports whether the iterator was able to open the file for
// read-write access.
func (it *SimpleIterator) IsWritable() bool {
	return it.writable
}

func (it *SimpleIterator) index() error {
	if _, err := it.f.Seek(4, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	for {
		offset, err := it.f.Seek(0, io.SeekCurrent)
		if err != nil {
			return errutil.Err(err)
		}
		hdr, err := decodeHeader(it.f)
		if err != nil {
			return errutil.Err(err)
		}
		it.blocks = append(it.blocks, simplePos{offset: offset, hdr: hdr})
		if _, err := it.f.Seek(hdr.Length, io.SeekCurrent); err != nil {
			return errutil.Err(err)
		}
		if hdr.IsLast {
			break
		}
	}
	return nil
}

// Next advances to the next block, reporting whether one existed.
func (it *SimpleIterator) Next() bool {
	if it.pos+1 >= len(it.blocks) {
		return false
	}
	it.pos++
	return true
}

// Prev moves to the previous block, reporting whether one existed.
func (it *SimpleIterator) Prev() bool {
	if it.pos <= 0 {
		return false
	}
	it.pos--
	return true
}

// BlockType returns the type of the block at the current position without
// decoding its body.
func (it *SimpleIterator) BlockType() Type {
	return it.blocks[it.pos].hdr.Type
}

// Block decodes and returns the block at the current position.
func (it *SimpleIterator) Block() (*Block, error) {
	p := it.blocks[it.pos]
	if _, err := it.f.Seek(p.offset, io.SeekStart); err != nil {
		return nil, errutil.Err(err)
	}
	return NewBlock(it.f)
}

// SetBlock overwrites the block at the current position with block. When
// usePadding is true and block's new encoded length is smaller than the old
// block's, the slack is absorbed into a trailing padding block in the same
// space; the write fails with ErrNotWritable if the new block is larger
// than the space available (old block plus any immediately following
// padding block) and it does not fit even after consuming that padding.
func (it *SimpleIterator) SetBlock(block *Block, usePadding bool) error {
	if !it.writable {
		return ErrNotWritable
	}
	p := it.blocks[it.pos]
	oldBodyLen := p.hdr.Length
	avail := oldBodyLen
	consumedNext := false
	if usePadding && it.pos+1 < len(it.blocks) && it.blocks[it.pos+1].hdr.Type == TypePadding {
		avail += headerBits/8 + it.blocks[it.pos+1].hdr.Length
		consumedNext = true
	}

	newLen := block.Len()
	var toWrite []*Block
	if newLen <= avail {
		if usePadding && newLen < avail {
			padLen := avail - newLen - headerBits/8
			if padLen >= 0 {
				toWrite = []*Block{block, {
					Header: &Header{Type: TypePadding, Length: padLen},
					Body:   &Padding{Length: padLen},
				}}
			} else {
				toWrite = []*Block{block}
			}
		} else {
			toWrite = []*Block{block}
		}
	} else {
		return ErrNotWritable
	}

	isLastOrig := p.hdr.IsLast
	if consumedNext {
		isLastOrig = it.blocks[it.pos+1].hdr.IsLast
	}
	toWrite[len(toWrite)-1].Header.IsLast = isLastOrig
	if len(toWrite) > 1 {
		toWrite[0].Header.IsLast = false
	}

	if _, err := it.f.Seek(p.offset, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	for _, b := range toWrite {
		b.Header.Length = b.Len()
		if err := b.Encode(it.f); err != nil {
			return errutil.Err(err)
		}
	}
	return it.index0()
}

// index0 re-reads the block index after an in-place mutation.
func (it *SimpleIterator) index0() error {
	savedPos := it.pos
	it.blocks = it.blocks[:0]
	if err := it.index(); err != nil {
		return err
	}
	if savedPos >= len(it.blocks) {
		savedPos = len(it.blocks) - 1
	}
	it.pos = savedPos
	return nil
}

// InsertBlockAfter inserts block immediately after the current position by
// consuming a following padding block's space; it fails with ErrNotWritable
// if there is no following padding block large enough.
func (it *SimpleIterator) InsertBlockAfter(block *Block) error {
	if !it.writable {
		return ErrNotWritable
	}
	if it.pos+1 >= len(it.blocks) || it.blocks[it.pos+1].hdr.Type != TypePadding {
		return ErrNotWritable
	}
	padPos := it.blocks[it.pos+1]
	avail := headerBits/8 + padPos.hdr.Length
	newLen := headerBits/8 + block.Len()
	if newLen > avail {
		return ErrNotWritable
	}
	remaining := avail - newLen
	isLast := padPos.hdr.IsLast

	toWrite := []*Block{block}
	if remaining > 0 {
		padLen := remaining - headerBits/8
		if padLen >= 0 {
			toWrite = append(toWrite, &Block{
				Header: &Header{Type: TypePadding, Length: padLen},
				Body:   &Padding{Length: padLen},
			})
		}
	}
	toWrite[len(toWrite)-1].Header.IsLast = isLast
	if len(toWrite) > 1 {
		toWrite[0].Header.IsLast = false
	}

	if _, err := it.f.Seek(padPos.offset, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	for _, b := range toWrite {
		b.Header.Length = b.Len()
		if err := b.Encode(it.f); err != nil {
			return errutil.Err(err)
		}
	}
	it.pos++
	return it.index0()
}

// DeleteBlock removes the block at the current position by converting its
// space into a padding block of the same size. Only usePadding == true is
// supported; with false it returns ErrNotWritable. The StreamInfo block may
// not be deleted.
func (it *SimpleIterator) DeleteBlock(usePadding bool) error {
	if !it.writable {
		return ErrNotWritable
	}
	p := it.blocks[it.pos]
	if p.hdr.Type == TypeStreamInfo {
		return errutil.New("meta.SimpleIterator.DeleteBlock: cannot delete the StreamInfo block")
	}
	if !usePadding {
		return ErrNotWritable
	}
	pad := &Block{
		Header: &Header{Type: TypePadding, Length: p.hdr.Length, IsLast: p.hdr.IsLast},
		Body:   &Padding{Length: p.hdr.Length},
	}
	if _, err := it.f.Seek(p.offset, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	if err := pad.Encode(it.f); err != nil {
		return errutil.Err(err)
	}
	return it.index0()
}
