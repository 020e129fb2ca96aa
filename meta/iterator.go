package meta

import "github.com/mewkiz/pkg/errutil"

// Iterator walks and mutates the blocks of a Chain in place. Grounded on
// FLAC++'s Iterator, which is always constructed against an already-read
// Chain and positioned before the first block.
type Iterator struct {
	chain *Chain
	pos   int
}

// NewIterator returns an Iterator positioned before the first block of
// chain.
func NewIterator(chain *Chain) *Iterator {
	return &Iterator{chain: chain, pos: -1}
}

// Next advances the iterator to the next block, reporting whether one
// existed.
func (it *Iterator) Next() bool {
	if it.pos+1 >= len(it.chain.blocks) {
		return false
	}
	it.pos++
	return true
}

// Prev moves the iterator to the previous block, reporting whether one
// existed.
func (it *Iterator) Prev() bool {
	if it.pos <= 0 {
		return false
	}
	it.pos--
	return true
}

// Block returns the block at the iterator's current position, or nil if
// the iterator has not been advanced onto a valid position.
func (it *Iterator) Block() *Block {
	if it.pos < 0 || it.pos >= len(it.chain.blocks) {
		return nil
	}
	return it.chain.blocks[it.pos]
}

// SetBlock replaces the block at the current position with block, which
// the chain now owns. Replacing the StreamInfo block (position 0) with a
// block of another type is rejected, since every chain must keep exactly
// one.
func (it *Iterator) SetBlock(block *Block) error {
	cur := it.Block()
	if cur == nil {
		return errutil.New("meta.Iterator.SetBlock: iterator is not positioned on a block")
	}
	if _, ok := cur.Body.(*StreamInfo); ok {
		if _, ok := block.Body.(*StreamInfo); !ok {
			return errutil.New("meta.Iterator.SetBlock: cannot replace the StreamInfo block with a different type")
		}
	}
	it.chain.blocks[it.pos] = block
	return nil
}

// InsertBlockBefore inserts block, which the chain now owns, before the
// iterator's current position. The iterator comes to rest on the newly
// inserted block.
func (it *Iterator) InsertBlockBefore(block *Block) error {
	if it.pos < 0 {
		return errutil.New("meta.Iterator.InsertBlockBefore: iterator is not positioned on a block")
	}
	if _, ok := block.Body.(*StreamInfo); ok {
		return errutil.New("meta.Iterator.InsertBlockBefore: cannot insert a second StreamInfo block")
	}
	it.chain.blocks = append(it.chain.blocks, nil)
	copy(it.chain.blocks[it.pos+1:], it.chain.blocks[it.pos:])
	it.chain.blocks[it.pos] = block
	return nil
}

// InsertBlockAfter inserts block, which the chain now owns, after the
// iterator's current position. The iterator comes to rest on the newly
// inserted block.
func (it *Iterator) InsertBlockAfter(block *Block) error {
	if it.pos < 0 {
		return errutil.New("meta.Iterator.InsertBlockAfter: iterator is not positioned on a block")
	}
	if _, ok := block.Body.(*StreamInfo); ok {
		return errutil.New("meta.Iterator.InsertBlockAfter: cannot insert a second StreamInfo block")
	}
	pos := it.pos + 1
	it.chain.blocks = append(it.chain.blocks, nil)
	copy(it.chain.blocks[pos+1:], it.chain.blocks[pos:])
	it.chain.blocks[pos] = block
	it.pos = pos
	return nil
}

// DeleteBlock removes the block at the current position. If replaceWithPadding
// is true the block is replaced with a padding block of the same encoded
// length rather than removed outright, keeping the chain's remaining blocks
// at their old file offsets for a cheap in-place Write. Deleting the
// StreamInfo block is rejected.
func (it *Iterator) DeleteBlock(replaceWithPadding bool) error {
	cur := it.Block()
	if cur == nil {
		return errutil.New("meta.Iterator.DeleteBlock: iterator is not positioned on a block")
	}
	if _, ok := cur.Body.(*StreamInfo); ok {
		return errutil.New("meta.Iterator.DeleteBlock: cannot delete the StreamInfo block")
	}
	if replaceWithPadding {
		n := cur.Len()
		it.chain.blocks[it.pos] = &Block{
			Header: &Header{Type: TypePadding, Length: n},
			Body:   &Padding{Length: n},
		}
		return nil
	}
	it.chain.blocks = append(it.chain.blocks[:it.pos], it.chain.blocks[it.pos+1:]...)
	if it.pos >= len(it.chain.blocks) {
		it.pos = len(it.chain.blocks) - 1
	}
	return nil
}
