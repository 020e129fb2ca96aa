// Package meta implements access to FLAC metadata blocks: the mandatory
// stream-info block and the chain of optional blocks (padding, application,
// seek-table, vorbis-comment, cue-sheet, picture) that precede the audio
// frames of a FLAC stream.
package meta

import (
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// Type identifies the body of a metadata block.
type Type uint8

// Metadata block types.
const (
	TypeStreamInfo Type = iota
	TypePadding
	TypeApplication
	TypeSeekTable
	TypeVorbisComment
	TypeCueSheet
	TypePicture
	// typeInvalid is the reserved "invalid" block type (127), which a
	// conforming implementation must reject outright since it would be
	// mistaken for a frame sync code.
	typeInvalid Type = 127
)

func (t Type) String() string {
	m := [...]string{
		TypeStreamInfo:    "stream info",
		TypePadding:       "padding",
		TypeApplication:   "application",
		TypeSeekTable:     "seek table",
		TypeVorbisComment: "vorbis comment",
		TypeCueSheet:      "cue sheet",
		TypePicture:       "picture",
	}
	if int(t) < len(m) {
		return m[t]
	}
	return "unknown"
}

// Header describes a metadata block's type, length and position in the
// chain.
type Header struct {
	// IsLast is true if this is the last metadata block before the audio
	// frames.
	IsLast bool
	// Type identifies the block's body.
	Type Type
	// Length is the size of the block's body, in bytes.
	Length int64
}

// headerBits is the size, in bits, of a metadata block header.
const headerBits = 1 + 7 + 24

// decodeHeader parses a metadata block header from r.
func decodeHeader(r io.Reader) (*Header, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	x := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	hdr := &Header{
		IsLast: x&0x80000000 != 0,
		Type:   Type(x >> 24 & 0x7F),
		Length: int64(x & 0x00FFFFFF),
	}
	if hdr.Type >= 7 && hdr.Type <= 126 {
		// Reserved types are preserved verbatim: callers that walk raw
		// blocks (the simple iterator) skip their bodies, and NewBlock keeps
		// them as *Unknown.
		return hdr, nil
	}
	if hdr.Type == typeInvalid {
		return nil, errutil.Newf("meta.decodeHeader: invalid block type %d", hdr.Type)
	}
	return hdr, nil
}

// Encode writes the 32-bit big-endian encoding of hdr.
func (hdr *Header) Encode(w io.Writer) error {
	x := uint32(0)
	if hdr.IsLast {
		x |= 0x80000000
	}
	x |= uint32(hdr.Type&0x7F) << 24
	x |= uint32(hdr.Length) & 0x00FFFFFF
	buf := [4]byte{byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
	_, err := w.Write(buf[:])
	return err
}

// Block is a metadata block: a header and a type-specific body. Body is one
// of *StreamInfo, *Padding, *Application, *SeekTable, *VorbisComment,
// *CueSheet, *Picture, or *Unknown for a reserved block type preserved
// verbatim.
type Block struct {
	Header *Header
	Body   interface{}
}

// NewBlock parses and returns a new metadata block, reading from r.
func NewBlock(r io.Reader) (*Block, error) {
	hdr, err := decodeHeader(r)
	if err != nil {
		return nil, errutil.Err(err)
	}
	block := &Block{Header: hdr}
	lr := io.LimitReader(r, hdr.Length)
	switch hdr.Type {
	case TypeStreamInfo:
		block.Body, err = decodeStreamInfo(lr)
	case TypePadding:
		block.Body, err = decodePadding(lr, hdr.Length)
	case TypeApplication:
		block.Body, err = decodeApplication(lr, hdr.Length)
	case TypeSeekTable:
		block.Body, err = decodeSeekTable(lr, hdr.Length)
	case TypeVorbisComment:
		block.Body, err = decodeVorbisComment(lr)
	case TypeCueSheet:
		block.Body, err = decodeCueSheet(lr)
	case TypePicture:
		block.Body, err = decodePicture(lr)
	default:
		block.Body, err = decodeUnknown(lr, hdr.Length)
	}
	if err != nil {
		return nil, errutil.Err(err)
	}
	return block, nil
}

// Encode writes the header and body of block to w.
func (block *Block) Encode(w io.Writer) error {
	if err := block.Header.Encode(w); err != nil {
		return errutil.Err(err)
	}
	switch body := block.Body.(type) {
	case *StreamInfo:
		return body.Encode(w)
	case *Padding:
		return body.Encode(w)
	case *Application:
		return body.Encode(w)
	case *SeekTable:
		return body.Encode(w)
	case *VorbisComment:
		return body.Encode(w)
	case *CueSheet:
		return body.Encode(w)
	case *Picture:
		return body.Encode(w)
	case *Unknown:
		return body.Encode(w)
	default:
		return errutil.Newf("meta.Block.Encode: unsupported block body type %T", body)
	}
}

// Unknown holds the unparsed body of a reserved (7..126) metadata block
// type, preserved verbatim on round-trip per §3 ("unknown types are
// preserved verbatim").
type Unknown struct {
	Data []byte
}

func decodeUnknown(r io.Reader, length int64) (*Unknown, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return &Unknown{Data: buf}, nil
}

// Encode writes u's raw bytes to w.
func (u *Unknown) Encode(w io.Writer) error {
	_, err := w.Write(u.Data)
	return err
}

// Len returns the encoded length, in bytes, of block's body.
func (block *Block) Len() int64 {
	switch body := block.Body.(type) {
	case *StreamInfo:
		return streamInfoLen
	case *Padding:
		return int64(body.Length)
	case *Application:
		return 4 + int64(len(body.Data))
	case *SeekTable:
		return int64(len(body.Points)) * seekPointLen
	case *VorbisComment:
		return body.len()
	case *CueSheet:
		return body.len()
	case *Picture:
		return body.len()
	case *Unknown:
		return int64(len(body.Data))
	default:
		return 0
	}
}
