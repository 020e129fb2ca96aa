package meta

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/mewkiz/pkg/errutil"
)

// VorbisComment is a block of human-readable NAME=VALUE tags, borrowed
// unframed from the Vorbis comment specification. It is the only tagging
// mechanism FLAC natively supports; there is at most one per stream.
type VorbisComment struct {
	// Vendor identifies the encoder that produced the stream.
	Vendor string
	// Tags holds the ordered [name, value] entries.
	Tags [][2]string
}

func decodeVorbisComment(r io.Reader) (*VorbisComment, error) {
	vendor, err := readVorbisString(r)
	if err != nil {
		return nil, err
	}
	vc := &VorbisComment{Vendor: vendor}

	var nTags uint32
	if err := binary.Read(r, binary.LittleEndian, &nTags); err != nil {
		return nil, err
	}
	vc.Tags = make([][2]string, nTags)
	for i := range vc.Tags {
		entry, err := readVorbisString(r)
		if err != nil {
			return nil, err
		}
		pos := strings.IndexByte(entry, '=')
		if pos == -1 {
			return nil, errutil.Newf("meta.decodeVorbisComment: missing '=' in comment entry %q", entry)
		}
		vc.Tags[i] = [2]string{entry[:pos], entry[pos+1:]}
	}
	return vc, nil
}

func readVorbisString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Encode writes the little-endian vendor string and tag list of vc to w.
func (vc *VorbisComment) Encode(w io.Writer) error {
	if err := writeVorbisString(w, vc.Vendor); err != nil {
		return errutil.Err(err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vc.Tags))); err != nil {
		return errutil.Err(err)
	}
	for _, tag := range vc.Tags {
		if err := writeVorbisString(w, tag[0]+"="+tag[1]); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

func writeVorbisString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// len returns the encoded length, in bytes, of vc's body.
func (vc *VorbisComment) len() int64 {
	n := int64(4 + len(vc.Vendor) + 4)
	for _, tag := range vc.Tags {
		n += 4 + int64(len(tag[0])) + 1 + int64(len(tag[1]))
	}
	return n
}

// Get returns the value of the first tag named name (case-insensitive per
// the Vorbis comment convention), and whether it was found.
func (vc *VorbisComment) Get(name string) (string, bool) {
	for _, tag := range vc.Tags {
		if strings.EqualFold(tag[0], name) {
			return tag[1], true
		}
	}
	return "", false
}

// Set replaces every tag named name with a single NAME=value entry, or
// appends one if none existed.
func (vc *VorbisComment) Set(name, value string) {
	for i, tag := range vc.Tags {
		if strings.EqualFold(tag[0], name) {
			vc.Tags[i][1] = value
			vc.Tags = append(vc.Tags[:i+1], removeTagsNamed(vc.Tags[i+1:], name)...)
			return
		}
	}
	vc.Tags = append(vc.Tags, [2]string{name, value})
}

func removeTagsNamed(tags [][2]string, name string) [][2]string {
	out := tags[:0]
	for _, tag := range tags {
		if strings.EqualFold(tag[0], name) {
			continue
		}
		out = append(out, tag)
	}
	return out
}
