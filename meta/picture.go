package meta

import (
	"encoding/binary"
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// PictureType identifies the visual content of a Picture block, following
// the ID3v2 APIC frame's picture type enumeration.
type PictureType uint32

// Picture types.
const (
	PictureOther PictureType = iota
	PictureFileIconStandard
	PictureFileIconOther
	PictureFrontCover
	PictureBackCover
	PictureLeafletPage
	PictureMedia
	PictureLeadArtist
	PictureArtist
	PictureConductor
	PictureBand
	PictureComposer
	PictureLyricist
	PictureRecordingLocation
	PictureDuringRecording
	PictureDuringPerformance
	PictureVideoScreenCapture
	PictureFish
	PictureIllustration
	PictureBandLogotype
	PicturePublisherLogotype
)

func (t PictureType) String() string {
	m := [...]string{
		PictureOther:              "other",
		PictureFileIconStandard:   "32x32 file icon",
		PictureFileIconOther:      "other file icon",
		PictureFrontCover:         "front cover",
		PictureBackCover:          "back cover",
		PictureLeafletPage:        "leaflet page",
		PictureMedia:              "media",
		PictureLeadArtist:         "lead artist",
		PictureArtist:             "artist",
		PictureConductor:          "conductor",
		PictureBand:               "band",
		PictureComposer:           "composer",
		PictureLyricist:           "lyricist",
		PictureRecordingLocation:  "recording location",
		PictureDuringRecording:    "during recording",
		PictureDuringPerformance:  "during performance",
		PictureVideoScreenCapture: "video screen capture",
		PictureFish:               "fish",
		PictureIllustration:       "illustration",
		PictureBandLogotype:       "band logotype",
		PicturePublisherLogotype:  "publisher logotype",
	}
	if int(t) < len(m) {
		return m[t]
	}
	return "unknown"
}

// Picture is a block embedding linked or binary picture data, such as cover
// art. A stream may contain more than one.
type Picture struct {
	// Type describes the picture's visual content.
	Type PictureType
	// MIME is the MIME type of Data, or "-->" if Data is a URI.
	MIME string
	// Desc is a description of the picture, in UTF-8.
	Desc string
	// Width in pixels.
	Width uint32
	// Height in pixels.
	Height uint32
	// Depth is the color depth, in bits per pixel.
	Depth uint32
	// NPalColors is the number of colors used for indexed-color pictures, or
	// 0 for non-indexed pictures.
	NPalColors uint32
	// Data is the binary picture data, or a URI string if MIME is "-->".
	Data []byte
}

func decodePicture(r io.Reader) (*Picture, error) {
	pic := &Picture{}

	var typ uint32
	if err := binary.Read(r, binary.BigEndian, &typ); err != nil {
		return nil, err
	}
	pic.Type = PictureType(typ)
	if pic.Type > PicturePublisherLogotype {
		return nil, errutil.Newf("meta.decodePicture: invalid picture type %d", pic.Type)
	}

	mime, err := readLenPrefixedBE(r)
	if err != nil {
		return nil, err
	}
	pic.MIME = string(mime)
	for _, b := range mime {
		if b < 0x20 || b > 0x7E {
			return nil, errutil.New("meta.decodePicture: MIME type must be ASCII printable")
		}
	}

	desc, err := readLenPrefixedBE(r)
	if err != nil {
		return nil, err
	}
	pic.Desc = string(desc)

	var dims [4]uint32
	for i := range dims {
		if err := binary.Read(r, binary.BigEndian, &dims[i]); err != nil {
			return nil, err
		}
	}
	pic.Width, pic.Height, pic.Depth, pic.NPalColors = dims[0], dims[1], dims[2], dims[3]

	data, err := readLenPrefixedBE(r)
	if err != nil {
		return nil, err
	}
	pic.Data = data
	return pic, nil
}

func readLenPrefixedBE(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Encode writes the big-endian body of pic to w.
func (pic *Picture) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, uint32(pic.Type)); err != nil {
		return errutil.Err(err)
	}
	if err := writeLenPrefixedBE(w, []byte(pic.MIME)); err != nil {
		return errutil.Err(err)
	}
	if err := writeLenPrefixedBE(w, []byte(pic.Desc)); err != nil {
		return errutil.Err(err)
	}
	dims := [4]uint32{pic.Width, pic.Height, pic.Depth, pic.NPalColors}
	for _, d := range dims {
		if err := binary.Write(w, binary.BigEndian, d); err != nil {
			return errutil.Err(err)
		}
	}
	if err := writeLenPrefixedBE(w, pic.Data); err != nil {
		return errutil.Err(err)
	}
	return nil
}

func writeLenPrefixedBE(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// len returns the encoded length, in bytes, of pic's body.
func (pic *Picture) len() int64 {
	return 4 + 4 + int64(len(pic.MIME)) + 4 + int64(len(pic.Desc)) + 4*4 + 4 + int64(len(pic.Data))
}
