package flac

import (
	"bytes"
	"crypto/md5"
	"hash"
	"io"

	"github.com/mewkiz/goflac/frame"
	"github.com/mewkiz/goflac/meta"
	"github.com/pkg/errors"
)

// Encoder writes a FLAC stream: a metadata block chain followed by audio
// frames, one WriteSamples call per block. It implements §4.8's one-way
// init (every Option is applied by NewEncoder; there is no later
// SetOption), always accumulates a running MD5 signature, and finalizes
// stream-info, frame-size bounds and any reserved seek table on Close if
// the sink is seekable.
type Encoder struct {
	w  io.Writer
	ws io.WriteSeeker // non-nil when w also supports Seek

	nChannels     uint8
	bitsPerSample uint8
	sampleRate    uint32

	blockSize            int
	totalSamplesEstimate uint64

	verify           bool
	streamableSubset bool
	doMidSide        bool
	looseMidSide     bool

	maxLPCOrder       int
	qlpcPrecision     int
	doQLPCPrecSearch  bool
	doExhaustive      bool
	windows           []frame.Window
	minResidualPOrder int
	maxResidualPOrder int

	metadata []*meta.Block

	// Info is the final StreamInfo, populated by Close. When the sink is
	// not seekable it cannot be rewritten into the stream itself, and this
	// is the only way a caller learns the final sample count and MD5sum.
	Info *meta.StreamInfo

	streamInfoOffset int64
	seekTableOffset  int64 // -1 if no seek table was reserved
	seekPoints       []meta.SeekPoint
	nextSeekPoint    int

	md5sum        hash.Hash
	frameNum      uint64
	framesBytes   int64
	samplesWritten uint64
	blockSizeMin  uint16
	blockSizeMax  uint16
	frameSizeMin  uint32
	frameSizeMax  uint32

	closed bool
}

// Option configures an Encoder at construction time.
type Option func(*Encoder)

// WithChannels sets the stream's channel count (1-8). Required.
func WithChannels(n int) Option { return func(e *Encoder) { e.nChannels = uint8(n) } }

// WithBitsPerSample sets the stream's sample width (4-32 bits). Required.
func WithBitsPerSample(n int) Option { return func(e *Encoder) { e.bitsPerSample = uint8(n) } }

// WithSampleRate sets the stream's sample rate in Hz (1-655350). Required.
func WithSampleRate(n int) Option { return func(e *Encoder) { e.sampleRate = uint32(n) } }

// WithTotalSamplesEstimate gives the encoder an expected total sample
// count, used only to size a reserved seek table; it is not written to
// StreamInfo.NSamples, which Close always computes from the samples
// actually written.
func WithTotalSamplesEstimate(n uint64) Option {
	return func(e *Encoder) { e.totalSamplesEstimate = n }
}

// WithBlockSize sets the fixed number of samples per block; 0 (the
// default after this option is omitted) selects 4096.
func WithBlockSize(n int) Option { return func(e *Encoder) { e.blockSize = n } }

// WithVerify tees every encoded frame through a nested decoder and
// compares its reconstructed samples against the originals, returning a
// KindVerify Error on the first mismatch.
func WithVerify(enabled bool) Option { return func(e *Encoder) { e.verify = enabled } }

// WithStreamableSubset rejects, at construction time and per frame,
// configurations and block sizes outside the published streamable subset
// (see frame.IsSubset).
func WithStreamableSubset(enabled bool) Option {
	return func(e *Encoder) { e.streamableSubset = enabled }
}

// WithMidSideStereo enables joint-stereo encoding for 2-channel streams.
// When loose is true, the encoder picks left/right vs. mid/side with a
// cheap sum-of-magnitudes estimator instead of building and costing all
// four candidate subframe pairs.
func WithMidSideStereo(enabled, loose bool) Option {
	return func(e *Encoder) { e.doMidSide = enabled; e.looseMidSide = loose }
}

// WithApodization sets the ordered list of windows the LPC analysis tries
// per block, keeping whichever is cheapest. Omitted or empty selects a
// single Welch window.
func WithApodization(windows ...frame.Window) Option {
	return func(e *Encoder) { e.windows = windows }
}

// WithMaxLPCOrder caps the LPC order considered; 0 disables LPC (fixed
// predictors only).
func WithMaxLPCOrder(order int) Option { return func(e *Encoder) { e.maxLPCOrder = order } }

// WithQLPCPrecision sets the quantized LPC coefficient precision in bits.
// search (do_qlp_coeff_prec_search) is recorded but does not change the
// analysis: every LPC subframe is quantized at precision only; no other
// precision is tried.
func WithQLPCPrecision(precision int, search bool) Option {
	return func(e *Encoder) { e.qlpcPrecision = precision; e.doQLPCPrecSearch = search }
}

// WithExhaustiveModelSearch records do_exhaustive_model_search. It does
// not change the analysis, enabled or not: the Go encoder's bestLPCOrder
// always costs every LPC order up to the configured maximum, and every
// apodization window given to WithApodization is always tried.
func WithExhaustiveModelSearch(enabled bool) Option {
	return func(e *Encoder) { e.doExhaustive = enabled }
}

// WithResidualPartitionOrder sets the search range for Rice partition
// order. The Go residual coder (frame.buildRiceSubframe) always searches
// the full legal range for the block size and predictor order and keeps
// the cheapest, so min and max are recorded for introspection but do not
// currently narrow that search.
func WithResidualPartitionOrder(min, max int) Option {
	return func(e *Encoder) { e.minResidualPOrder = min; e.maxResidualPOrder = max }
}

// WithMetadata appends blocks to be written between StreamInfo and the
// first audio frame, in order. The StreamInfo block itself is managed by
// the Encoder and must not be included.
func WithMetadata(blocks ...*meta.Block) Option {
	return func(e *Encoder) { e.metadata = append(e.metadata, blocks...) }
}

// NewEncoder applies opts, validates the resulting configuration, and
// writes the stream's magic, placeholder StreamInfo, metadata blocks and
// (if w is also an io.WriteSeeker and WithTotalSamplesEstimate was given)
// a reserved seek table. Fields that still depend on the audio actually
// written (StreamInfo.NSamples, MD5sum, frame-size bounds, seek-point
// offsets) are filled in by Close if w is seekable.
func NewEncoder(w io.Writer, opts ...Option) (*Encoder, error) {
	e := &Encoder{
		w:               w,
		blockSize:       4096,
		maxLPCOrder:     8,
		qlpcPrecision:   14,
		seekTableOffset: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.blockSize <= 0 {
		e.blockSize = 4096
	}

	if e.nChannels < 1 || e.nChannels > 8 {
		return nil, wrapErr("flac.NewEncoder", KindUnsupported, errors.Errorf("invalid channel count %d", e.nChannels))
	}
	if e.bitsPerSample < 4 || e.bitsPerSample > 32 {
		return nil, wrapErr("flac.NewEncoder", KindUnsupported, errors.Errorf("invalid bits-per-sample %d", e.bitsPerSample))
	}
	if e.sampleRate == 0 || e.sampleRate > 655350 {
		return nil, wrapErr("flac.NewEncoder", KindUnsupported, errors.Errorf("invalid sample rate %d", e.sampleRate))
	}
	if e.streamableSubset {
		probe := &frame.Header{BlockSize: uint16(e.blockSize), SampleRate: e.sampleRate, BitsPerSample: e.bitsPerSample}
		if !frame.IsSubset(probe, e.maxLPCOrder) {
			return nil, wrapErr("flac.NewEncoder", KindUnsupported, errors.New("configuration violates streamable subset"))
		}
	}

	if _, err := w.Write([]byte(flacMagic)); err != nil {
		return nil, wrapErr("flac.NewEncoder", KindIO, errors.WithStack(err))
	}

	hasSeekTable := false
	if ws, ok := w.(io.WriteSeeker); ok {
		e.ws = ws
		hasSeekTable = e.totalSamplesEstimate > 0
	}

	si := &meta.StreamInfo{
		SampleRate:    e.sampleRate,
		NChannels:     e.nChannels,
		BitsPerSample: e.bitsPerSample,
		BlockSizeMin:  uint16(e.blockSize),
		BlockSizeMax:  uint16(e.blockSize),
	}
	siHdr := &meta.Header{IsLast: len(e.metadata) == 0 && !hasSeekTable, Type: meta.TypeStreamInfo, Length: 34}
	if err := siHdr.Encode(w); err != nil {
		return nil, wrapErr("flac.NewEncoder", KindIO, errors.WithStack(err))
	}
	// si.Encode below writes only the 34-byte StreamInfo body, so the offset
	// Close later seeks back to must land after the 4-byte block header, not
	// at it.
	e.streamInfoOffset = 4 + 4
	if err := si.Encode(w); err != nil {
		return nil, wrapErr("flac.NewEncoder", KindIO, errors.WithStack(err))
	}

	for i, block := range e.metadata {
		block.Header.IsLast = i == len(e.metadata)-1 && !hasSeekTable
		block.Header.Length = block.Len()
		if err := block.Encode(w); err != nil {
			return nil, wrapErr("flac.NewEncoder", KindIO, errors.WithStack(err))
		}
	}

	if hasSeekTable {
		npoints := int(e.totalSamplesEstimate/uint64(e.blockSize)) + 1
		if npoints > 100 {
			npoints = 100
		}
		e.seekPoints = make([]meta.SeekPoint, npoints)
		for i := range e.seekPoints {
			e.seekPoints[i] = meta.SeekPoint{SampleNum: meta.PlaceholderPoint}
		}
		pos, err := e.ws.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, wrapErr("flac.NewEncoder", KindIO, errors.WithStack(err))
		}
		e.seekTableOffset = pos
		stHdr := &meta.Header{IsLast: true, Type: meta.TypeSeekTable, Length: int64(npoints) * 18}
		if err := stHdr.Encode(w); err != nil {
			return nil, wrapErr("flac.NewEncoder", KindIO, errors.WithStack(err))
		}
		st := &meta.SeekTable{Points: e.seekPoints}
		if err := st.Encode(w); err != nil {
			return nil, wrapErr("flac.NewEncoder", KindIO, errors.WithStack(err))
		}
	}

	e.md5sum = md5.New()
	return e, nil
}

// WriteSamples encodes one block of inter-channel audio, one slice per
// channel, all the same length (at most the configured block size). The
// final, possibly shorter, block of a stream is written the same way.
func (e *Encoder) WriteSamples(samples [][]int32) error {
	if e.closed {
		return wrapErr("Encoder.WriteSamples", KindIO, errors.New("encoder is closed"))
	}
	if len(samples) != int(e.nChannels) {
		return wrapErr("Encoder.WriteSamples", KindUnsupported, errors.Errorf("expected %d channels, got %d", e.nChannels, len(samples)))
	}
	n := len(samples[0])
	if n == 0 {
		return nil
	}
	for _, ch := range samples {
		if len(ch) != n {
			return wrapErr("Encoder.WriteSamples", KindUnsupported, errors.New("channels have mismatched sample counts"))
		}
	}

	channels, subframes := e.chooseChannels(samples)

	hdr := &frame.Header{
		HasFixedBlockSize: true,
		BlockSize:         uint16(n),
		SampleRate:        e.sampleRate,
		Channels:          channels,
		BitsPerSample:     e.bitsPerSample,
		Num:               e.frameNum,
	}
	if e.streamableSubset && !frame.IsSubset(hdr, maxSubframeOrder(subframes)) {
		return wrapErr("Encoder.WriteSamples", KindUnsupported, errors.Errorf("frame %d violates streamable subset", e.frameNum))
	}

	frm := &frame.Frame{Header: hdr, Subframes: subframes}
	var buf bytes.Buffer
	if err := frm.Encode(&buf); err != nil {
		return wrapErr("Encoder.WriteSamples", KindSyntax, err)
	}

	if e.verify {
		if err := e.verifyFrame(buf.Bytes(), samples); err != nil {
			return err
		}
	}

	if e.nextSeekPoint < len(e.seekPoints) {
		e.seekPoints[e.nextSeekPoint] = meta.SeekPoint{
			SampleNum: e.samplesWritten,
			Offset:    uint64(e.framesBytes),
			NSamples:  uint16(n),
		}
		e.nextSeekPoint++
	}

	if _, err := e.w.Write(buf.Bytes()); err != nil {
		return wrapErr("Encoder.WriteSamples", KindIO, errors.WithStack(err))
	}
	writeSamplesHash(e.md5sum, samples, e.bitsPerSample)

	sz := buf.Len()
	if e.frameSizeMin == 0 || uint32(sz) < e.frameSizeMin {
		e.frameSizeMin = uint32(sz)
	}
	if uint32(sz) > e.frameSizeMax {
		e.frameSizeMax = uint32(sz)
	}
	if e.blockSizeMin == 0 || uint16(n) < e.blockSizeMin {
		e.blockSizeMin = uint16(n)
	}
	if uint16(n) > e.blockSizeMax {
		e.blockSizeMax = uint16(n)
	}

	e.framesBytes += int64(sz)
	e.samplesWritten += uint64(n)
	e.frameNum++
	return nil
}

// chooseChannels builds the cheapest subframe pair for a 2-channel block
// when mid-side stereo is enabled, otherwise one subframe per channel in
// the given order.
func (e *Encoder) chooseChannels(samples [][]int32) (frame.Channels, []*frame.Subframe) {
	opts := frame.EncodeOptions{MaxLPCOrder: e.maxLPCOrder, QLPCPrecision: e.qlpcPrecision, Windows: e.windows}

	if len(samples) != 2 || !e.doMidSide {
		subframes := make([]*frame.Subframe, len(samples))
		for ch, s := range samples {
			subframes[ch] = frame.NewSubframe(s, uint(e.bitsPerSample), opts)
		}
		return defaultChannelAssignment(len(samples)), subframes
	}

	left, right := samples[0], samples[1]
	n := len(left)
	mid := make([]int32, n)
	side := make([]int32, n)
	for i := range left {
		mid[i] = (left[i] + right[i]) >> 1
		side[i] = left[i] - right[i]
	}

	if e.looseMidSide {
		var sumSide, sumLR uint64
		for i := range left {
			sumSide += uint64(abs32(side[i]))
			sumLR += uint64(abs32(left[i])) + uint64(abs32(right[i]))
		}
		if sumSide*2 < sumLR {
			sfMid := frame.NewSubframe(mid, uint(e.bitsPerSample), opts)
			sfSide := frame.NewSubframe(side, uint(e.bitsPerSample)+1, opts)
			return frame.ChannelsMidSide, []*frame.Subframe{sfMid, sfSide}
		}
		sfLeft := frame.NewSubframe(left, uint(e.bitsPerSample), opts)
		sfRight := frame.NewSubframe(right, uint(e.bitsPerSample), opts)
		return frame.ChannelsLR, []*frame.Subframe{sfLeft, sfRight}
	}

	sfLeft := frame.NewSubframe(left, uint(e.bitsPerSample), opts)
	sfRight := frame.NewSubframe(right, uint(e.bitsPerSample), opts)
	sfMid := frame.NewSubframe(mid, uint(e.bitsPerSample), opts)
	sfSide := frame.NewSubframe(side, uint(e.bitsPerSample)+1, opts)

	bitsLeft := frame.EstimateBits(sfLeft, uint(e.bitsPerSample))
	bitsRight := frame.EstimateBits(sfRight, uint(e.bitsPerSample))
	bitsMid := frame.EstimateBits(sfMid, uint(e.bitsPerSample))
	bitsSide := frame.EstimateBits(sfSide, uint(e.bitsPerSample)+1)

	type candidate struct {
		channels frame.Channels
		bits     int
		subs     []*frame.Subframe
	}
	candidates := []candidate{
		{frame.ChannelsLR, bitsLeft + bitsRight, []*frame.Subframe{sfLeft, sfRight}},
		{frame.ChannelsLeftSide, bitsLeft + bitsSide, []*frame.Subframe{sfLeft, sfSide}},
		{frame.ChannelsSideRight, bitsSide + bitsRight, []*frame.Subframe{sfSide, sfRight}},
		{frame.ChannelsMidSide, bitsMid + bitsSide, []*frame.Subframe{sfMid, sfSide}},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.bits < best.bits {
			best = c
		}
	}
	return best.channels, best.subs
}

func defaultChannelAssignment(n int) frame.Channels {
	switch n {
	case 1:
		return frame.ChannelsMono
	case 2:
		return frame.ChannelsLR
	case 3:
		return frame.ChannelsLRC
	case 4:
		return frame.ChannelsLRLsRs
	case 5:
		return frame.ChannelsLRCLsRs
	case 6:
		return frame.ChannelsLRCLfeLsRs
	case 7:
		return frame.ChannelsLRCLfeCsSlSr
	default:
		return frame.ChannelsLRCLfeLsRsSlSr
	}
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

func maxSubframeOrder(subframes []*frame.Subframe) int {
	var max int
	for _, sf := range subframes {
		if sf.Pred == frame.PredLPC && sf.Order > max {
			max = sf.Order
		}
	}
	return max
}

// verifyFrame decodes the just-encoded frame bytes and compares the
// reconstructed samples against the originals, sample by sample.
func (e *Encoder) verifyFrame(encoded []byte, original [][]int32) error {
	f, err := frame.DecodeFrame(bytes.NewReader(encoded), e.bitsPerSample, e.sampleRate)
	if err != nil {
		return wrapErr("Encoder.WriteSamples", KindVerify, err)
	}
	got := f.Samples()
	for ch := range original {
		for i, want := range original[ch] {
			if got[ch][i] != want {
				return wrapErr("Encoder.WriteSamples", KindVerify, errors.Errorf(
					"verify mismatch at sample %d, channel %d: expected %d, got %d",
					e.samplesWritten+uint64(i), ch, want, got[ch][i]))
			}
		}
	}
	return nil
}

// Close finalizes the stream: if the sink is seekable, it rewrites
// StreamInfo with the true sample count, MD5 signature and frame-size
// bounds, and fills in any reserved seek table with the offsets recorded
// during encoding. Info is always populated, so a non-seekable sink's
// caller can still report the final stream-info out of band.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	si := &meta.StreamInfo{
		BlockSizeMin:  e.blockSizeMin,
		BlockSizeMax:  e.blockSizeMax,
		FrameSizeMin:  e.frameSizeMin,
		FrameSizeMax:  e.frameSizeMax,
		SampleRate:    e.sampleRate,
		NChannels:     e.nChannels,
		BitsPerSample: e.bitsPerSample,
		NSamples:      e.samplesWritten,
	}
	copy(si.MD5sum[:], e.md5sum.Sum(nil))
	e.Info = si

	if e.ws == nil {
		return nil
	}

	if _, err := e.ws.Seek(e.streamInfoOffset, io.SeekStart); err != nil {
		return wrapErr("Encoder.Close", KindIO, errors.WithStack(err))
	}
	if err := si.Encode(e.ws); err != nil {
		return wrapErr("Encoder.Close", KindIO, errors.WithStack(err))
	}

	if e.seekTableOffset >= 0 {
		if _, err := e.ws.Seek(e.seekTableOffset, io.SeekStart); err != nil {
			return wrapErr("Encoder.Close", KindIO, errors.WithStack(err))
		}
		st := &meta.SeekTable{Points: e.seekPoints}
		st.Sort()
		if err := st.Encode(e.ws); err != nil {
			return wrapErr("Encoder.Close", KindIO, errors.WithStack(err))
		}
	}
	return nil
}
