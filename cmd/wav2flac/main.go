// wav2flac encodes a WAV file to FLAC.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/goflac"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
)

func main() {
	var (
		force   bool
		verify  bool
		midSide bool
	)
	flag.BoolVar(&force, "f", false, "force overwrite")
	flag.BoolVar(&verify, "verify", false, "verify each frame by decoding it back")
	flag.BoolVar(&midSide, "mid-side", true, "enable mid-side stereo for 2-channel input")
	flag.Parse()
	for _, wavPath := range flag.Args() {
		if err := wav2flac(wavPath, force, verify, midSide); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func wav2flac(wavPath string, force, verify, midSide bool) error {
	r, err := os.Open(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return errors.Errorf("invalid WAV file %q", wavPath)
	}
	sampleRate, nchannels, bps := int(dec.SampleRate), int(dec.NumChans), int(dec.BitDepth)

	flacPath := pathutil.TrimExt(wavPath) + ".flac"
	if !force && osutil.Exists(flacPath) {
		return errors.Errorf("FLAC file %q already present; use -f flag to force overwrite", flacPath)
	}
	w, err := os.Create(flacPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer w.Close()

	const blockSize = 4096
	enc, err := flac.NewEncoder(w,
		flac.WithChannels(nchannels),
		flac.WithBitsPerSample(bps),
		flac.WithSampleRate(sampleRate),
		flac.WithBlockSize(blockSize),
		flac.WithMaxLPCOrder(8),
		flac.WithVerify(verify),
		flac.WithMidSideStereo(midSide, false),
	)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := dec.FwdToPCM(); err != nil {
		return errors.WithStack(err)
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: nchannels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, nchannels*blockSize),
		SourceBitDepth: bps,
	}
	samples := make([][]int32, nchannels)
	for ch := range samples {
		samples[ch] = make([]int32, blockSize)
	}

	for !dec.EOF() {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return errors.WithStack(err)
		}
		if n == 0 {
			break
		}
		nsamples := n / nchannels
		for ch := range samples {
			samples[ch] = samples[ch][:nsamples]
		}
		for i := 0; i < nsamples; i++ {
			for ch := 0; ch < nchannels; ch++ {
				samples[ch][i] = int32(buf.Data[i*nchannels+ch])
			}
		}
		if err := enc.WriteSamples(samples); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := enc.Close(); err != nil {
		return errors.WithStack(err)
	}
	log.Printf("wrote %q: %d samples, md5=%x", flacPath, enc.Info.NSamples, enc.Info.MD5sum)
	return nil
}
