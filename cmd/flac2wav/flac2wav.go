// flac2wav is a tool which converts FLAC files to WAV files.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/goflac"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
)

var flagForce bool

func init() {
	flag.BoolVar(&flagForce, "f", false, "force overwrite")
}

func main() {
	flag.Parse()
	for _, path := range flag.Args() {
		if err := flac2wav(path); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

// flac2wav converts the FLAC file at path to a WAV file of the same name.
func flac2wav(path string) error {
	stream, err := flac.Open(path)
	if err != nil {
		return err
	}
	defer stream.Close()

	wavPath := pathutil.TrimExt(path) + ".wav"
	if !flagForce && osutil.Exists(wavPath) {
		return errors.Errorf("the file %q exists already", wavPath)
	}
	fw, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer fw.Close()

	nchannels := int(stream.Info.NChannels)
	enc := wav.NewEncoder(fw,
		int(stream.Info.SampleRate),
		int(stream.Info.BitsPerSample),
		nchannels,
		1, // WAVE_FORMAT_PCM
	)
	defer enc.Close()

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: nchannels,
			SampleRate:  int(stream.Info.SampleRate),
		},
		SourceBitDepth: int(stream.Info.BitsPerSample),
	}

	for {
		f, err := stream.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		samples := f.Samples()
		nsamples := int(f.Header.BlockSize)
		data := make([]int, nsamples*nchannels)
		for i := 0; i < nsamples; i++ {
			for ch := 0; ch < nchannels; ch++ {
				data[i*nchannels+ch] = int(samples[ch][i])
			}
		}
		buf.Data = data
		if err := enc.Write(buf); err != nil {
			return errors.WithStack(err)
		}
	}

	if !stream.CheckMD5() {
		log.Printf("warning: %q: MD5 signature mismatch", path)
	}
	return nil
}
