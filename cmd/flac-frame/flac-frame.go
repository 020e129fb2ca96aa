// flac-frame is a CPU-profiling benchmark that decodes every frame of a set
// of FLAC files.
package main

import (
	"bufio"
	"flag"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/mewkiz/goflac"
)

func main() {
	f, err := os.Create("flac-frame.pprof")
	if err != nil {
		log.Println(err)
	}
	defer f.Close()
	err = pprof.StartCPUProfile(f)
	if err != nil {
		log.Println(err)
	}
	defer pprof.StopCPUProfile()

	flag.Parse()
	for _, filePath := range flag.Args() {
		err := flacFrame(filePath)
		if err != nil {
			log.Println(err)
		}
	}
}

func flacFrame(filePath string) (err error) {
	f, err := os.Open(filePath)
	if err != nil {
		log.Println(err)
		return err
	}
	defer f.Close()
	br := bufio.NewReader(f)

	stream, err := flac.New(br)
	if err != nil {
		return err
	}
	for {
		if _, err := stream.Next(); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}
	return nil
}
