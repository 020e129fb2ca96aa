package meta

import "io"

// RegisteredApplications maps from a registered application ID to the name
// of the application that registered it.
//
// ref: https://xiph.org/flac/id.html
var RegisteredApplications = map[string]string{
	"ATCH": "FlacFile",
	"BSOL": "beSolo",
	"BUGS": "Bugs Player",
	"Cues": "GoldWave cue points",
	"Fica": "CUE Splitter",
	"Ftol": "flac-tools",
	"MOTB": "MOTB MetaCzar",
	"MPSE": "MP3 Stream Editor",
	"MuML": "MusicML: Music Metadata Language",
	"RIFF": "Sound Devices RIFF chunk storage",
	"SFFL": "Sound Font FLAC",
	"SONY": "Sony Creative Software",
	"SQEZ": "flacsqueeze",
	"TtWv": "TwistedWave",
	"UITS": "UITS Embedding tools",
	"aiff": "FLAC AIFF chunk storage",
	"imag": "flac-image application for storing arbitrary files",
	"peem": "Parseable Embedded Extensible Metadata",
	"qfst": "QFLAC Studio",
	"riff": "FLAC RIFF chunk storage",
	"tune": "TagTuner",
	"xbat": "XBAT",
	"xmcd": "xmcd",
}

// Application is a block holding opaque data owned by a third-party
// application, identified by a registered 4-byte ID.
type Application struct {
	// ID is the registered application ID.
	ID [4]byte
	// Data is the application-defined payload.
	Data []byte
}

func decodeApplication(r io.Reader, length int64) (*Application, error) {
	app := &Application{}
	if _, err := io.ReadFull(r, app.ID[:]); err != nil {
		return nil, err
	}
	data := make([]byte, length-4)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	app.Data = data
	return app, nil
}

// Encode writes the ID and payload of app to w.
func (app *Application) Encode(w io.Writer) error {
	if _, err := w.Write(app.ID[:]); err != nil {
		return err
	}
	_, err := w.Write(app.Data)
	return err
}
