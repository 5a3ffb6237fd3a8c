package pianokeys

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/cbegin/pianokeys-go/internal/midifile"
	"github.com/cbegin/pianokeys-go/internal/pianoroll"
	"github.com/cbegin/pianokeys-go/internal/sequencer"
	"github.com/cbegin/pianokeys-go/internal/songdsl"
	"github.com/cbegin/pianokeys-go/internal/songfs"
)

func loadSong(files songfs.Provider, name string) (*songfs.SongLoader, *songdsl.Song, error) {
	loader := songfs.NewSongLoader(files, songdsl.DefaultParserConfig())
	song, err := loader.LoadSong(name)
	if err != nil {
		return nil, nil, fault.Wrap(err, fmsg.With("load "+name))
	}
	return loader, song, nil
}

// Schedule expands req.Filename onto a fresh timeline.
func Schedule(files songfs.Provider, req sequencer.Request) (*sequencer.Timeline, sequencer.Result, error) {
	loader, song, err := loadSong(files, req.Filename)
	if err != nil {
		return nil, sequencer.Result{}, err
	}
	tl := &sequencer.Timeline{}
	res, err := sequencer.New(tl, loader).Expand(song, req)
	if err != nil {
		return nil, sequencer.Result{}, err
	}
	return tl, res, nil
}

// WriteSchedule prints one sorted instruction per line followed by the
// makespan.
func WriteSchedule(w io.Writer, tl *sequencer.Timeline, res sequencer.Result) error {
	bw := bufio.NewWriter(w)
	for _, in := range tl.Sorted() {
		fmt.Fprintln(bw, in.String())
	}
	fmt.Fprintf(bw, "makespan %d\n", res.Makespan)
	return bw.Flush()
}

// RenderMIDI expands req.Filename into a Standard MIDI File. The song's
// signature line, when present, becomes the file's time signature.
func RenderMIDI(w io.Writer, files songfs.Provider, req sequencer.Request) (sequencer.Result, error) {
	loader, song, err := loadSong(files, req.Filename)
	if err != nil {
		return sequencer.Result{}, err
	}
	opts := midifile.Options{Name: req.Filename}
	if song.Options.Signature != nil {
		opts.BeatsPerBar = song.Options.Signature.Time
	}
	mw := midifile.NewWriter(opts)
	res, err := sequencer.New(mw, loader).Expand(song, req)
	if err != nil {
		return sequencer.Result{}, err
	}
	if _, err := mw.WriteTo(w); err != nil {
		return sequencer.Result{}, err
	}
	return res, nil
}

// RenderMetronome writes req as a Standard MIDI File.
func RenderMetronome(w io.Writer, req sequencer.MetronomeRequest) (int, error) {
	mw := midifile.NewWriter(midifile.Options{Name: "metronome", BeatsPerBar: req.Time})
	end, err := sequencer.Metronome(mw, req)
	if err != nil {
		return 0, err
	}
	if _, err := mw.WriteTo(w); err != nil {
		return 0, err
	}
	return end, nil
}

// RenderRoll expands req.Filename and draws it as a PNG piano roll.
func RenderRoll(w io.Writer, files songfs.Provider, req sequencer.Request, opts pianoroll.Options) (sequencer.Result, error) {
	tl, res, err := Schedule(files, req)
	if err != nil {
		return sequencer.Result{}, err
	}
	if err := pianoroll.Render(w, tl.Sorted(), opts); err != nil {
		return sequencer.Result{}, fault.Wrap(err, fmsg.With("render piano roll"))
	}
	return res, nil
}
