package songdsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Serialize renders a song back to its text form: header lines first, then
// one line per event in order.
func Serialize(song *Song) string {
	var b strings.Builder
	writeOptions(&b, song.Options)
	for _, ev := range song.Events {
		writeEvent(&b, ev)
	}
	return b.String()
}

func WriteSong(w io.Writer, song *Song) error {
	_, err := io.WriteString(w, Serialize(song))
	return err
}

func writeOptions(b *strings.Builder, o Options) {
	if o.Soundfont != "" {
		fmt.Fprintf(b, "soundfont %s\n", o.Soundfont)
	}
	if o.Preset != nil {
		fmt.Fprintf(b, "preset %d\n", *o.Preset)
	}
	if o.BPM != nil {
		fmt.Fprintf(b, "bpm %d\n", *o.BPM)
	}
	if o.Signature != nil {
		fmt.Fprintf(b, "signature %d\n", o.Signature.Time)
	}
}

func writeEvent(b *strings.Builder, ev Event) {
	switch ev.Kind {
	case EventNote, EventChord:
		for _, p := range ev.Pitches {
			b.WriteString(strconv.Itoa(p))
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "start %s duration %s\n", ev.Start, ev.Duration)
	case EventPause:
		fmt.Fprintf(b, "pause duration %s\n", ev.Duration)
	case EventSong:
		fmt.Fprintf(b, "%s start %s loop %d", ev.Filename, ev.Start, ev.Loop)
		if ev.Pitch != 0 {
			fmt.Fprintf(b, " pitch %d", ev.Pitch)
		}
		b.WriteByte('\n')
	}
}
