// Package midifile writes scheduled instructions as a Standard MIDI File.
package midifile

import (
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/cbegin/pianokeys-go/internal/sequencer"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// Tempo and TicksPerQuarter make one file tick one millisecond, so
	// sequencer times are written unchanged.
	Tempo           = 120
	TicksPerQuarter = 500
)

type Options struct {
	// Name is stored as the track name when set.
	Name string
	// BeatsPerBar adds a time signature of BeatsPerBar/4 when positive.
	BeatsPerBar int
}

// Writer collects instructions as a sequencer.Target and encodes them as a
// single-track file.
type Writer struct {
	opts     Options
	timeline sequencer.Timeline
}

func NewWriter(opts Options) *Writer {
	return &Writer{opts: opts}
}

func (w *Writer) ScheduleNoteOn(time, channel, key, velocity int) {
	w.timeline.ScheduleNoteOn(time, channel, key, velocity)
}

func (w *Writer) ScheduleNoteOff(time, channel, key int) {
	w.timeline.ScheduleNoteOff(time, channel, key)
}

func (w *Writer) Len() int { return w.timeline.Len() }

// SMF builds the file. Instructions are written in time order with releases
// ahead of strikes at equal times; negative times are moved to zero.
func (w *Writer) SMF() (*smf.SMF, error) {
	var tr smf.Track
	if w.opts.Name != "" {
		tr.Add(0, smf.MetaTrackSequenceName(w.opts.Name))
	}
	tr.Add(0, smf.MetaTempo(Tempo))
	if w.opts.BeatsPerBar > 0 {
		tr.Add(0, smf.MetaMeter(uint8(clampInt(w.opts.BeatsPerBar, 1, 255)), 4))
	}

	prev := 0
	for _, in := range w.timeline.Sorted() {
		at := max(in.Time, 0)
		delta := uint32(at - prev)
		prev = at
		ch := uint8(clampInt(in.Channel, 0, 15))
		key := uint8(clampInt(in.Key, 0, 127))
		switch in.Kind {
		case sequencer.NoteOn:
			tr.Add(delta, midi.NoteOn(ch, key, uint8(clampInt(in.Velocity, 0, 127))))
		case sequencer.NoteOff:
			tr.Add(delta, midi.NoteOff(ch, key))
		}
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(tr); err != nil {
		return nil, fault.Wrap(err, fmsg.With("add midi track"))
	}
	return s, nil
}

// WriteTo encodes the file to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	s, err := w.SMF()
	if err != nil {
		return 0, err
	}
	n, err := s.WriteTo(out)
	if err != nil {
		return n, fault.Wrap(err, fmsg.With("write midi file"))
	}
	return n, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
