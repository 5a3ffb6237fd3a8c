package sequencer

import (
	"path"
	"slices"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/cbegin/pianokeys-go/internal/logger"
	"github.com/cbegin/pianokeys-go/internal/songdsl"
)

// Target receives scheduled instructions. Times are integer ticks relative to
// an origin chosen by the target.
type Target interface {
	ScheduleNoteOn(time, channel, key, velocity int)
	ScheduleNoteOff(time, channel, key int)
}

// Loader resolves sub-song references. A missing file must yield an error
// tagged ftag.NotFound.
type Loader interface {
	LoadSong(path string) (*songdsl.Song, error)
}

// Request describes one expansion. A nil Loop plays once; an explicit 0
// expands nothing. BPM is the tempo used by songs that do not set their own;
// 0 keeps raw tick units.
type Request struct {
	Filename string
	Start    int
	Loop     *int
	Pitch    int
	BPM      int
}

type Result struct {
	// Makespan is the latest note-off time across every loop and nested song,
	// or the start time when nothing sounded.
	Makespan int
	// Played holds the unscaled note and chord events of the first loop of
	// each expanded song, in emission order.
	Played []songdsl.Event
}

// CycleError reports a song that references itself directly or through other
// songs. Chain starts and ends with the repeated file.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "song cycle: " + strings.Join(e.Chain, " -> ")
}

type Sequencer struct {
	target Target
	loader Loader
}

func New(target Target, loader Loader) *Sequencer {
	return &Sequencer{target: target, loader: loader}
}

// Play loads req.Filename and expands it.
func (s *Sequencer) Play(req Request) (Result, error) {
	if s.loader == nil {
		return Result{}, fault.New("no song loader configured")
	}
	song, err := s.loader.LoadSong(req.Filename)
	if err != nil {
		return Result{}, fault.Wrap(err, fmsg.With("play "+req.Filename))
	}
	res, err := s.Expand(song, req)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("song expanded", logger.Fields{
		"file":     req.Filename,
		"makespan": res.Makespan,
		"played":   len(res.Played),
	})
	return res, nil
}

// Expand schedules every note of song on the target.
func (s *Sequencer) Expand(song *songdsl.Song, req Request) (Result, error) {
	var stack []string
	if song.Name != "" {
		stack = []string{path.Clean(song.Name)}
	}
	loop := songdsl.DefaultLoop
	if req.Loop != nil {
		loop = *req.Loop
	}
	x := &expansion{seq: s}
	end, err := x.song(song, req.Start, loop, req.Pitch, song.Options.BPMOr(req.BPM), stack)
	if err != nil {
		return Result{}, err
	}
	return Result{Makespan: end, Played: x.played}, nil
}

type expansion struct {
	seq    *Sequencer
	played []songdsl.Event
}

func (x *expansion) song(song *songdsl.Song, start, loop, pitch, bpm int, stack []string) (int, error) {
	makespan := start
	for i := 0; i < loop; i++ {
		cursor := float64(makespan)
		for _, ev := range song.Events {
			switch ev.Kind {
			case songdsl.EventSong:
				end, ok, err := x.ref(ev, cursor, pitch, bpm, stack)
				if err != nil {
					return 0, err
				}
				if ok {
					makespan = max(makespan, end)
				}
			case songdsl.EventPause:
				// pauses are raw ticks, tempo does not apply
				cursor += float64(ev.Duration)
			case songdsl.EventNote, songdsl.EventChord:
				if i == 0 {
					x.played = append(x.played, ev)
				}
				makespan = max(makespan, x.note(ev, int(cursor), pitch, bpm))
			}
		}
	}
	return makespan, nil
}

// note schedules one note or chord and returns its end time.
func (x *expansion) note(ev songdsl.Event, cursor, pitch, bpm int) int {
	noteStart := ev.Start.Scaled(bpm)
	noteEnd := ev.Duration.Scaled(bpm)
	on := noteStart + cursor
	off := noteStart + noteEnd + cursor
	for _, p := range ev.Pitches {
		key := ShiftPitch(p, pitch)
		x.seq.target.ScheduleNoteOn(on, ev.Channel, key, ev.Velocity)
		x.seq.target.ScheduleNoteOff(off, ev.Channel, key)
	}
	return off
}

// ref expands a sub-song at cursor plus its own start and returns the
// sub-song's makespan. ok is false when a missing file was skipped.
func (x *expansion) ref(ev songdsl.Event, cursor float64, pitch, bpm int, stack []string) (end int, ok bool, err error) {
	start := int(cursor + float64(ev.Start))
	key := path.Clean(ev.Filename)
	if i := slices.Index(stack, key); i >= 0 {
		return 0, false, &CycleError{Chain: append(slices.Clone(stack[i:]), key)}
	}
	if x.seq.loader == nil {
		logger.Warn("sub-song skipped, no loader", logger.Fields{"file": ev.Filename})
		return 0, false, nil
	}
	sub, err := x.seq.loader.LoadSong(ev.Filename)
	if err != nil {
		if ftag.Get(err) == ftag.NotFound {
			logger.Warn("sub-song not found, skipping", logger.Fields{"file": ev.Filename})
			return 0, false, nil
		}
		return 0, false, fault.Wrap(err, fmsg.With("expand "+ev.Filename))
	}
	next := append(slices.Clone(stack), key)
	end, err = x.song(sub, start, ev.Loop, pitch+ev.Pitch, sub.Options.BPMOr(bpm), next)
	return end, err == nil, err
}

// ShiftPitch adds shift to pitch and clamps the result to the MIDI key range.
func ShiftPitch(pitch, shift int) int {
	return clampInt(pitch+shift, 0, 127)
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
