package sequencer

import (
	"fmt"

	"github.com/Southclaws/fault"
)

const (
	MetronomeAccentKey = 67
	MetronomeBeatKey   = 68
	MetronomeVelocity  = 100
	// DefaultMetronomeBeats is how many beats one metronome start schedules.
	DefaultMetronomeBeats = 1000
)

// MetronomeRequest describes a metronome run. Time is the number of beats
// per bar (0 means 1); the first beat of each bar is accented. Beats 0 means
// DefaultMetronomeBeats.
type MetronomeRequest struct {
	BPM   int
	Time  int
	Beats int
	Start int
}

// Metronome schedules clicks on channel 0 and returns the time the last one
// ends.
func Metronome(target Target, req MetronomeRequest) (int, error) {
	if req.BPM <= 0 {
		return 0, fault.New(fmt.Sprintf("metronome needs a positive bpm, got %d", req.BPM))
	}
	perBar := req.Time
	if perBar <= 0 {
		perBar = 1
	}
	beats := req.Beats
	if beats <= 0 {
		beats = DefaultMetronomeBeats
	}
	length := 60000 / req.BPM
	at := req.Start
	for i := 0; i < beats; i++ {
		key := MetronomeBeatKey
		if i%perBar == 0 {
			key = MetronomeAccentKey
		}
		target.ScheduleNoteOn(at, 0, key, MetronomeVelocity)
		target.ScheduleNoteOff(at+length, 0, key)
		at += length
	}
	return at, nil
}
