package sequencer

import (
	"fmt"
	"sort"
)

type InstructionKind int

const (
	NoteOn InstructionKind = iota + 1
	NoteOff
)

func (k InstructionKind) String() string {
	switch k {
	case NoteOn:
		return "on"
	case NoteOff:
		return "off"
	default:
		return "unknown"
	}
}

// Instruction is one scheduled note-on or note-off. Velocity is zero for
// note-offs.
type Instruction struct {
	Kind     InstructionKind
	Time     int
	Channel  int
	Key      int
	Velocity int
}

func (in Instruction) String() string {
	if in.Kind == NoteOn {
		return fmt.Sprintf("%d on ch=%d key=%d vel=%d", in.Time, in.Channel, in.Key, in.Velocity)
	}
	return fmt.Sprintf("%d off ch=%d key=%d", in.Time, in.Channel, in.Key)
}

// Timeline records instructions in the order they were scheduled.
type Timeline struct {
	Instructions []Instruction
}

func (t *Timeline) ScheduleNoteOn(time, channel, key, velocity int) {
	t.Instructions = append(t.Instructions, Instruction{Kind: NoteOn, Time: time, Channel: channel, Key: key, Velocity: velocity})
}

func (t *Timeline) ScheduleNoteOff(time, channel, key int) {
	t.Instructions = append(t.Instructions, Instruction{Kind: NoteOff, Time: time, Channel: channel, Key: key})
}

func (t *Timeline) Len() int { return len(t.Instructions) }

// Sorted returns a copy ordered by time. At equal times note-offs come first,
// so a repeated key is released before it is struck again; otherwise the
// scheduling order is kept.
func (t *Timeline) Sorted() []Instruction {
	out := append([]Instruction(nil), t.Instructions...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Kind == NoteOff && out[j].Kind == NoteOn
	})
	return out
}

// End returns the latest instruction time, or 0 for an empty timeline.
func (t *Timeline) End() int {
	end := 0
	for _, in := range t.Instructions {
		end = max(end, in.Time)
	}
	return end
}

// Replay schedules every instruction, in sorted order, on target.
func (t *Timeline) Replay(target Target) {
	for _, in := range t.Sorted() {
		switch in.Kind {
		case NoteOn:
			target.ScheduleNoteOn(in.Time, in.Channel, in.Key, in.Velocity)
		case NoteOff:
			target.ScheduleNoteOff(in.Time, in.Channel, in.Key)
		}
	}
}
