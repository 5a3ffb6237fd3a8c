// Package keybind parses keybind files into a table mapping modifier and key
// to an action.
package keybind

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Modifier string

const (
	Normal Modifier = "normal"
	Ctrl   Modifier = "ctrl"
	CtrlR  Modifier = "ctrl_r"
	Alt    Modifier = "alt"
	AltR   Modifier = "alt_r"
)

// Modifiers lists every modifier scope in table order.
var Modifiers = []Modifier{Normal, Ctrl, CtrlR, Alt, AltR}

func ParseModifier(s string) (Modifier, bool) {
	for _, m := range Modifiers {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type ActionKind int

const (
	ActionNote ActionKind = iota + 1
	ActionChord
	ActionVolume
	ActionPitch
	ActionRecord
	ActionSong
	ActionAudio
	ActionExit
	ActionMute
	ActionPreset
	ActionStop
	ActionReload
	ActionMetronome
	ActionKeybinds
	ActionRun
)

var actionNames = map[ActionKind]string{
	ActionNote:      "note",
	ActionChord:     "chord",
	ActionVolume:    "volume",
	ActionPitch:     "pitch",
	ActionRecord:    "record",
	ActionSong:      "song",
	ActionAudio:     "audio",
	ActionExit:      "exit",
	ActionMute:      "mute",
	ActionPreset:    "preset",
	ActionStop:      "stop",
	ActionReload:    "reload",
	ActionMetronome: "metronome",
	ActionKeybinds:  "keybinds",
	ActionRun:       "run",
}

func (k ActionKind) String() string {
	if s, ok := actionNames[k]; ok {
		return s
	}
	return "unknown"
}

type RecordMode string

const (
	RecordReplace RecordMode = "replace"
	RecordAppend  RecordMode = "append"
)

// Action is what a key does. Which fields are meaningful depends on Kind:
//
//	Note, Chord      Pitches
//	Volume, Pitch    Value (a signed delta)
//	Preset           Value
//	Record           Mode, Filename (optional)
//	Song             Filename, Loop, Pitch
//	Audio            Filename, Start, End, Volume
//	Metronome        Value (bpm), Time
//	Keybinds         Filename
//	Run              Command
//
// Pointer fields are nil when the line left them out.
type Action struct {
	Kind     ActionKind
	Pitches  []int
	Value    int
	Mode     RecordMode
	Filename string
	Loop     *int
	Pitch    *int
	Start    *int
	End      *int
	Volume   *int
	Time     *int
	Command  []string
}

// String renders the action as it is written after a key in a keybind file.
func (a Action) String() string {
	var b strings.Builder
	opt := func(word string, v *int, signed bool) {
		if v == nil {
			return
		}
		if signed {
			fmt.Fprintf(&b, " %s %+d", word, *v)
		} else {
			fmt.Fprintf(&b, " %s %d", word, *v)
		}
	}
	switch a.Kind {
	case ActionNote, ActionChord:
		for i, p := range a.Pitches {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(p))
		}
	case ActionVolume, ActionPitch:
		fmt.Fprintf(&b, "%s %+d", a.Kind, a.Value)
	case ActionPreset, ActionMetronome:
		fmt.Fprintf(&b, "%s %d", a.Kind, a.Value)
		opt("time", a.Time, false)
	case ActionRecord:
		b.WriteString("record")
		if a.Mode == RecordAppend {
			b.WriteString(" append")
		}
		if a.Filename != "" {
			b.WriteString(" " + a.Filename)
		}
	case ActionSong:
		b.WriteString("song " + a.Filename)
		opt("loop", a.Loop, false)
		opt("pitch", a.Pitch, true)
	case ActionAudio:
		b.WriteString("audio " + a.Filename)
		opt("start", a.Start, false)
		opt("end", a.End, false)
		opt("volume", a.Volume, true)
	case ActionKeybinds:
		b.WriteString("keybinds " + a.Filename)
	case ActionRun:
		b.WriteString("run " + strings.Join(a.Command, " "))
	default:
		b.WriteString(a.Kind.String())
	}
	return b.String()
}

// Config holds the "default" lines. Nil fields were never set.
type Config struct {
	Preset    *int
	Soundfont string
	Volume    *int
	Pitch     *int
}

// Table is the result of loading a keybind file and everything it imports.
type Table struct {
	Config   Config
	Bindings map[Modifier]map[string]Action
}

func NewTable() *Table {
	t := &Table{Bindings: make(map[Modifier]map[string]Action, len(Modifiers))}
	for _, m := range Modifiers {
		t.Bindings[m] = map[string]Action{}
	}
	return t
}

func (t *Table) Bind(mod Modifier, key string, a Action) {
	t.Bindings[mod][key] = a
}

func (t *Table) Lookup(mod Modifier, key string) (Action, bool) {
	a, ok := t.Bindings[mod][key]
	return a, ok
}

// Binding is one table entry.
type Binding struct {
	Modifier Modifier
	Key      string
	Action   Action
}

// Entries returns every binding ordered by modifier, then key.
func (t *Table) Entries() []Binding {
	var out []Binding
	for _, m := range Modifiers {
		keys := make([]string, 0, len(t.Bindings[m]))
		for k := range t.Bindings[m] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, Binding{Modifier: m, Key: k, Action: t.Bindings[m][k]})
		}
	}
	return out
}

// SongFiles returns the song actions in Entries order.
func (t *Table) SongFiles() []Binding {
	var out []Binding
	for _, b := range t.Entries() {
		if b.Action.Kind == ActionSong {
			out = append(out, b)
		}
	}
	return out
}
