package songdsl

type EventKind int

const (
	EventNote EventKind = iota + 1
	EventChord
	EventPause
	EventSong
)

func (k EventKind) String() string {
	switch k {
	case EventNote:
		return "note"
	case EventChord:
		return "chord"
	case EventPause:
		return "pause"
	case EventSong:
		return "song"
	default:
		return "unknown"
	}
}

const (
	DefaultChannel  = 0
	DefaultVelocity = 100
	DefaultLoop     = 1
)

// Event is one line of a song. Pitches holds a single pitch for EventNote and
// two or more for EventChord; Filename, Loop and Pitch apply to EventSong.
// Duration doubles as the pause length for EventPause.
type Event struct {
	Kind     EventKind
	Pitches  []int
	Start    Duration
	Duration Duration
	Channel  int
	Velocity int
	Filename string
	Loop     int
	Pitch    int
}

func NewNote(pitch int, start, duration Duration) Event {
	return Event{
		Kind:     EventNote,
		Pitches:  []int{pitch},
		Start:    start,
		Duration: duration,
		Channel:  DefaultChannel,
		Velocity: DefaultVelocity,
	}
}

func NewChord(pitches []int, start, duration Duration) Event {
	return Event{
		Kind:     EventChord,
		Pitches:  append([]int(nil), pitches...),
		Start:    start,
		Duration: duration,
		Channel:  DefaultChannel,
		Velocity: DefaultVelocity,
	}
}

func NewPause(value Duration) Event {
	return Event{Kind: EventPause, Duration: value}
}

func NewSongRef(filename string, start Duration, loop, pitch int) Event {
	return Event{Kind: EventSong, Filename: filename, Start: start, Loop: loop, Pitch: pitch}
}

// IsPlayable reports whether the event sounds notes of its own.
func (e Event) IsPlayable() bool { return e.Kind == EventNote || e.Kind == EventChord }

type Signature struct {
	Time int
}

// Options holds the header lines of a song. Nil fields were never set.
type Options struct {
	Preset    *int
	Soundfont string
	BPM       *int
	Signature *Signature
}

func (o Options) IsZero() bool {
	return o.Preset == nil && o.Soundfont == "" && o.BPM == nil && o.Signature == nil
}

// PresetOr returns the preset, or def when the song does not set one.
func (o Options) PresetOr(def int) int {
	if o.Preset == nil {
		return def
	}
	return *o.Preset
}

// BPMOr returns the tempo, or def when the song does not set one.
func (o Options) BPMOr(def int) int {
	if o.BPM == nil {
		return def
	}
	return *o.BPM
}

type Song struct {
	Name    string
	Events  []Event
	Options Options
}

type ParserConfig struct {
	// SongExtensions lists the file extensions that make a sub-song line
	// reference another song. Lines naming other files parse but are dropped.
	SongExtensions []string
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{SongExtensions: []string{"json", "txt"}}
}
