// Package recorder captures key presses as a song and saves it through the
// song serializer.
package recorder

import (
	"path"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/cbegin/pianokeys-go/internal/keybind"
	"github.com/cbegin/pianokeys-go/internal/logger"
	"github.com/cbegin/pianokeys-go/internal/sequencer"
	"github.com/cbegin/pianokeys-go/internal/songdsl"
	"github.com/cbegin/pianokeys-go/internal/songfs"
	"github.com/google/uuid"
)

const (
	DefaultDir = "songs/recordings"
	// file names are <key><day><month><year><hour><minute><second>.txt
	stampLayout = "02012006150405"
)

type Options struct {
	// Dir holds generated recording files. Defaults to DefaultDir.
	Dir string
	// Now replaces time.Now when stamping generated file names.
	Now func() time.Time
}

type pending struct {
	event songdsl.Event
	start int
}

// Session is one recording, bound to the key that started it.
type Session struct {
	ID       uuid.UUID
	Key      string
	Mode     keybind.RecordMode
	Filename string

	files   songfs.Provider
	started bool
	origin  int
	events  []songdsl.Event
	held    map[string]pending
}

// Start opens a session for a record action bound to key. The action's file
// is used when it names one, otherwise a time-stamped file under opts.Dir.
// In append mode an existing file's events are kept ahead of new ones.
func Start(files songfs.Provider, key string, action keybind.Action, opts Options) (*Session, error) {
	if action.Kind != keybind.ActionRecord {
		return nil, fault.New("recording needs a record action, got " + action.Kind.String())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir
	}
	mode := action.Mode
	if mode == "" {
		mode = keybind.RecordReplace
	}
	filename := action.Filename
	if filename == "" {
		filename = path.Join(dir, key+now().Format(stampLayout)+".txt")
	}

	s := &Session{
		ID:       uuid.New(),
		Key:      key,
		Mode:     mode,
		Filename: filename,
		files:    files,
		events:   []songdsl.Event{},
		held:     map[string]pending{},
	}
	if mode == keybind.RecordAppend {
		if err := s.loadExisting(); err != nil {
			return nil, err
		}
	}
	logger.Info("recording started", logger.Fields{"session": s.ID.String(), "file": filename, "mode": string(mode)})
	return s, nil
}

func (s *Session) loadExisting() error {
	text, err := s.files.ReadText(s.Filename)
	if songfs.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fault.Wrap(err, fmsg.With("load recording to append"))
	}
	song, err := songdsl.NewParser(songdsl.DefaultParserConfig()).Parse(s.Filename, text)
	if err != nil {
		return err
	}
	s.events = append(s.events, song.Events...)
	return nil
}

// Press starts an event for key at time at, in milliseconds on the caller's
// clock. Notes and chords are shifted by pitch and clamped; song actions
// become sub-song references. Other actions, and songs pointing at the file
// being recorded, are ignored. It reports whether the press was recorded.
func (s *Session) Press(key string, action keybind.Action, pitch, at int) bool {
	var ev songdsl.Event
	switch action.Kind {
	case keybind.ActionNote, keybind.ActionChord:
		shifted := make([]int, len(action.Pitches))
		for i, p := range action.Pitches {
			shifted[i] = sequencer.ShiftPitch(p, pitch)
		}
		if len(shifted) == 1 {
			ev = songdsl.NewNote(shifted[0], 0, 0)
		} else {
			ev = songdsl.NewChord(shifted, 0, 0)
		}
	case keybind.ActionSong:
		if path.Clean(action.Filename) == path.Clean(s.Filename) {
			return false
		}
		loop, shift := songdsl.DefaultLoop, 0
		if action.Loop != nil {
			loop = *action.Loop
		}
		if action.Pitch != nil {
			shift = *action.Pitch
		}
		ev = songdsl.NewSongRef(action.Filename, 0, loop, shift)
	default:
		return false
	}

	if !s.started {
		s.started = true
		s.origin = at
	}
	start := at - s.origin
	ev.Start = songdsl.Duration(start)
	s.held[key] = pending{event: ev, start: start}
	return true
}

// Release closes the event started by key at time at and appends it to the
// recording.
func (s *Session) Release(key string, at int) {
	p, ok := s.held[key]
	if !ok {
		return
	}
	delete(s.held, key)
	if p.event.IsPlayable() {
		p.event.Duration = songdsl.Duration(max(at-s.origin-p.start, 0))
	}
	s.events = append(s.events, p.event)
}

// Events returns the events recorded so far.
func (s *Session) Events() []songdsl.Event {
	return append([]songdsl.Event(nil), s.events...)
}

// Song returns the recording with preset and soundfont header lines.
func (s *Session) Song(preset int, soundfont string) *songdsl.Song {
	song := &songdsl.Song{Name: s.Filename, Events: s.Events()}
	song.Options.Preset = &preset
	song.Options.Soundfont = soundfont
	return song
}

// Stop writes the recording and returns its file name. Keys still held are
// dropped.
func (s *Session) Stop(preset int, soundfont string) (string, error) {
	text := songdsl.Serialize(s.Song(preset, soundfont))
	if err := s.files.WriteText(s.Filename, text); err != nil {
		return "", fault.Wrap(err, fmsg.With("save recording"))
	}
	logger.Info("recording saved", logger.Fields{
		"session": s.ID.String(),
		"file":    s.Filename,
		"events":  len(s.events),
		"dropped": len(s.held),
	})
	return s.Filename, nil
}

// SongAction is the action that plays the saved recording; callers bind it to
// the record key once Stop succeeds.
func (s *Session) SongAction() keybind.Action {
	return keybind.Action{Kind: keybind.ActionSong, Filename: s.Filename}
}
