package pianokeys

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/cbegin/pianokeys-go/internal/keybind"
	"github.com/cbegin/pianokeys-go/internal/logger"
	"github.com/cbegin/pianokeys-go/internal/recorder"
	"github.com/cbegin/pianokeys-go/internal/sequencer"
	"github.com/cbegin/pianokeys-go/internal/songdsl"
	"github.com/cbegin/pianokeys-go/internal/songfs"
)

// PlaybackEvent reports what a key press did beyond scheduling notes.
type PlaybackEvent struct {
	Kind     int // one of the Event constants
	Key      string
	Value    int
	Filename string
	Command  []string
	Session  string // recording session id on EventRecordStarted and EventRecordSaved
}

const (
	EventSongStarted int = iota
	EventSongStopped
	EventStopAll
	EventExit
	EventMuted
	EventUnmuted
	EventPresetChanged
	EventVolumeChanged
	EventPitchChanged
	EventMetronomeStarted
	EventMetronomeStopped
	EventRecordArmed
	EventRecordStarted
	EventRecordSaved
	EventKeybindsLoaded
	EventAudio
	EventRun
)

const (
	DefaultVolume = 100
	MaxVolume     = 100
	MaxPitchShift = 127
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	target         sequencer.Target
	files          songfs.Provider
	bpm            int
	soundfont      string
	recordingDir   string
	metronomeBeats int
	now            func() time.Time
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		files:          songfs.Dir{},
		recordingDir:   recorder.DefaultDir,
		metronomeBeats: sequencer.DefaultMetronomeBeats,
		now:            time.Now,
	}
}

// WithTarget sets where notes are scheduled. Without one, notes are collected
// on the timeline returned by Player.Timeline.
func WithTarget(target sequencer.Target) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.target = target
	}
}

// WithFiles sets the provider used for keybind, song and recording files.
func WithFiles(files songfs.Provider) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.files = files
	}
}

// WithBPM sets the tempo used by songs without a bpm line. 0 keeps raw ticks.
func WithBPM(bpm int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bpm = bpm
	}
}

// WithSoundfont sets the soundfont reported for songs and keybind files that
// name none.
func WithSoundfont(path string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.soundfont = path
	}
}

func WithRecordingDir(dir string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.recordingDir = dir
	}
}

func WithMetronomeBeats(beats int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.metronomeBeats = beats
	}
}

// WithClock replaces time.Now when stamping generated recording file names.
func WithClock(now func() time.Time) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.now = now
	}
}

type heldKey struct {
	channel int
	keys    []int
}

type recordDest struct {
	mod keybind.Modifier
	key string
}

// Player turns key presses into scheduled notes using a loaded keybind table.
// Times passed to Press, Release, PlaySong and StartMetronome are
// milliseconds on the target's clock.
type Player struct {
	mu        sync.Mutex
	cfg       playerConfig
	target    sequencer.Target
	timeline  *sequencer.Timeline
	songs     *songfs.SongLoader
	keybinds  *keybind.Loader
	path      string
	table     *keybind.Table
	preset    int
	soundfont string
	volume    int
	pitch     int
	muted     bool
	held      map[string]heldKey
	active    map[string]int // song key -> end time
	metronome int            // end time of the running metronome, 0 when off

	recordAction keybind.Action
	armed        bool
	recording    *recorder.Session
	dest         recordDest

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

func NewPlayer(opts ...PlayerOption) (*Player, error) {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.files == nil {
		return nil, fault.New("player needs a file provider")
	}
	if cfg.bpm < 0 {
		return nil, fault.New("bpm must not be negative")
	}
	p := &Player{
		cfg:       cfg,
		target:    cfg.target,
		songs:     songfs.NewSongLoader(cfg.files, songdsl.DefaultParserConfig()),
		keybinds:  keybind.NewLoader(cfg.files),
		table:     keybind.NewTable(),
		soundfont: cfg.soundfont,
		volume:    DefaultVolume,
		held:      map[string]heldKey{},
		active:    map[string]int{},
	}
	if p.target == nil {
		p.timeline = &sequencer.Timeline{}
		p.target = p.timeline
	}
	return p, nil
}

// Compile parses song text that has no file of its own.
func Compile(text string) (*songdsl.Song, error) {
	return songdsl.NewParser(songdsl.DefaultParserConfig()).Parse("", text)
}

// Timeline returns the built-in target, or nil when WithTarget was used.
func (p *Player) Timeline() *sequencer.Timeline {
	return p.timeline
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Watch returns a channel that receives a PlaybackEvent for every press that
// changes player state or asks the caller to act (exit, stop, run, audio).
// The channel is buffered (cap 16) and events are dropped when it is full.
// Only the most recent Watch channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 16)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// LoadKeybinds replaces the keybind table with a fresh load of path and
// applies its default lines. A failed load keeps the previous table.
func (p *Player) LoadKeybinds(path string) error {
	table, err := p.keybinds.Load(path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.path = path
	p.table = table
	c := table.Config
	if c.Preset != nil {
		p.preset = *c.Preset
	}
	if c.Soundfont != "" {
		p.soundfont = c.Soundfont
	}
	if c.Volume != nil {
		p.volume = clampInt(*c.Volume, 0, MaxVolume)
	}
	if c.Pitch != nil {
		p.pitch = clampInt(*c.Pitch, -MaxPitchShift, MaxPitchShift)
	}
	p.mu.Unlock()
	logger.Info("keybinds loaded", logger.Fields{"file": path, "bindings": len(table.Entries())})
	p.sendEvent(PlaybackEvent{Kind: EventKeybindsLoaded, Filename: path})
	return nil
}

// Keybinds returns the current table. Callers must not modify it.
func (p *Player) Keybinds() *keybind.Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table
}

func (p *Player) Preset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preset
}

func (p *Player) Soundfont() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.soundfont
}

// Volume returns the live volume, 0 to MaxVolume.
func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Pitch returns the live pitch shift in semitones.
func (p *Player) Pitch() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pitch
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) Recording() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recording != nil
}

// PlaySong expands a song action at origin. The action's loop and pitch apply
// when set; the player's bpm is used for songs without their own.
func (p *Player) PlaySong(action keybind.Action, origin int) (sequencer.Result, error) {
	if action.Kind != keybind.ActionSong {
		return sequencer.Result{}, fault.New("not a song action: " + action.Kind.String())
	}
	req := sequencer.Request{Filename: action.Filename, Start: origin, Loop: action.Loop, BPM: p.cfg.bpm}
	if action.Pitch != nil {
		req.Pitch = *action.Pitch
	}
	return sequencer.New(p.target, p.songs).Play(req)
}

// StartMetronome schedules clicks at origin and returns the time the last one
// ends. The action's value is the bpm and its time, when set, the beats per
// bar.
func (p *Player) StartMetronome(action keybind.Action, origin int) (int, error) {
	if action.Kind != keybind.ActionMetronome {
		return 0, fault.New("not a metronome action: " + action.Kind.String())
	}
	req := sequencer.MetronomeRequest{BPM: action.Value, Beats: p.cfg.metronomeBeats, Start: origin}
	if action.Time != nil {
		req.Time = *action.Time
	}
	end, err := sequencer.Metronome(p.target, req)
	if err != nil {
		return 0, fault.Wrap(err, fmsg.With("start metronome"))
	}
	return end, nil
}

// PresetKey identifies one soundfont program a keybind table needs.
type PresetKey struct {
	Soundfont string
	Preset    int
}

// CollectPresets returns the distinct soundfont and preset pairs used by the
// songs bound in the current table, sorted. Songs without a soundfont line use
// the keybind default, and songs without a preset line use 0. Songs that
// cannot be read are logged and skipped.
func (p *Player) CollectPresets() ([]PresetKey, error) {
	p.mu.Lock()
	table, soundfont := p.table, p.soundfont
	p.mu.Unlock()

	seen := map[PresetKey]struct{}{}
	for _, b := range table.SongFiles() {
		song, err := p.songs.LoadSong(b.Action.Filename)
		if songfs.IsNotFound(err) {
			logger.Warn("song not found, skipping", logger.Fields{"file": b.Action.Filename, "key": b.Key})
			continue
		}
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("collect presets"))
		}
		k := PresetKey{Soundfont: soundfont, Preset: song.Options.PresetOr(0)}
		if song.Options.Soundfont != "" {
			k.Soundfont = song.Options.Soundfont
		}
		seen[k] = struct{}{}
	}

	keys := make([]PresetKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Soundfont != keys[j].Soundfont {
			return keys[i].Soundfont < keys[j].Soundfont
		}
		return keys[i].Preset < keys[j].Preset
	})
	return keys, nil
}

// Press runs the action bound to key under mod at time at. Unbound keys and
// keys already held are ignored.
func (p *Player) Press(mod keybind.Modifier, key string, at int) error {
	p.mu.Lock()
	if _, down := p.held[key]; down {
		p.mu.Unlock()
		return nil
	}
	action, ok := p.table.Lookup(mod, key)
	if !ok && !p.armed {
		p.mu.Unlock()
		return nil
	}

	switch {
	case ok && action.Kind == keybind.ActionExit:
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventExit, Key: key})
		return nil
	case ok && action.Kind == keybind.ActionMute:
		p.muted = !p.muted
		muted := p.muted
		p.mu.Unlock()
		if muted {
			p.sendEvent(PlaybackEvent{Kind: EventMuted, Key: key})
			p.stopAll(key)
		} else {
			p.sendEvent(PlaybackEvent{Kind: EventUnmuted, Key: key})
		}
		return nil
	case ok && action.Kind == keybind.ActionStop:
		p.mu.Unlock()
		p.stopAll(key)
		return nil
	case ok && action.Kind == keybind.ActionReload:
		path := p.path
		p.mu.Unlock()
		if path == "" {
			return nil
		}
		return p.LoadKeybinds(path)
	}
	if p.muted {
		p.mu.Unlock()
		return nil
	}

	if p.recording != nil {
		p.recording.Press(key, action, p.pitch, at)
	}
	if p.armed {
		err := p.startRecording(mod, key)
		var name, session string
		if err == nil {
			name, session = p.recording.Filename, p.recording.ID.String()
		}
		p.mu.Unlock()
		if err != nil {
			return err
		}
		p.sendEvent(PlaybackEvent{Kind: EventRecordStarted, Key: key, Filename: name, Session: session})
		return nil
	}

	switch action.Kind {
	case keybind.ActionNote, keybind.ActionChord:
		h := heldKey{keys: make([]int, len(action.Pitches))}
		velocity := p.volume * 127 / 100
		for i, pitch := range action.Pitches {
			h.keys[i] = sequencer.ShiftPitch(pitch, p.pitch)
			p.target.ScheduleNoteOn(at, h.channel, h.keys[i], velocity)
		}
		p.held[key] = h
		p.mu.Unlock()
		return nil
	case keybind.ActionVolume:
		p.volume = clampInt(p.volume+action.Value, 0, MaxVolume)
		v := p.volume
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventVolumeChanged, Key: key, Value: v})
		return nil
	case keybind.ActionPitch:
		p.pitch = clampInt(p.pitch+action.Value, -MaxPitchShift, MaxPitchShift)
		v := p.pitch
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventPitchChanged, Key: key, Value: v})
		return nil
	case keybind.ActionPreset:
		changed := p.preset != action.Value
		p.preset = action.Value
		p.mu.Unlock()
		if changed {
			p.sendEvent(PlaybackEvent{Kind: EventPresetChanged, Key: key, Value: action.Value})
		}
		return nil
	case keybind.ActionRecord:
		return p.toggleRecording(key, action)
	case keybind.ActionSong:
		if end, playing := p.active[key]; playing && end > at {
			delete(p.active, key)
			p.mu.Unlock()
			p.sendEvent(PlaybackEvent{Kind: EventSongStopped, Key: key, Filename: action.Filename})
			return nil
		}
		p.mu.Unlock()
		res, err := p.PlaySong(action, at)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.active[key] = res.Makespan
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventSongStarted, Key: key, Value: res.Makespan, Filename: action.Filename})
		return nil
	case keybind.ActionMetronome:
		if p.metronome > at {
			p.metronome = 0
			p.mu.Unlock()
			p.sendEvent(PlaybackEvent{Kind: EventMetronomeStopped, Key: key})
			return nil
		}
		p.mu.Unlock()
		end, err := p.StartMetronome(action, at)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.metronome = end
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventMetronomeStarted, Key: key, Value: action.Value})
		return nil
	case keybind.ActionKeybinds:
		p.mu.Unlock()
		return p.LoadKeybinds(action.Filename)
	case keybind.ActionAudio:
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventAudio, Key: key, Filename: action.Filename})
		return nil
	case keybind.ActionRun:
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventRun, Key: key, Command: slices.Clone(action.Command)})
		return nil
	}
	p.mu.Unlock()
	return nil
}

// Release ends the notes started by key at time at.
func (p *Player) Release(key string, at int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recording != nil {
		p.recording.Release(key, at)
	}
	h, ok := p.held[key]
	if !ok {
		return
	}
	delete(p.held, key)
	for _, k := range h.keys {
		p.target.ScheduleNoteOff(at, h.channel, k)
	}
}

func (p *Player) stopAll(key string) {
	p.mu.Lock()
	clear(p.active)
	p.metronome = 0
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventStopAll, Key: key})
}

// toggleRecording arms a recording on the first press and saves it on the
// next. Called with p.mu held; it unlocks.
func (p *Player) toggleRecording(key string, action keybind.Action) error {
	if p.recording == nil {
		p.armed = true
		p.recordAction = action
		p.mu.Unlock()
		p.sendEvent(PlaybackEvent{Kind: EventRecordArmed, Key: key})
		return nil
	}
	s, dest := p.recording, p.dest
	name, err := s.Stop(p.preset, p.soundfont)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.recording = nil
	p.table.Bind(dest.mod, dest.key, s.SongAction())
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventRecordSaved, Key: dest.key, Filename: name, Session: s.ID.String()})
	return nil
}

// startRecording binds the armed recording to the pressed key. Called with
// p.mu held.
func (p *Player) startRecording(mod keybind.Modifier, key string) error {
	s, err := recorder.Start(p.cfg.files, key, p.recordAction, recorder.Options{
		Dir: p.cfg.recordingDir,
		Now: p.cfg.now,
	})
	if err != nil {
		return err
	}
	p.armed = false
	p.recording = s
	p.dest = recordDest{mod: mod, key: key}
	return nil
}

// ParseModifiers picks the modifier for a set of held modifier key names, in
// the order alt, alt_r, ctrl, ctrl_r. Unknown names are ignored.
func ParseModifiers(names ...string) keybind.Modifier {
	held := map[keybind.Modifier]bool{}
	for _, n := range names {
		if m, ok := keybind.ParseModifier(strings.ToLower(n)); ok {
			held[m] = true
		}
	}
	for _, m := range []keybind.Modifier{keybind.Alt, keybind.AltR, keybind.Ctrl, keybind.CtrlR} {
		if held[m] {
			return m
		}
	}
	return keybind.Normal
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
