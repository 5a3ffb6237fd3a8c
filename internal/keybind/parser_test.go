package keybind

import (
	"errors"
	"testing"

	"github.com/cbegin/pianokeys-go/internal/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int) *int { return &v }

func parseOne(t *testing.T, line string) Statement {
	t.Helper()
	stmts, err := Parse("keys.txt", line)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func TestParseActions(t *testing.T) {
	tests := []struct {
		line string
		key  string
		want Action
	}{
		{"q 60", "q", Action{Kind: ActionNote, Pitches: []int{60}}},
		{"w 60 64 67", "w", Action{Kind: ActionChord, Pitches: []int{60, 64, 67}}},
		{"up v +10", "up", Action{Kind: ActionVolume, Value: 10}},
		{"down volume -10", "down", Action{Kind: ActionVolume, Value: -10}},
		{"left pitch -12", "left", Action{Kind: ActionPitch, Value: -12}},
		{"r record", "r", Action{Kind: ActionRecord, Mode: RecordReplace}},
		{"r record append", "r", Action{Kind: ActionRecord, Mode: RecordAppend}},
		{"r record append songs/take.txt", "r", Action{Kind: ActionRecord, Mode: RecordAppend, Filename: "songs/take.txt"}},
		{"r record songs/take.txt", "r", Action{Kind: ActionRecord, Mode: RecordReplace, Filename: "songs/take.txt"}},
		{"1 song songs/a.txt", "1", Action{Kind: ActionSong, Filename: "songs/a.txt"}},
		{"2 song songs/a.txt loop 2 pitch -3", "2", Action{Kind: ActionSong, Filename: "songs/a.txt", Loop: ptr(2), Pitch: ptr(-3)}},
		{"3 song songs/a.txt pitch 5 l 4", "3", Action{Kind: ActionSong, Filename: "songs/a.txt", Loop: ptr(4), Pitch: ptr(5)}},
		{"z a samples/kick.wav", "z", Action{Kind: ActionAudio, Filename: "samples/kick.wav"}},
		{"x audio samples/s.mp3 v -5 e 900 s 100", "x", Action{Kind: ActionAudio, Filename: "samples/s.mp3", Start: ptr(100), End: ptr(900), Volume: ptr(-5)}},
		{"esc exit", "esc", Action{Kind: ActionExit}},
		{"m mute", "m", Action{Kind: ActionMute}},
		{"space stop", "space", Action{Kind: ActionStop}},
		{"f5 reload", "f5", Action{Kind: ActionReload}},
		{"p preset 12", "p", Action{Kind: ActionPreset, Value: 12}},
		{"t metronome 120", "t", Action{Kind: ActionMetronome, Value: 120}},
		{"t metronome 90 time 3", "t", Action{Kind: ActionMetronome, Value: 90, Time: ptr(3)}},
		{"k k keybinds/other.txt", "k", Action{Kind: ActionKeybinds, Filename: "keybinds/other.txt"}},
		{"o run xdg-open docs/help.pdf", "o", Action{Kind: ActionRun, Command: []string{"xdg-open", "docs/help.pdf"}}},
		{"Q SONG songs/a.txt LOOP 2", "Q", Action{Kind: ActionSong, Filename: "songs/a.txt", Loop: ptr(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			st := parseOne(t, tt.line)
			assert.Equal(t, StmtBind, st.Kind)
			assert.Equal(t, tt.key, st.Key)
			assert.Equal(t, tt.want, st.Action)
		})
	}
}

func TestParseConfigLines(t *testing.T) {
	stmts, err := Parse("keys.txt", `import keybinds/base.txt
ctrl
default preset 4
default soundfont fonts/piano.sf2
default volume 80
default pitch -12
normal`)
	require.NoError(t, err)
	require.Len(t, stmts, 7)

	assert.Equal(t, Statement{Kind: StmtImport, Line: 1, Path: "keybinds/base.txt"}, stmts[0])
	assert.Equal(t, Statement{Kind: StmtModifier, Line: 2, Modifier: Ctrl}, stmts[1])
	assert.Equal(t, ptr(4), stmts[2].Default.Preset)
	assert.Equal(t, "fonts/piano.sf2", stmts[3].Default.Soundfont)
	assert.Equal(t, ptr(80), stmts[4].Default.Volume)
	assert.Equal(t, ptr(-12), stmts[5].Default.Pitch)
	assert.Equal(t, Normal, stmts[6].Modifier)
}

func TestParseModifierNameAsKey(t *testing.T) {
	// a modifier name followed by an action is an ordinary binding
	st := parseOne(t, "alt 60")
	assert.Equal(t, StmtBind, st.Kind)
	assert.Equal(t, "alt", st.Key)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
		col  int
	}{
		{"key without action", "q", 1, 2},
		{"unknown verb", "q jump", 1, 3},
		{"chord with word", "q 60 x", 1, 6},
		{"volume not a number", "q v up", 1, 5},
		{"song without file", "q song", 1, 7},
		{"song file without extension", "q song intro", 1, 8},
		{"loop twice", "q song a.txt loop 1 loop 2", 1, 21},
		{"unknown song option", "q song a.txt fade 2", 1, 14},
		{"negative loop", "q song a.txt loop -1", 1, 19},
		{"exit with argument", "q exit now", 1, 8},
		{"run without command", "q run", 1, 6},
		{"unknown default", "\ndefault tempo 3", 2, 9},
		{"import without path", "import", 1, 7},
		{"metronome time twice", "q metronome 90 t 3 t 4", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.txt", tt.text)
			require.Error(t, err)
			var synErr *dsl.SyntaxError
			require.True(t, errors.As(err, &synErr), "want SyntaxError, got %T", err)
			assert.Equal(t, tt.line, synErr.Line)
			assert.Equal(t, tt.col, synErr.Col)
		})
	}
}

func TestActionStringParsesBack(t *testing.T) {
	actions := []Action{
		{Kind: ActionNote, Pitches: []int{60}},
		{Kind: ActionChord, Pitches: []int{60, 64, 67}},
		{Kind: ActionVolume, Value: 10},
		{Kind: ActionPitch, Value: -12},
		{Kind: ActionRecord, Mode: RecordReplace},
		{Kind: ActionRecord, Mode: RecordAppend, Filename: "songs/take.txt"},
		{Kind: ActionSong, Filename: "songs/a.txt", Loop: ptr(2), Pitch: ptr(-3)},
		{Kind: ActionAudio, Filename: "samples/s.mp3", Start: ptr(100), End: ptr(900), Volume: ptr(5)},
		{Kind: ActionExit},
		{Kind: ActionPreset, Value: 12},
		{Kind: ActionMetronome, Value: 90, Time: ptr(3)},
		{Kind: ActionKeybinds, Filename: "keybinds/other.txt"},
		{Kind: ActionRun, Command: []string{"xdg-open", "docs/help.pdf"}},
	}
	for _, a := range actions {
		t.Run(a.String(), func(t *testing.T) {
			st := parseOne(t, "q "+a.String())
			assert.Equal(t, a, st.Action)
		})
	}
	assert.Equal(t, "song songs/a.txt loop 2 pitch -3", actions[6].String())
}
