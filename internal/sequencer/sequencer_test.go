package sequencer

import (
	"errors"
	"testing"

	"github.com/cbegin/pianokeys-go/internal/dsl"
	"github.com/cbegin/pianokeys-go/internal/songdsl"
	"github.com/cbegin/pianokeys-go/internal/songfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeq(files map[string]string) (*Sequencer, *Timeline) {
	tl := &Timeline{}
	loader := songfs.NewSongLoader(songfs.NewMemory(files), songdsl.DefaultParserConfig())
	return New(tl, loader), tl
}

func mustParse(t *testing.T, text string) *songdsl.Song {
	t.Helper()
	song, err := songdsl.NewParser(songdsl.DefaultParserConfig()).Parse("", text)
	require.NoError(t, err)
	return song
}

func loops(n int) *int { return &n }

func on(time, key int) Instruction {
	return Instruction{Kind: NoteOn, Time: time, Key: key, Velocity: songdsl.DefaultVelocity}
}

func off(time, key int) Instruction {
	return Instruction{Kind: NoteOff, Time: time, Key: key}
}

func TestExpandScalesByTempo(t *testing.T) {
	seq, tl := newSeq(nil)
	res, err := seq.Expand(mustParse(t, "60 start 1 duration 1"), Request{BPM: 120})
	require.NoError(t, err)

	assert.Equal(t, []Instruction{on(500, 60), off(1000, 60)}, tl.Instructions)
	assert.Equal(t, 1000, res.Makespan)
}

func TestExpandRawTicksWithoutTempo(t *testing.T) {
	seq, tl := newSeq(nil)
	res, err := seq.Expand(mustParse(t, "60 start 10 duration 5"), Request{})
	require.NoError(t, err)

	assert.Equal(t, []Instruction{on(10, 60), off(15, 60)}, tl.Instructions)
	assert.Equal(t, 15, res.Makespan)
}

func TestExpandSongTempoOverridesRequest(t *testing.T) {
	seq, tl := newSeq(nil)
	_, err := seq.Expand(mustParse(t, "bpm 60\n60 start 0 duration 1"), Request{BPM: 120})
	require.NoError(t, err)
	assert.Equal(t, 1000, tl.Instructions[1].Time)
}

func TestExpandChordScalesThenTruncates(t *testing.T) {
	seq, tl := newSeq(nil)
	res, err := seq.Expand(mustParse(t, "60 64 67 start 0 duration 1/4"), Request{BPM: 120})
	require.NoError(t, err)

	require.Len(t, tl.Instructions, 6)
	for _, in := range tl.Instructions {
		if in.Kind == NoteOff {
			assert.Equal(t, 125, in.Time)
		}
	}
	assert.Equal(t, 125, res.Makespan)

	// 1/3 beat at 70 bpm is 285.71ms: truncated once after scaling
	seq, tl = newSeq(nil)
	_, err = seq.Expand(mustParse(t, "60 start 1/3 duration 1/3"), Request{BPM: 70})
	require.NoError(t, err)
	assert.Equal(t, 285, tl.Instructions[0].Time)
	assert.Equal(t, 570, tl.Instructions[1].Time)
}

func TestExpandPitchShiftClamps(t *testing.T) {
	tests := []struct {
		pitch, shift, want int
	}{
		{125, 10, 127},
		{5, -20, 0},
		{60, 12, 72},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShiftPitch(tt.pitch, tt.shift))

		seq, tl := newSeq(nil)
		song := &songdsl.Song{Events: []songdsl.Event{songdsl.NewNote(tt.pitch, 0, 1)}}
		_, err := seq.Expand(song, Request{Pitch: tt.shift})
		require.NoError(t, err)
		assert.Equal(t, tt.want, tl.Instructions[0].Key)
		assert.Equal(t, tt.want, tl.Instructions[1].Key)
	}
}

func TestExpandLoopDoublesInstructionsAndMakespan(t *testing.T) {
	song := mustParse(t, "60 start 0 duration 4\n62 start 1 duration 2")

	seq, once := newSeq(nil)
	r1, err := seq.Expand(song, Request{Loop: loops(1)})
	require.NoError(t, err)

	seq, twice := newSeq(nil)
	r2, err := seq.Expand(song, Request{Loop: loops(2)})
	require.NoError(t, err)

	assert.Equal(t, 2*once.Len(), twice.Len())
	assert.Equal(t, 2*r1.Makespan, r2.Makespan)
	// the second pass starts where the first one ended
	assert.Equal(t, on(4, 60), twice.Instructions[4])
	// only the first pass is reported as played
	assert.Len(t, r2.Played, 2)
}

func TestExpandEmptySongKeepsStart(t *testing.T) {
	seq, tl := newSeq(nil)
	res, err := seq.Expand(mustParse(t, ""), Request{Start: 250, Loop: loops(3), BPM: 120})
	require.NoError(t, err)
	assert.Equal(t, 250, res.Makespan)
	assert.Empty(t, res.Played)
	assert.Zero(t, tl.Len())
}

func TestExpandStartOffset(t *testing.T) {
	seq, tl := newSeq(nil)
	res, err := seq.Expand(mustParse(t, "60 start 0 duration 1"), Request{Start: 1000, BPM: 120})
	require.NoError(t, err)
	assert.Equal(t, []Instruction{on(1000, 60), off(1500, 60)}, tl.Instructions)
	assert.Equal(t, 1500, res.Makespan)
}

func TestExpandPauseIgnoresTempo(t *testing.T) {
	seq, tl := newSeq(nil)
	res, err := seq.Expand(mustParse(t, `60 start 0 duration 1
pause duration 100
62 start 0 duration 1`), Request{BPM: 120})
	require.NoError(t, err)

	assert.Equal(t, []Instruction{
		on(0, 60), off(500, 60),
		on(100, 62), off(600, 62),
	}, tl.Instructions)
	assert.Equal(t, 600, res.Makespan)
}

func TestExpandSubSongOffsetAndPitch(t *testing.T) {
	seq, tl := newSeq(map[string]string{
		"sub.txt": "62 start 0 duration 3",
	})
	res, err := seq.Expand(mustParse(t, "sub.txt start 10 pitch 2\n60 start 0 duration 5"), Request{Pitch: 1})
	require.NoError(t, err)

	assert.Equal(t, []Instruction{
		on(10, 65), off(13, 65),
		// the sub-song never moves the cursor
		on(0, 61), off(5, 61),
	}, tl.Instructions)
	assert.Equal(t, 13, res.Makespan)
}

func TestExpandSubSongLoopAndNesting(t *testing.T) {
	seq, tl := newSeq(map[string]string{
		"mid.txt":  "leaf.txt start 0 loop 2 pitch -1",
		"leaf.txt": "60 start 0 duration 3",
	})
	res, err := seq.Expand(mustParse(t, "mid.txt start 100 pitch 12"), Request{})
	require.NoError(t, err)

	assert.Equal(t, []Instruction{
		on(100, 71), off(103, 71),
		on(103, 71), off(106, 71),
	}, tl.Instructions)
	assert.Equal(t, 106, res.Makespan)
}

func TestExpandSubSongTempo(t *testing.T) {
	seq, tl := newSeq(map[string]string{
		"inherit.txt": "60 start 0 duration 1",
		"own.txt":     "bpm 60\n62 start 0 duration 1",
	})
	_, err := seq.Expand(mustParse(t, "bpm 120\ninherit.txt start 0\nown.txt start 0"), Request{})
	require.NoError(t, err)

	require.Len(t, tl.Instructions, 4)
	assert.Equal(t, 500, tl.Instructions[1].Time)
	assert.Equal(t, 1000, tl.Instructions[3].Time)
}

func TestExpandPlayedCoversNestedSongs(t *testing.T) {
	seq, _ := newSeq(map[string]string{"sub.txt": "62 start 0 duration 1"})
	res, err := seq.Expand(mustParse(t, "60 start 0 duration 1\nsub.txt start 0"), Request{Loop: loops(2)})
	require.NoError(t, err)

	var pitches []int
	for _, ev := range res.Played {
		pitches = append(pitches, ev.Pitches[0])
	}
	// each expansion of sub.txt reports its own first pass
	assert.Equal(t, []int{60, 62, 62}, pitches)
}

func TestPlayDetectsCycles(t *testing.T) {
	seq, _ := newSeq(map[string]string{
		"a.txt": "60 start 0 duration 1\nb.txt start 0",
		"b.txt": "songs/../a.txt start 0",
	})
	_, err := seq.Play(Request{Filename: "a.txt"})
	require.Error(t, err)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a.txt", "b.txt", "a.txt"}, cycle.Chain)
}

func TestExpandDetectsSelfReference(t *testing.T) {
	seq, _ := newSeq(nil)
	song := &songdsl.Song{Name: "self.txt", Events: []songdsl.Event{songdsl.NewSongRef("self.txt", 0, 1, 0)}}
	_, err := seq.Expand(song, Request{})
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
}

func TestExpandRepeatedSubSongIsNotACycle(t *testing.T) {
	seq, tl := newSeq(map[string]string{"sub.txt": "60 start 0 duration 1"})
	_, err := seq.Expand(mustParse(t, "sub.txt start 0\nsub.txt start 5"), Request{})
	require.NoError(t, err)
	assert.Equal(t, 4, tl.Len())
}

func TestExpandSkipsMissingSubSong(t *testing.T) {
	seq, tl := newSeq(nil)
	res, err := seq.Expand(mustParse(t, "gone.txt start 500\n60 start 0 duration 2"), Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, 2, res.Makespan)
}

func TestExpandPropagatesSubSongSyntaxError(t *testing.T) {
	seq, _ := newSeq(map[string]string{"bad.txt": "60 start"})
	_, err := seq.Expand(mustParse(t, "bad.txt start 0"), Request{})
	var synErr *dsl.SyntaxError
	require.True(t, errors.As(err, &synErr))
	assert.Equal(t, "bad.txt", synErr.File)
}

func TestPlayMissingFile(t *testing.T) {
	seq, _ := newSeq(nil)
	_, err := seq.Play(Request{Filename: "nope.txt"})
	require.Error(t, err)
	assert.True(t, songfs.IsNotFound(err))
}

func TestExpandExplicitZeroLoop(t *testing.T) {
	song := mustParse(t, "60 start 0 duration 10")

	seq, tl := newSeq(nil)
	res, err := seq.Expand(song, Request{Start: 40, Loop: loops(0)})
	require.NoError(t, err)
	assert.Zero(t, tl.Len())
	assert.Equal(t, 40, res.Makespan)
	assert.Empty(t, res.Played)

	// a nil loop plays once
	seq, tl = newSeq(nil)
	res, err = seq.Expand(song, Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, 10, res.Makespan)
}
