package songdsl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestSerializeLines(t *testing.T) {
	song := &Song{
		Events: []Event{
			NewNote(60, 0, 4),
			NewChord([]int{60, 64, 67}, 4, 0.5),
			NewPause(250),
			NewSongRef("songs/a.txt", 8, 2, 0),
			NewSongRef("songs/b.txt", 1.25, 1, -7),
		},
		Options: Options{
			Preset:    intPtr(3),
			Soundfont: "fonts/piano.sf2",
			BPM:       intPtr(120),
			Signature: &Signature{Time: 4},
		},
	}
	want := "soundfont fonts/piano.sf2\n" +
		"preset 3\n" +
		"bpm 120\n" +
		"signature 4\n" +
		"60 start 0 duration 4\n" +
		"60 64 67 start 4 duration 0.5\n" +
		"pause duration 250\n" +
		"songs/a.txt start 8 loop 2\n" +
		"songs/b.txt start 1.25 loop 1 pitch -7\n"
	assert.Equal(t, want, Serialize(song))

	var buf bytes.Buffer
	require.NoError(t, WriteSong(&buf, song))
	assert.Equal(t, want, buf.String())
}

func TestSerializeEmptySong(t *testing.T) {
	assert.Equal(t, "", Serialize(&Song{}))
}

func TestSerializeRoundTrip(t *testing.T) {
	sources := []string{
		"60 start 0 duration 4\n62 start 4 duration 4",
		"bpm 90\npreset 2\n60 64 start 1/4 duration 1 1/2",
		"soundfont fonts/x.sf2\nsignature 3\npause d 100\nsub.txt s 3 pitch 5 loop 4",
		"",
	}
	p := NewParser(DefaultParserConfig())
	for _, src := range sources {
		first, err := p.Parse("a.txt", src)
		require.NoError(t, err)
		second, err := p.Parse("a.txt", Serialize(first))
		require.NoError(t, err, "reparse of %q", Serialize(first))
		assert.Equal(t, first.Events, second.Events)
		assert.Equal(t, first.Options, second.Options)
	}
}
