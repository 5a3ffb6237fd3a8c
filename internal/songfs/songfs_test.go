package songfs

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/cbegin/pianokeys-go/internal/dsl"
	"github.com/cbegin/pianokeys-go/internal/songdsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReadWrite(t *testing.T) {
	m := NewMemory(map[string]string{"songs/./a.txt": "60 s 0 d 1"})

	text, err := m.ReadText("songs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "60 s 0 d 1", text)

	require.NoError(t, m.WriteText("songs/b.txt", "pause d 1"))
	assert.Equal(t, []string{"songs/a.txt", "songs/b.txt"}, m.Paths())
}

func TestMissingFileIsTaggedNotFound(t *testing.T) {
	providers := map[string]Provider{
		"memory": NewMemory(nil),
		"dir":    Dir{Root: t.TempDir()},
	}
	for name, p := range providers {
		t.Run(name, func(t *testing.T) {
			_, err := p.ReadText("nope.txt")
			require.Error(t, err)
			assert.True(t, errors.Is(err, fs.ErrNotExist))
			assert.Equal(t, ftag.NotFound, ftag.Get(err))
			assert.True(t, IsNotFound(err))
			assert.Contains(t, err.Error(), "nope.txt")
		})
	}
}

func TestDirWriteCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	d := Dir{Root: root}

	require.NoError(t, d.WriteText("songs/recordings/q.txt", "60 start 0 duration 1\n"))
	text, err := d.ReadText("songs/recordings/q.txt")
	require.NoError(t, err)
	assert.Equal(t, "60 start 0 duration 1\n", text)

	// absolute paths bypass the root
	abs := filepath.Join(root, "songs", "recordings", "q.txt")
	text, err = Dir{Root: "/elsewhere"}.ReadText(abs)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestSongLoader(t *testing.T) {
	files := NewMemory(map[string]string{
		"a.txt":   "bpm 120\n60 64 start 0 duration 1",
		"bad.txt": "60 start",
	})
	l := NewSongLoader(files, songdsl.DefaultParserConfig())

	song, err := l.LoadSong("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", song.Name)
	require.Len(t, song.Events, 1)
	assert.Equal(t, 120, song.Options.BPMOr(0))

	_, err = l.LoadSong("bad.txt")
	var synErr *dsl.SyntaxError
	require.True(t, errors.As(err, &synErr))
	assert.Equal(t, "bad.txt", synErr.File)

	_, err = l.LoadSong("missing.txt")
	assert.True(t, IsNotFound(err))
}
