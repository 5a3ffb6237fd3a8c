package songfs

import (
	"github.com/cbegin/pianokeys-go/internal/songdsl"
)

// SongLoader reads song files from a Provider and parses them.
type SongLoader struct {
	Files  Provider
	Parser *songdsl.Parser
}

func NewSongLoader(files Provider, cfg songdsl.ParserConfig) *SongLoader {
	return &SongLoader{Files: files, Parser: songdsl.NewParser(cfg)}
}

// LoadSong returns a fresh parse of path on every call.
func (l *SongLoader) LoadSong(path string) (*songdsl.Song, error) {
	text, err := l.Files.ReadText(path)
	if err != nil {
		return nil, err
	}
	return l.Parser.Parse(path, text)
}
