// Package songfs provides the text files that songs, keybinds and recordings
// are read from and written to.
package songfs

import (
	"fmt"
	"io/fs"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Provider reads and writes whole text files by path.
type Provider interface {
	ReadText(path string) (string, error)
	WriteText(path, text string) error
}

// NotFound builds the error returned for a missing file. It is tagged
// ftag.NotFound and matches fs.ErrNotExist.
func NotFound(path string) error {
	return fault.Wrap(
		fmt.Errorf("%s: %w", path, fs.ErrNotExist),
		ftag.With(ftag.NotFound),
		fmsg.With("file not found"),
	)
}

// IsNotFound reports whether err came from a missing file.
func IsNotFound(err error) bool {
	return ftag.Get(err) == ftag.NotFound
}
