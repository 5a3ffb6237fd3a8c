package songfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
)

// Dir serves files from the operating system. Relative paths resolve against
// Root, or the working directory when Root is empty.
type Dir struct {
	Root string
}

func (d Dir) resolve(path string) string {
	if d.Root == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(d.Root, path)
}

func (d Dir) ReadText(path string) (string, error) {
	data, err := os.ReadFile(d.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return "", NotFound(path)
	}
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("read "+path))
	}
	return string(data), nil
}

func (d Dir) WriteText(path, text string) error {
	full := d.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fault.Wrap(err, fmsg.With("create directory for "+path))
	}
	if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
		return fault.Wrap(err, fmsg.With("write "+path))
	}
	return nil
}
