package keybind

import (
	"errors"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/cbegin/pianokeys-go/internal/logger"
)

// Reader supplies keybind file contents. A missing file must yield an error
// matching fs.ErrNotExist.
type Reader interface {
	ReadText(path string) (string, error)
}

// CycleError reports an import chain that leads back to a file still being
// loaded. Chain starts and ends with that file.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "import cycle: " + strings.Join(e.Chain, " -> ")
}

type Loader struct {
	files Reader
}

func NewLoader(files Reader) *Loader {
	return &Loader{files: files}
}

// Load builds a fresh table from path and its imports. Imports are merged in
// place, so whichever definition is processed last wins. Each file is read at
// most once per call; an import that is missing is logged and skipped.
func (l *Loader) Load(path string) (*Table, error) {
	s := &session{files: l.files, table: NewTable(), loaded: map[string]bool{}}
	if err := s.load(path, true); err != nil {
		return nil, err
	}
	return s.table, nil
}

type session struct {
	files  Reader
	table  *Table
	loaded map[string]bool
	stack  []string
}

func (s *session) load(file string, top bool) error {
	key := path.Clean(file)
	if i := slices.Index(s.stack, key); i >= 0 {
		chain := append(slices.Clone(s.stack[i:]), key)
		return &CycleError{Chain: chain}
	}
	if s.loaded[key] {
		logger.Debug("keybind import already loaded", logger.Fields{"file": key})
		return nil
	}

	text, err := s.files.ReadText(file)
	if err != nil {
		if !top && errors.Is(err, fs.ErrNotExist) {
			logger.Warn("keybind import not found, skipping", logger.Fields{"file": file})
			return nil
		}
		return fault.Wrap(err, fmsg.With("load keybinds "+file))
	}
	stmts, err := Parse(file, text)
	if err != nil {
		return err
	}

	s.stack = append(s.stack, key)
	mod := Normal
	for _, st := range stmts {
		switch st.Kind {
		case StmtImport:
			if err := s.load(st.Path, false); err != nil {
				return err
			}
		case StmtModifier:
			mod = st.Modifier
		case StmtDefault:
			s.table.Config.merge(st.Default)
		case StmtBind:
			s.table.Bind(mod, st.Key, st.Action)
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.loaded[key] = true
	return nil
}

func (c *Config) merge(o Config) {
	if o.Preset != nil {
		c.Preset = o.Preset
	}
	if o.Soundfont != "" {
		c.Soundfont = o.Soundfont
	}
	if o.Volume != nil {
		c.Volume = o.Volume
	}
	if o.Pitch != nil {
		c.Pitch = o.Pitch
	}
}
