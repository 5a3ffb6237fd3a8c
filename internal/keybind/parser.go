package keybind

import (
	"github.com/cbegin/pianokeys-go/internal/dsl"
)

type StatementKind int

const (
	StmtImport StatementKind = iota + 1
	StmtModifier
	StmtDefault
	StmtBind
)

// Statement is one parsed line of a keybind file. Default lines carry a
// Config with only the named field set.
type Statement struct {
	Kind     StatementKind
	Line     int
	Path     string
	Modifier Modifier
	Default  Config
	Key      string
	Action   Action
}

// Parse reads one keybind file without following its imports. The first
// malformed line aborts the parse with a *dsl.SyntaxError.
func Parse(name, text string) ([]Statement, error) {
	var out []Statement
	for _, line := range dsl.Lines(text) {
		c := dsl.NewCursor(name, line)
		st, err := parseLine(c, line)
		if err != nil {
			return nil, err
		}
		st.Line = line.Number
		out = append(out, st)
	}
	return out, nil
}

func parseLine(c *dsl.Cursor, line dsl.Line) (Statement, error) {
	first, _ := c.Next("")
	if len(line.Tokens) == 1 {
		if m, ok := ParseModifier(first.Text); ok {
			return Statement{Kind: StmtModifier, Modifier: m}, nil
		}
	}
	switch first.Text {
	case "import":
		path, err := nextFilename(c, "a file to import")
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtImport, Path: path}, c.End()
	case "default":
		cfg, err := parseDefault(c)
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtDefault, Default: cfg}, c.End()
	}
	action, err := parseAction(c)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: StmtBind, Key: first.Text, Action: action}, nil
}

func parseDefault(c *dsl.Cursor) (Config, error) {
	var cfg Config
	tok, err := c.Next("preset, soundfont, volume or pitch")
	if err != nil {
		return cfg, err
	}
	switch {
	case dsl.IsKeyword(tok, "preset"):
		v, err := nextUnsigned(c, "a preset number")
		if err != nil {
			return cfg, err
		}
		cfg.Preset = &v
	case dsl.IsKeyword(tok, "soundfont"):
		sf, err := nextFilename(c, "a soundfont file")
		if err != nil {
			return cfg, err
		}
		cfg.Soundfont = sf
	case dsl.IsKeyword(tok, "volume", "v"):
		v, err := nextUnsigned(c, "a volume")
		if err != nil {
			return cfg, err
		}
		cfg.Volume = &v
	case dsl.IsKeyword(tok, "pitch"):
		v, err := nextSigned(c, "a pitch")
		if err != nil {
			return cfg, err
		}
		cfg.Pitch = &v
	default:
		return cfg, dsl.Errorf(c.File, tok, "unknown default %q", tok.Text)
	}
	return cfg, nil
}

func parseAction(c *dsl.Cursor) (Action, error) {
	verb, err := c.Next("an action")
	if err != nil {
		return Action{}, err
	}
	var a Action
	switch {
	case dsl.IsUnsigned(verb.Text):
		return parsePitches(c, verb)
	case dsl.IsKeyword(verb, "volume", "v"):
		a.Kind = ActionVolume
		a.Value, err = nextSigned(c, "a volume change")
	case dsl.IsKeyword(verb, "pitch"):
		a.Kind = ActionPitch
		a.Value, err = nextSigned(c, "a pitch change")
	case dsl.IsKeyword(verb, "record"):
		a, err = parseRecord(c)
	case dsl.IsKeyword(verb, "song"):
		a.Kind = ActionSong
		if a.Filename, err = nextFilename(c, "a song file"); err != nil {
			return a, err
		}
		err = parseOptions(c, []option{
			{words: []string{"loop", "l"}, dst: &a.Loop},
			{words: []string{"pitch"}, signed: true, dst: &a.Pitch},
		})
	case dsl.IsKeyword(verb, "audio", "a"):
		a.Kind = ActionAudio
		if a.Filename, err = nextFilename(c, "an audio file"); err != nil {
			return a, err
		}
		err = parseOptions(c, []option{
			{words: []string{"start", "s"}, dst: &a.Start},
			{words: []string{"end", "e"}, dst: &a.End},
			{words: []string{"volume", "v"}, signed: true, dst: &a.Volume},
		})
	case dsl.IsKeyword(verb, "exit"):
		a.Kind = ActionExit
	case dsl.IsKeyword(verb, "mute"):
		a.Kind = ActionMute
	case dsl.IsKeyword(verb, "stop"):
		a.Kind = ActionStop
	case dsl.IsKeyword(verb, "reload"):
		a.Kind = ActionReload
	case dsl.IsKeyword(verb, "preset"):
		a.Kind = ActionPreset
		a.Value, err = nextUnsigned(c, "a preset number")
	case dsl.IsKeyword(verb, "metronome"):
		a.Kind = ActionMetronome
		if a.Value, err = nextUnsigned(c, "a tempo"); err != nil {
			return a, err
		}
		err = parseOptions(c, []option{{words: []string{"time", "t"}, dst: &a.Time}})
	case dsl.IsKeyword(verb, "keybinds", "k"):
		a.Kind = ActionKeybinds
		a.Filename, err = nextFilename(c, "a keybind file")
	case dsl.IsKeyword(verb, "run"):
		a.Kind = ActionRun
		rest := c.Rest()
		if len(rest) == 0 {
			return a, dsl.MissingAfter(c.File, verb, "a command")
		}
		for _, tok := range rest {
			a.Command = append(a.Command, tok.Text)
		}
	default:
		return a, dsl.Errorf(c.File, verb, "unknown action %q", verb.Text)
	}
	if err != nil {
		return a, err
	}
	return a, c.End()
}

// parsePitches reads the trailing integers of a note or chord binding.
func parsePitches(c *dsl.Cursor, first dsl.Token) (Action, error) {
	p, err := dsl.Unsigned(c.File, first)
	if err != nil {
		return Action{}, err
	}
	pitches := []int{p}
	for !c.Done() {
		tok, _ := c.Next("")
		p, err := dsl.Unsigned(c.File, tok)
		if err != nil {
			return Action{}, err
		}
		pitches = append(pitches, p)
	}
	if len(pitches) == 1 {
		return Action{Kind: ActionNote, Pitches: pitches}, nil
	}
	return Action{Kind: ActionChord, Pitches: pitches}, nil
}

// parseRecord reads "record [append] [file]"; the mode defaults to replace.
func parseRecord(c *dsl.Cursor) (Action, error) {
	a := Action{Kind: ActionRecord, Mode: RecordReplace}
	if tok, ok := c.Peek(); ok && dsl.IsKeyword(tok, "append") {
		c.Next("")
		a.Mode = RecordAppend
	}
	if _, ok := c.Peek(); ok {
		name, err := nextFilename(c, "a recording file")
		if err != nil {
			return a, err
		}
		a.Filename = name
	}
	return a, nil
}

type option struct {
	words  []string
	signed bool
	dst    **int
}

// parseOptions consumes keyword/value pairs in any order until the line ends.
func parseOptions(c *dsl.Cursor, opts []option) error {
	for !c.Done() {
		kw, _ := c.Next("")
		var opt *option
		for i := range opts {
			if dsl.IsKeyword(kw, opts[i].words...) {
				opt = &opts[i]
				break
			}
		}
		if opt == nil {
			return dsl.Errorf(c.File, kw, "unexpected %q", kw.Text)
		}
		if *opt.dst != nil {
			return dsl.Errorf(c.File, kw, "%s given twice", opt.words[0])
		}
		var v int
		var err error
		if opt.signed {
			v, err = nextSigned(c, "a number")
		} else {
			v, err = nextUnsigned(c, "a number")
		}
		if err != nil {
			return err
		}
		*opt.dst = &v
	}
	return nil
}

func nextUnsigned(c *dsl.Cursor, what string) (int, error) {
	tok, err := c.Next(what)
	if err != nil {
		return 0, err
	}
	return dsl.Unsigned(c.File, tok)
}

func nextSigned(c *dsl.Cursor, what string) (int, error) {
	tok, err := c.Next(what)
	if err != nil {
		return 0, err
	}
	return dsl.Signed(c.File, tok)
}

func nextFilename(c *dsl.Cursor, what string) (string, error) {
	tok, err := c.Next(what)
	if err != nil {
		return "", err
	}
	return dsl.Filename(c.File, tok)
}
