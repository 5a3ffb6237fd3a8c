package songdsl

import (
	"regexp"
	"slices"

	"github.com/cbegin/pianokeys-go/internal/dsl"
)

var (
	decimalToken  = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	fractionToken = regexp.MustCompile(`^[0-9]+/[0-9]+$`)
)

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser { return &Parser{cfg: cfg} }

// Parse reads a whole song. The first malformed line aborts the parse with a
// *dsl.SyntaxError; nothing partial is returned.
func (p *Parser) Parse(name, input string) (*Song, error) {
	song := &Song{Name: name, Events: []Event{}}
	for _, line := range dsl.Lines(input) {
		c := dsl.NewCursor(name, line)
		if err := p.parseLine(c, song); err != nil {
			return nil, err
		}
	}
	return song, nil
}

func (p *Parser) parseLine(c *dsl.Cursor, song *Song) error {
	first, _ := c.Peek()
	switch {
	case dsl.IsUnsigned(first.Text):
		return p.parseNotes(c, song)
	case dsl.IsKeyword(first, "pause"):
		return p.parsePause(c, song)
	case dsl.IsKeyword(first, "preset", "p"):
		c.Next("")
		v, err := nextUnsigned(c, "a preset number")
		if err != nil {
			return err
		}
		song.Options.Preset = &v
	case dsl.IsKeyword(first, "soundfont"):
		c.Next("")
		tok, err := c.Next("a soundfont file")
		if err != nil {
			return err
		}
		sf, err := dsl.Filename(c.File, tok)
		if err != nil {
			return err
		}
		song.Options.Soundfont = sf
	case dsl.IsKeyword(first, "bpm"):
		c.Next("")
		v, err := nextUnsigned(c, "a tempo")
		if err != nil {
			return err
		}
		song.Options.BPM = &v
	case dsl.IsKeyword(first, "signature"):
		c.Next("")
		tok, err := c.Next("beats per bar")
		if err != nil {
			return err
		}
		v, err := dsl.Unsigned(c.File, tok)
		if err != nil {
			return err
		}
		if v == 0 {
			return dsl.Errorf(c.File, tok, "signature must be at least 1")
		}
		song.Options.Signature = &Signature{Time: v}
	case dsl.IsFilename(first.Text):
		return p.parseSongRef(c, song)
	default:
		return dsl.Errorf(c.File, first, "unexpected %q at start of line", first.Text)
	}
	return c.End()
}

// parseNotes reads a note or chord: pitches are consumed greedily up to the
// start keyword.
func (p *Parser) parseNotes(c *dsl.Cursor, song *Song) error {
	var pitches []int
	for {
		tok, err := c.Next("'start'")
		if err != nil {
			return err
		}
		if dsl.IsKeyword(tok, "start", "s") {
			break
		}
		pitch, err := dsl.Unsigned(c.File, tok)
		if err != nil {
			return dsl.Errorf(c.File, tok, "expected a pitch or 'start', got %q", tok.Text)
		}
		pitches = append(pitches, pitch)
	}
	start, err := parseDuration(c)
	if err != nil {
		return err
	}
	if _, err := c.Expect("duration", "d"); err != nil {
		return err
	}
	dur, err := parseDuration(c)
	if err != nil {
		return err
	}
	if err := c.End(); err != nil {
		return err
	}
	if len(pitches) == 1 {
		song.Events = append(song.Events, NewNote(pitches[0], start, dur))
	} else {
		song.Events = append(song.Events, NewChord(pitches, start, dur))
	}
	return nil
}

func (p *Parser) parsePause(c *dsl.Cursor, song *Song) error {
	c.Next("")
	if _, err := c.Expect("duration", "d"); err != nil {
		return err
	}
	v, err := parseDuration(c)
	if err != nil {
		return err
	}
	if err := c.End(); err != nil {
		return err
	}
	song.Events = append(song.Events, NewPause(v))
	return nil
}

func (p *Parser) parseSongRef(c *dsl.Cursor, song *Song) error {
	tok, _ := c.Next("")
	filename := tok.Text
	if _, err := c.Expect("start", "s"); err != nil {
		return err
	}
	start, err := parseDuration(c)
	if err != nil {
		return err
	}
	loop, pitch := DefaultLoop, 0
	seen := map[string]bool{}
	for !c.Done() {
		kw, _ := c.Next("")
		switch {
		case dsl.IsKeyword(kw, "loop", "l"):
			if seen["loop"] {
				return dsl.Errorf(c.File, kw, "loop given twice")
			}
			seen["loop"] = true
			if loop, err = nextUnsigned(c, "a loop count"); err != nil {
				return err
			}
		case dsl.IsKeyword(kw, "pitch"):
			if seen["pitch"] {
				return dsl.Errorf(c.File, kw, "pitch given twice")
			}
			seen["pitch"] = true
			v, err := c.Next("a pitch shift")
			if err != nil {
				return err
			}
			if pitch, err = dsl.Signed(c.File, v); err != nil {
				return err
			}
		default:
			return dsl.Errorf(c.File, kw, "unexpected %q", kw.Text)
		}
	}
	if !slices.Contains(p.cfg.SongExtensions, dsl.Extension(filename)) {
		return nil
	}
	song.Events = append(song.Events, NewSongRef(filename, start, loop, pitch))
	return nil
}

func parseDuration(c *dsl.Cursor) (Duration, error) {
	tok, err := c.Next("a duration")
	if err != nil {
		return 0, err
	}
	text := tok.Text
	switch {
	case decimalToken.MatchString(text):
		if next, ok := c.Peek(); ok && dsl.IsUnsigned(text) && fractionToken.MatchString(next.Text) {
			c.Next("")
			text += " " + next.Text
		}
	case fractionToken.MatchString(text):
	default:
		return 0, dsl.Errorf(c.File, tok, "invalid duration %q", tok.Text)
	}
	v, err := ConvertToFloat(text)
	if err != nil {
		return 0, dsl.Errorf(c.File, tok, "%v", err)
	}
	return Duration(v), nil
}

func nextUnsigned(c *dsl.Cursor, what string) (int, error) {
	tok, err := c.Next(what)
	if err != nil {
		return 0, err
	}
	return dsl.Unsigned(c.File, tok)
}
