package dsl

// Cursor walks the tokens of one line left to right.
type Cursor struct {
	File string
	toks []Token
	pos  int
	last Token
}

func NewCursor(file string, line Line) *Cursor {
	c := &Cursor{File: file, toks: line.Tokens}
	if len(line.Tokens) > 0 {
		c.last = line.Tokens[0]
	}
	return c
}

func (c *Cursor) Done() bool { return c.pos >= len(c.toks) }

func (c *Cursor) Peek() (Token, bool) {
	if c.Done() {
		return Token{}, false
	}
	return c.toks[c.pos], true
}

// Next consumes a token; what describes it in the error for a short line.
func (c *Cursor) Next(what string) (Token, error) {
	if c.Done() {
		return Token{}, MissingAfter(c.File, c.last, what)
	}
	tok := c.toks[c.pos]
	c.pos++
	c.last = tok
	return tok, nil
}

// Expect consumes a keyword token matching one of words.
func (c *Cursor) Expect(words ...string) (Token, error) {
	tok, err := c.Next("'" + words[0] + "'")
	if err != nil {
		return tok, err
	}
	if !IsKeyword(tok, words...) {
		return tok, Errorf(c.File, tok, "expected '%s', got %q", words[0], tok.Text)
	}
	return tok, nil
}

// Rest consumes and returns every remaining token.
func (c *Cursor) Rest() []Token {
	rest := c.toks[c.pos:]
	c.pos = len(c.toks)
	if len(rest) > 0 {
		c.last = rest[len(rest)-1]
	}
	return rest
}

// End fails when tokens remain on the line.
func (c *Cursor) End() error {
	if tok, ok := c.Peek(); ok {
		return Errorf(c.File, tok, "unexpected %q", tok.Text)
	}
	return nil
}
