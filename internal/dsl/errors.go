package dsl

import (
	"fmt"
	"strconv"
)

// SyntaxError reports a malformed statement. Line and Col are 1-based; Col is
// zero when the error applies to the line as a whole.
type SyntaxError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	var s string
	if e.File != "" {
		s += e.File + ":"
	}
	if e.Line != 0 {
		s += strconv.Itoa(e.Line) + ":"
		if e.Col != 0 {
			s += strconv.Itoa(e.Col) + ":"
		}
	}
	if s != "" {
		s += " "
	}
	return s + e.Msg
}

func Errorf(file string, tok Token, format string, args ...any) error {
	return &SyntaxError{File: file, Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

// MissingAfter reports a statement that ended right after tok.
func MissingAfter(file string, tok Token, what string) error {
	return &SyntaxError{
		File: file,
		Line: tok.Line,
		Col:  tok.Col + len(tok.Text),
		Msg:  "unexpected end of line, expected " + what,
	}
}
