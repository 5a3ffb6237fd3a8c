// Package dsl holds the line/token layer shared by the song and keybind languages.
package dsl

import (
	"regexp"
	"strconv"
	"strings"
)

type Token struct {
	Text string
	Line int
	Col  int
}

type Line struct {
	Number int
	Tokens []Token
}

var filenamePattern = regexp.MustCompile(`^[\p{L}\p{N}_/.,-]+\.[A-Za-z0-9]+$`)

// Lines splits src into logical lines. Comments run from "//" to the end of
// the line; lines left empty are dropped.
func Lines(src string) []Line {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	raw := strings.Split(src, "\n")
	out := make([]Line, 0, len(raw))
	for i, text := range raw {
		text = strings.TrimSuffix(text, "\r")
		if idx := strings.Index(text, "//"); idx >= 0 {
			text = text[:idx]
		}
		toks := tokenize(text, i+1)
		if len(toks) == 0 {
			continue
		}
		out = append(out, Line{Number: i + 1, Tokens: toks})
	}
	return out
}

func tokenize(text string, lineNo int) []Token {
	var toks []Token
	i := 0
	for i < len(text) {
		if isSpace(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) && !isSpace(text[i]) {
			i++
		}
		toks = append(toks, Token{Text: text[start:i], Line: lineNo, Col: start + 1})
	}
	return toks
}

// IsKeyword reports whether tok matches one of words, ignoring case.
func IsKeyword(tok Token, words ...string) bool {
	for _, w := range words {
		if strings.EqualFold(tok.Text, w) {
			return true
		}
	}
	return false
}

func IsFilename(text string) bool { return filenamePattern.MatchString(text) }

// Extension returns the text after the last dot, or "" when there is none.
func Extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

func IsUnsigned(text string) bool {
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}

func IsSigned(text string) bool {
	if strings.HasPrefix(text, "+") || strings.HasPrefix(text, "-") {
		text = text[1:]
	}
	return IsUnsigned(text)
}

// Unsigned parses an unsigned integer token.
func Unsigned(file string, tok Token) (int, error) {
	if !IsUnsigned(tok.Text) {
		return 0, Errorf(file, tok, "expected a number, got %q", tok.Text)
	}
	v, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, Errorf(file, tok, "number %q out of range", tok.Text)
	}
	return v, nil
}

// Signed parses an integer token with an optional leading + or -.
func Signed(file string, tok Token) (int, error) {
	if !IsSigned(tok.Text) {
		return 0, Errorf(file, tok, "expected a signed number, got %q", tok.Text)
	}
	v, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, Errorf(file, tok, "number %q out of range", tok.Text)
	}
	return v, nil
}

// Filename validates a path token.
func Filename(file string, tok Token) (string, error) {
	if !IsFilename(tok.Text) {
		return "", Errorf(file, tok, "expected a file name with an extension, got %q", tok.Text)
	}
	return tok.Text, nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v' }
