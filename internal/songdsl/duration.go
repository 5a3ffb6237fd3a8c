package songdsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Duration is a time value in song units: whole ticks, or beats once a tempo
// is applied. Fractions written as N/D or W N/D are normalized on parse.
type Duration float64

// Ticks truncates the value toward zero.
func (d Duration) Ticks() int { return int(d) }

// Scaled converts beats to milliseconds at bpm and truncates once, after
// scaling. A bpm of zero leaves the value in raw ticks.
func (d Duration) Scaled(bpm int) int {
	if bpm == 0 {
		return d.Ticks()
	}
	return int(float64(d) * (60000 / float64(bpm)))
}

func (d Duration) String() string {
	v := float64(d)
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ConvertToFloat parses a plain number, a fraction "N/D" or a mixed number
// "W N/D". The fraction is subtracted when the whole part is negative.
func ConvertToFloat(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}
	num, denom, ok := strings.Cut(text, "/")
	if !ok || strings.Contains(denom, "/") {
		return 0, fmt.Errorf("invalid duration %q", text)
	}
	var whole float64
	if lead, rest, found := strings.Cut(strings.TrimSpace(num), " "); found {
		w, err := strconv.ParseFloat(lead, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid whole part in %q", text)
		}
		whole = w
		num = rest
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numerator in %q", text)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(denom), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid denominator in %q", text)
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %q", text)
	}
	frac := n / d
	if whole < 0 {
		return whole - frac, nil
	}
	return whole + frac, nil
}
