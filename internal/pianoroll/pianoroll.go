// Package pianoroll draws scheduled notes as a piano-roll image.
package pianoroll

import (
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/cbegin/pianokeys-go/internal/sequencer"
	"github.com/fogleman/gg"
)

const (
	DefaultWidth   = 1200
	DefaultHeight  = 480
	rowPadding     = 2
	gridIntervalMs = 1000
	noteRadius     = 2
)

type Color struct {
	R, G, B float64
}

var (
	backgroundColor = Color{0.11, 0.11, 0.13}
	noteColor       = Color{0.36, 0.72, 0.95}
)

type Options struct {
	Width  int
	Height int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Span is one sounding note, from its note-on to the matching note-off.
type Span struct {
	Channel  int
	Key      int
	Velocity int
	Start    int
	End      int
}

// Spans pairs note-ons with note-offs per channel and key, first in first
// out. Notes never released end at the last instruction time.
func Spans(instructions []sequencer.Instruction) []Span {
	type voice struct{ channel, key int }
	open := map[voice][]int{}
	var spans []Span
	last := 0
	for _, in := range instructions {
		last = max(last, in.Time)
		v := voice{in.Channel, in.Key}
		switch in.Kind {
		case sequencer.NoteOn:
			open[v] = append(open[v], len(spans))
			spans = append(spans, Span{Channel: in.Channel, Key: in.Key, Velocity: in.Velocity, Start: in.Time, End: -1})
		case sequencer.NoteOff:
			if q := open[v]; len(q) > 0 {
				spans[q[0]].End = in.Time
				open[v] = q[1:]
			}
		}
	}
	for i := range spans {
		if spans[i].End < 0 {
			spans[i].End = last
		}
	}
	return spans
}

// Render draws instructions, which must be in time order, and encodes the
// image as PNG.
func Render(w io.Writer, instructions []sequencer.Instruction, opts Options) error {
	opts = opts.withDefaults()
	dc := gg.NewContext(opts.Width, opts.Height)
	setRGBColor(dc, backgroundColor)
	dc.Clear()

	spans := Spans(instructions)
	end := 1
	lo, hi := 127, 0
	for _, s := range spans {
		end = max(end, s.End)
		lo = min(lo, s.Key)
		hi = max(hi, s.Key)
	}
	if len(spans) == 0 {
		lo, hi = 60, 60
	}
	lo = max(lo-rowPadding, 0)
	hi = min(hi+rowPadding, 127)

	w64, h64 := float64(opts.Width), float64(opts.Height)
	xScale := w64 / float64(end)
	rowH := h64 / float64(hi-lo+1)

	drawGrid(dc, end, xScale, h64)
	for _, s := range spans {
		x := float64(s.Start) * xScale
		y := float64(hi-s.Key) * rowH
		width := max(float64(s.End-s.Start)*xScale, 1)
		dc.DrawRoundedRectangle(x, y, width, rowH, noteRadius)
		alpha := 0.35 + 0.65*float64(s.Velocity)/127
		dc.SetRGBA(noteColor.R, noteColor.G, noteColor.B, alpha)
		dc.FillPreserve()
		dc.SetRGBA(0, 0, 0, 1)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	if err := dc.EncodePNG(w); err != nil {
		return fault.Wrap(err, fmsg.With("encode piano roll"))
	}
	return nil
}

func drawGrid(dc *gg.Context, end int, xScale, h float64) {
	for t := gridIntervalMs; t < end; t += gridIntervalMs {
		x := float64(t) * xScale
		dc.SetRGBA(1, 1, 1, 0.15)
		dc.SetLineWidth(0.5)
		dc.DrawLine(x, 0, x, h)
		dc.Stroke()
	}
}

func setRGBColor(dc *gg.Context, c Color) {
	dc.SetRGB(c.R, c.G, c.B)
}
