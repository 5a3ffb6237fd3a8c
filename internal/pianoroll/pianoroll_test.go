package pianoroll

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/cbegin/pianokeys-go/internal/sequencer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpansPairInOrder(t *testing.T) {
	tl := &sequencer.Timeline{}
	tl.ScheduleNoteOn(0, 0, 60, 100)
	tl.ScheduleNoteOn(100, 0, 60, 80)
	tl.ScheduleNoteOff(200, 0, 60)
	tl.ScheduleNoteOff(300, 0, 60)
	tl.ScheduleNoteOn(250, 1, 60, 50)
	tl.ScheduleNoteOn(400, 0, 72, 90)

	spans := Spans(tl.Sorted())
	require.Len(t, spans, 4)
	assert.Equal(t, Span{Channel: 0, Key: 60, Velocity: 100, Start: 0, End: 200}, spans[0])
	assert.Equal(t, Span{Channel: 0, Key: 60, Velocity: 80, Start: 100, End: 300}, spans[1])
	// never released: ends at the last instruction
	assert.Equal(t, 400, spans[2].End)
	assert.Equal(t, 1, spans[2].Channel)
	assert.Equal(t, 400, spans[3].End)
}

func TestRenderEncodesPNG(t *testing.T) {
	tl := &sequencer.Timeline{}
	_, err := sequencer.Metronome(tl, sequencer.MetronomeRequest{BPM: 120, Time: 4, Beats: 8})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tl.Sorted(), Options{Width: 320, Height: 120}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestRenderEmptyUsesDefaults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, Options{}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, DefaultHeight, img.Bounds().Dy())
}
