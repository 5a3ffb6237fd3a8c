package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cbegin/pianokeys-go"
	"github.com/cbegin/pianokeys-go/internal/config"
	"github.com/cbegin/pianokeys-go/internal/logger"
	"github.com/cbegin/pianokeys-go/internal/midifile"
	"github.com/cbegin/pianokeys-go/internal/pianoroll"
	"github.com/cbegin/pianokeys-go/internal/sequencer"
	"github.com/cbegin/pianokeys-go/internal/songdsl"
	"github.com/cbegin/pianokeys-go/internal/songfs"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
)

const sentryFlushTimeout = 2 * time.Second

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

const usage = `usage: pianokeys <command> [flags] [file]

commands:
  expand     print the sorted schedule of a song
  midi       write a song as a MIDI file
  roll       draw a song as a PNG piano roll
  metronome  write a metronome as a MIDI file
  fmt        print a song in canonical form
  keys       list the bindings of a keybind file
  presets    list the soundfont presets a keybind file needs
  script     replay timed key presses from stdin and print the schedule
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "pianokeys@" + releaseVersion,
			Debug:       !cfg.IsProduction(),
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(cfg, os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		logger.Error("command failed", err, logger.Fields{"command": os.Args[1]})
		sentry.Flush(sentryFlushTimeout)
		os.Exit(1)
	}
}

func run(cfg *config.Config, cmd string, args []string, stdin io.Reader, stdout io.Writer) error {
	files := songfs.Dir{}
	switch cmd {
	case "expand", "midi", "roll":
		return runSong(cfg, files, cmd, args, stdout)
	case "metronome":
		return runMetronome(cfg, args, stdout)
	case "fmt":
		return runFmt(files, args, stdout)
	case "keys", "presets", "script":
		return runKeys(cfg, files, cmd, args, stdin, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func runSong(cfg *config.Config, files songfs.Provider, cmd string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var (
		bpm    = fs.Int("bpm", cfg.BPM, "tempo for songs without a bpm line (0 = raw ticks)")
		loop   = fs.Int("loop", 1, "times to play the song")
		pitch  = fs.Int("pitch", 0, "semitone shift")
		start  = fs.Int("start", 0, "start time in ms")
		out    = fs.String("o", "", "output file (required for midi and roll)")
		width  = fs.Int("width", pianoroll.DefaultWidth, "roll width in pixels")
		height = fs.Int("height", pianoroll.DefaultHeight, "roll height in pixels")
	)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("%s needs exactly one song file", cmd)
	}
	req := sequencer.Request{Filename: fs.Arg(0), Start: *start, Loop: loop, Pitch: *pitch, BPM: *bpm}

	if cmd == "expand" {
		tl, res, err := pianokeys.Schedule(files, req)
		if err != nil {
			return err
		}
		return pianokeys.WriteSchedule(stdout, tl, res)
	}

	if *out == "" {
		return fmt.Errorf("%s needs -o", cmd)
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	var res sequencer.Result
	if cmd == "midi" {
		res, err = pianokeys.RenderMIDI(f, files, req)
	} else {
		res, err = pianokeys.RenderRoll(f, files, req, pianoroll.Options{Width: *width, Height: *height})
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (makespan %d ms)\n", *out, res.Makespan)
	return f.Close()
}

func runMetronome(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("metronome", flag.ExitOnError)
	var (
		bpm   = fs.Int("bpm", 120, "beats per minute")
		per   = fs.Int("time", 4, "beats per bar")
		beats = fs.Int("beats", cfg.MetronomeBeats, "number of beats")
		out   = fs.String("o", "metronome.mid", "output file")
	)
	fs.Parse(args)

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	end, err := pianokeys.RenderMetronome(f, sequencer.MetronomeRequest{BPM: *bpm, Time: *per, Beats: *beats})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d ms)\n", *out, end)
	return f.Close()
}

func runFmt(files songfs.Provider, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	write := fs.Bool("w", false, "write the result back to the file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("fmt needs exactly one song file")
	}
	name := fs.Arg(0)
	song, err := songfs.NewSongLoader(files, songdsl.DefaultParserConfig()).LoadSong(name)
	if err != nil {
		return err
	}
	if *write {
		return files.WriteText(name, songdsl.Serialize(song))
	}
	return songdsl.WriteSong(stdout, song)
}

func runKeys(cfg *config.Config, files songfs.Provider, cmd string, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var (
		bpm        = fs.Int("bpm", cfg.BPM, "tempo for songs without a bpm line (0 = raw ticks)")
		soundfont  = fs.String("soundfont", cfg.Soundfont, "soundfont for songs and keybinds that name none")
		recordings = fs.String("recordings", cfg.Recordings, "directory for recordings")
		midiOut    = fs.String("midi", "", "script: also write the session as a MIDI file")
	)
	fs.Parse(args)
	path := cfg.Keybinds
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	tl := &sequencer.Timeline{}
	target := sequencer.NewMultiTarget(tl)
	var mw *midifile.Writer
	if *midiOut != "" {
		mw = midifile.NewWriter(midifile.Options{Name: path})
		target.AddTarget(mw)
	}

	pl, err := pianokeys.NewPlayer(
		pianokeys.WithTarget(target),
		pianokeys.WithFiles(files),
		pianokeys.WithBPM(*bpm),
		pianokeys.WithSoundfont(*soundfont),
		pianokeys.WithRecordingDir(*recordings),
		pianokeys.WithMetronomeBeats(cfg.MetronomeBeats),
	)
	if err != nil {
		return err
	}
	if err := pl.LoadKeybinds(path); err != nil {
		return err
	}

	switch cmd {
	case "keys":
		for _, b := range pl.Keybinds().Entries() {
			fmt.Fprintf(stdout, "%-7s %-8s %s\n", b.Modifier, b.Key, b.Action)
		}
		return nil
	case "presets":
		keys, err := pl.CollectPresets()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintf(stdout, "%s %d\n", k.Soundfont, k.Preset)
		}
		return nil
	}
	if err := runScript(pl, tl, stdin, stdout); err != nil {
		return err
	}
	if mw == nil {
		return nil
	}
	f, err := os.Create(*midiOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := mw.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// runScript reads lines of the form
//
//	<ms> press [modifier...] <key>
//	<ms> release <key>
//
// and prints the resulting schedule.
func runScript(pl *pianokeys.Player, tl *sequencer.Timeline, stdin io.Reader, stdout io.Writer) error {
	events := pl.Watch()
	sc := bufio.NewScanner(stdin)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 3 {
			return fmt.Errorf("script line %d: want <ms> press|release <key>", lineNo)
		}
		at, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("script line %d: bad time %q", lineNo, fields[0])
		}
		key := fields[len(fields)-1]
		switch fields[1] {
		case "press":
			if err := pl.Press(pianokeys.ParseModifiers(fields[2:len(fields)-1]...), key, at); err != nil {
				return fmt.Errorf("script line %d: %w", lineNo, err)
			}
		case "release":
			pl.Release(key, at)
		default:
			return fmt.Errorf("script line %d: unknown verb %q", lineNo, fields[1])
		}
		if exit := reportEvents(events, stdout); exit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return pianokeys.WriteSchedule(stdout, tl, sequencer.Result{Makespan: tl.End()})
}

func reportEvents(events <-chan pianokeys.PlaybackEvent, stdout io.Writer) (exit bool) {
	for {
		select {
		case ev := <-events:
			switch ev.Kind {
			case pianokeys.EventExit:
				fmt.Fprintln(stdout, "# exit")
				return true
			case pianokeys.EventRun:
				fmt.Fprintf(stdout, "# run %s\n", strings.Join(ev.Command, " "))
			case pianokeys.EventRecordSaved:
				fmt.Fprintf(stdout, "# recording %s saved to %s, bound to %s\n", ev.Session, ev.Filename, ev.Key)
			case pianokeys.EventSongStarted:
				fmt.Fprintf(stdout, "# %s: %s until %d\n", ev.Key, ev.Filename, ev.Value)
			case pianokeys.EventKeybindsLoaded:
				fmt.Fprintf(stdout, "# keybinds %s\n", ev.Filename)
			}
		default:
			return false
		}
	}
}
