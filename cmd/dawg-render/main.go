// Command dawg-render renders a project document to a WAV file and prints
// a level report.
//
// Usage:
//
//	dawg-render -in project.json -out mix.wav
//	dawg-render -in project.json -pattern p1 -rate 48000 -bits 24
//	dawg-render -in project.json -dry -fade -out preview.wav
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/alperkosan/dawg-render/engine"
	"github.com/alperkosan/dawg-render/measure/levels"
	"github.com/alperkosan/dawg-render/project"
	"github.com/alperkosan/dawg-render/renderer"
	"github.com/alperkosan/dawg-render/wav"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dawg-render:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		in      = flag.String("in", "", "project document to render (required)")
		out     = flag.String("out", "out.wav", "output WAV path")
		pattern = flag.String("pattern", "", "render a single pattern instead of the arrangement")
		rate    = flag.Float64("rate", renderer.DefaultSampleRate, "sample rate in Hz")
		bits    = flag.Int("bits", renderer.DefaultBitDepth, "bit depth: 16, 24 or 32")
		tempo   = flag.Float64("tempo", 0, "tempo override in BPM (0 = project tempo)")
		length  = flag.Float64("length", 0, "explicit render length in seconds (0 = computed)")
		maxSec  = flag.Float64("max", renderer.DefaultMaxSeconds, "hard render length ceiling in seconds")
		dry     = flag.Bool("dry", false, "skip insert effects, sends and latency compensation")
		fade    = flag.Bool("fade", false, "fade out the master over the final second")
		verbose = flag.Bool("v", false, "enable debug logging")
	)

	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing -in")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	proj, err := project.Decode(f)
	if err != nil {
		return err
	}

	req, err := proj.Request(*pattern)
	if err != nil {
		return err
	}

	if *tempo <= 0 {
		*tempo = proj.TempoBPM
	}

	opts := []renderer.Option{
		renderer.WithSampleRate(*rate),
		renderer.WithBitDepth(*bits),
		renderer.WithTempo(*tempo),
		renderer.WithMaxSeconds(*maxSec),
		renderer.WithLogger(log),
	}

	if *length > 0 {
		opts = append(opts, renderer.WithLength(*length))
	}

	if *dry {
		opts = append(opts, renderer.WithoutEffects())
	}

	if *fade {
		opts = append(opts, renderer.WithFadeOut())
	}

	r, err := renderer.New(engine.Offline{}, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := r.Render(ctx, req)
	if err != nil {
		return err
	}

	o, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer o.Close()

	if err := wav.Write(o, result.Buffer, result.BitDepth); err != nil {
		return err
	}

	report(os.Stdout, *out, result)

	return nil
}

func report(w *os.File, path string, result *renderer.Result) {
	rep := levels.Measure(result.Buffer)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", path)
	fmt.Fprintf(tw, "source\t%s\n", result.SourcePatternID)
	fmt.Fprintf(tw, "duration\t%.3f s\n", result.Duration)
	fmt.Fprintf(tw, "format\t%.0f Hz, %d bit, %d ch\n", result.SampleRate, result.BitDepth, result.Channels)
	fmt.Fprintf(tw, "peak\t%.2f dBFS\n", rep.PeakDB)
	fmt.Fprintf(tw, "rms\t%.2f dBFS\n", rep.RMSDB)

	if clipped := rep.Left.Clipped + rep.Right.Clipped; clipped > 0 {
		fmt.Fprintf(tw, "clipped\t%d samples\n", clipped)
	}

	tw.Flush()
}
