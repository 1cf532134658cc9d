// Command windrose renders an rp5 wind export to a PNG wind rose.
//
// Usage:
//
//	go run ./cmd/windrose -in khrabrovo.csv -out windrose.png
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/render"
	"github.com/couchcryptid/windrose-service/internal/windrose"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "windrose: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("windrose", flag.ContinueOnError)
	in := fs.String("in", "", "path to the rp5 CSV export")
	out := fs.String("out", "windrose.png", "path of the PNG to write")
	fontPath := fs.String("font", "", "TrueType font with Cyrillic glyphs (default: bundled)")
	size := fs.Int("size", render.DefaultDiameter, "polar plot diameter in pixels")
	verbose := fs.Bool("v", false, "log parse and render details to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -in")
	}

	opts := []render.Option{render.WithDiameter(*size)}
	if *fontPath != "" {
		font, err := render.LoadFont(*fontPath)
		if err != nil {
			return err
		}
		opts = append(opts, render.WithFont(font))
	}
	renderer, err := render.New(opts...)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	svc := windrose.NewService(renderer, logger, observability.NewUnregisteredMetrics())

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	set, err := svc.Ingest(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *in, err)
	}
	d, err := svc.Render(set)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, d.PNG, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Fprintf(stdout, "%s: %d records (%d skipped), calm %s -> %s\n",
		*in, set.Len(), set.Skipped, d.CalmPercent(), *out)
	return nil
}
