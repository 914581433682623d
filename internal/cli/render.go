package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/matzehuels/leaderline/pkg/pipeline"
	"github.com/matzehuels/leaderline/pkg/render"
)

// renderFlags holds the render command flags that are not pipeline options.
type renderFlags struct {
	output   string // output file (single format) or base path
	formats  string // comma-separated output formats
	copyPath bool   // copy the first written path to the clipboard
	cache    cacheFlags
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "Render a scene to SVG, PNG, JSON or msgpack",
		Long: `Render a scene to SVG, PNG, JSON or msgpack.

The scene is read from a .toml, .yaml or .json file. Every element is
measured, every line is resolved against its endpoints and the resulting
frame is written once per requested format. With a single format, -o names
the output file ("-" writes to stdout); with several, -o is a base path and
each format adds its own extension.

Frames and artifacts are cached locally, keyed by the scene content.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScene,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(f.formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if f.output == "-" && len(opts.Formats) > 1 {
				return fmt.Errorf("cannot write %d formats to stdout", len(opts.Formats))
			}
			return c.runRender(cmd.Context(), args[0], opts, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, json, msgpack (comma-separated)")
	cmd.Flags().BoolVar(&f.copyPath, "copy-path", false, "copy the output path to the clipboard")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	f.cache.register(cmd)

	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG resolution factor")
	cmd.Flags().BoolVar(&opts.Fit, "fit", false, "grow the canvas to cover everything drawn")
	cmd.Flags().Float64Var(&opts.Padding, "padding", 0, "margin around fitted output (default 16 with --fit)")
	cmd.Flags().BoolVar(&opts.Animate, "animate", false, "animate dashed lines (SVG)")
	cmd.Flags().BoolVar(&opts.LinesOnly, "lines-only", false, "omit element boxes")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.Flags().DurationVar(&opts.SettleTimeout, "settle-timeout", pipeline.DefaultSettleTimeout, "how long to wait for all elements to be measured")

	return cmd
}

// runRender loads the scene, runs the pipeline and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, f renderFlags) error {
	sc, err := pipeline.Load(ctx, input)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, f.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d lines...", len(sc.Lines)))
	spinner.Start()

	result, err := runner.Execute(ctx, sc, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	for _, l := range result.Frame.Lines {
		if l.Geometry != nil && l.Geometry.Stale {
			printWarning("line %s was drawn from its last known position", l.ID)
		}
	}

	paths, err := writeArtifacts(ctx, artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    f.output,
	})
	if err != nil {
		return err
	}
	printStats(result.Stats, result.CacheInfo.GeometryHit && result.CacheInfo.RenderHit)
	prog.done(fmt.Sprintf("Rendered %d lines", result.Stats.LineCount))

	if f.copyPath && len(paths) > 0 {
		if err := clipboard.WriteAll(paths[0]); err != nil {
			printWarning("could not copy path: %v", err)
		} else {
			printDetail("Copied %s to the clipboard", paths[0])
		}
	}
	if len(paths) > 0 && f.output != "-" {
		printNextStep("Inspect lines", fmt.Sprintf("%s resolve %s", appName, input))
	}
	return nil
}

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes one file per format and returns the absolute
// paths written. Output "-" writes the single artifact to stdout.
func writeArtifacts(ctx context.Context, p artifactWriteParams) ([]string, error) {
	logger := loggerFromContext(ctx)
	var paths []string
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return paths, fmt.Errorf("no %s artifact was rendered", format)
		}
		if p.output == "-" {
			if _, err := os.Stdout.Write(data); err != nil {
				return paths, err
			}
			continue
		}

		path := outputPath(p.output, p.input, format, len(p.formats) > 1)
		began := time.Now()
		if err := writeFile(path, data); err != nil {
			return paths, err
		}
		logger.Debug("wrote artifact", "path", path, "bytes", len(data), "duration", time.Since(began))

		printFile(path)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath picks the file for one format. A single format honors an
// explicit output name; otherwise the base path gets the format extension.
func outputPath(output, input, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	ext := ".svg"
	if f, err := render.ParseFormat(format); err == nil {
		ext = f.Ext()
	}
	return basePath(output, input) + ext
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, err := render.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
