package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/leaderline/pkg/leaderline"
	"github.com/matzehuels/leaderline/pkg/pipeline"
	"github.com/matzehuels/leaderline/pkg/render"
	"github.com/matzehuels/leaderline/pkg/render/sink"
	"github.com/matzehuels/leaderline/pkg/scene"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var asJSON bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "resolve [scene]",
		Short: "Show the sockets, path and length chosen for every line",
		Long: `Show the sockets, path and length chosen for every line.

Auto sockets are resolved against the measured element boxes, so this is
the quickest way to see why a line leaves an element on a given side.
With --json the full computed frame is printed instead.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScene,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args[0], opts, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the computed frame as JSON")
	cmd.Flags().DurationVar(&opts.SettleTimeout, "settle-timeout", pipeline.DefaultSettleTimeout, "how long to wait for all elements to be measured")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, input string, opts pipeline.Options, asJSON bool) error {
	sc, err := pipeline.Load(ctx, input)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", input, err)
	}
	opts.Logger = c.Logger

	if asJSON {
		frame, err := pipeline.Reconcile(ctx, sc, opts)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		data, err := sink.RenderJSON(frame)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Measuring %d elements...", len(sc.Elements)))
	spinner.Start()
	frame, err := pipeline.Reconcile(ctx, sc, opts)
	if err != nil {
		spinner.StopWithError("Resolve failed")
		return fmt.Errorf("resolve: %w", err)
	}
	spinner.StopWithSuccess(fmt.Sprintf("Resolved %d lines", len(frame.Lines)))

	fmt.Println(StyleTitle.Render(input))
	fmt.Println(resolveTable(sc, frame.Lines))
	return nil
}

// resolveTable lays out one row per line.
func resolveTable(sc *scene.Scene, lines []render.Line) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, resolveRow(sc.Lines[i], l.Geometry))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Line", "From", "To", "Path", "Length", "Plugs", "Labels", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 4:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 7 && row >= 0 && row < len(rows) && rows[row][7] != "ok":
				return lipgloss.NewStyle().Foreground(colorYellow)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func resolveRow(def scene.Line, g *leaderline.Geometry) []string {
	if g == nil {
		return []string{def.ID, endpointName(def.From, ""), endpointName(def.To, ""), "-", "-", "-", "-", "unmeasured"}
	}

	var plugs []string
	for _, p := range g.Plugs {
		plugs = append(plugs, p.Kind.String())
	}
	var labels []string
	for _, pl := range g.Labels {
		labels = append(labels, pl.Slot.String())
	}

	state := "ok"
	switch {
	case !g.Visible:
		state = "hidden"
	case g.Empty:
		state = "empty"
	case g.Stale:
		state = "stale"
	}

	return []string{
		def.ID,
		endpointName(def.From, g.StartSocket.String()),
		endpointName(def.To, g.EndSocket.String()),
		g.PathType.String(),
		fmt.Sprintf("%.1f", g.Length),
		orDash(strings.Join(plugs, ", ")),
		orDash(strings.Join(labels, ", ")),
		state,
	}
}

func endpointName(ep scene.Endpoint, socket string) string {
	name := ep.Element
	if ep.Point != nil {
		name = fmt.Sprintf("(%g,%g)", ep.Point.X, ep.Point.Y)
	}
	if socket == "" {
		return name
	}
	return name + ":" + socket
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
