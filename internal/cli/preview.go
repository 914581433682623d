package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/leaderline/pkg/attach"
	"github.com/matzehuels/leaderline/pkg/geom"
	"github.com/matzehuels/leaderline/pkg/leaderline"
	"github.com/matzehuels/leaderline/pkg/path"
	"github.com/matzehuels/leaderline/pkg/pipeline"
	"github.com/matzehuels/leaderline/pkg/render"
	"github.com/matzehuels/leaderline/pkg/render/sink"
	"github.com/matzehuels/leaderline/pkg/scene"
)

const (
	previewCols = 72
	previewRows = 22
	nudgeStep   = 5.0
)

// Preview styles
var (
	previewBorderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	previewElementStyle  = lipgloss.NewStyle().Foreground(colorGray)
	previewSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	previewLineStyle     = lipgloss.NewStyle().Foreground(colorYellow)
	previewStaleStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		output   string
		latency  time.Duration
		throttle time.Duration
	)

	cmd := &cobra.Command{
		Use:   "preview [scene]",
		Short: "Move elements in the terminal and watch the lines follow",
		Long: `Move elements in the terminal and watch the lines follow.

Every element is a live endpoint: nudging it fires a layout change, the
element is measured again and each attached line recomputes. --latency
slows measurement down to show how superseded results are discarded.

Keys:
  tab / shift+tab   select element
  arrows / hjkl     move the element by 5 (shift: by 20)
  p                 cycle the path type of all lines
  w                 write an SVG snapshot
  q                 quit`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScene,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = basePath("", args[0]) + ".preview.svg"
			}
			return c.runPreview(cmd.Context(), args[0], output, latency, throttle)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot file (default: <scene>.preview.svg)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "simulated measurement latency")
	cmd.Flags().DurationVar(&throttle, "throttle", attach.DefaultThrottle, "minimum interval between measurements of one element")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input, output string, latency, throttle time.Duration) error {
	sc, err := pipeline.Load(ctx, input)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", input, err)
	}

	// The terminal belongs to the UI; library logs would tear it.
	quiet := log.NewWithOptions(io.Discard, log.Options{})

	board := sc.NewBoard()
	board.SetLatency(latency)
	r := attach.New(board,
		attach.WithThrottle(throttle),
		attach.WithLayoutSource(board),
		attach.WithLogger(quiet),
	)
	defer r.Close()

	lines, err := pipeline.MountLines(r, sc, quiet)
	if err != nil {
		return err
	}
	defer func() {
		for _, l := range lines {
			l.Close()
		}
	}()

	m := newPreviewModel(input, sc, board, r, lines, output)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	for i, l := range lines {
		i := i
		unsub := l.OnChange(func(g *leaderline.Geometry) {
			p.Send(geometryMsg{index: i, geometry: g})
		})
		defer unsub()
	}

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if fm, ok := final.(previewModel); ok && fm.written != "" {
		printFile(fm.written)
	}
	return nil
}

// =============================================================================
// Messages
// =============================================================================

type geometryMsg struct {
	index    int
	geometry *leaderline.Geometry
}

type settledMsg struct {
	geometries []*leaderline.Geometry
	err        error
}

type statusMsg string

type errMsg struct{ err error }

type writtenMsg struct{ path string }

// =============================================================================
// previewModel - Interactive scene preview
// =============================================================================

type previewModel struct {
	source   string
	scene    *scene.Scene
	board    *scene.Board
	r        *attach.Reconciler
	lines    []*leaderline.Line
	geoms    []*leaderline.Geometry
	cursor   int
	pathIdx  int
	output   string
	written  string
	status   string
	settling bool
}

func newPreviewModel(source string, sc *scene.Scene, board *scene.Board, r *attach.Reconciler, lines []*leaderline.Line, output string) previewModel {
	return previewModel{
		source:   source,
		scene:    sc,
		board:    board,
		r:        r,
		lines:    lines,
		geoms:    make([]*leaderline.Geometry, len(lines)),
		pathIdx:  -1,
		output:   output,
		status:   "measuring elements...",
		settling: true,
	}
}

func (m previewModel) Init() tea.Cmd {
	r, lines := m.r, m.lines
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pipeline.DefaultSettleTimeout)
		defer cancel()
		err := r.Settle(ctx)
		out := make([]*leaderline.Geometry, len(lines))
		for i, l := range lines {
			l.Refresh()
			out[i] = l.Geometry()
		}
		return settledMsg{geometries: out, err: err}
	}
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settledMsg:
		m.settling = false
		copy(m.geoms, msg.geometries)
		m.status = fmt.Sprintf("%d lines ready", len(m.lines))
		if msg.err != nil {
			m.status = "some elements were not measured: " + msg.err.Error()
		}
	case geometryMsg:
		if msg.index >= 0 && msg.index < len(m.geoms) {
			m.geoms[msg.index] = msg.geometry
		}
	case statusMsg:
		m.status = string(msg)
	case errMsg:
		m.status = "error: " + msg.err.Error()
	case writtenMsg:
		m.written = msg.path
		m.status = "wrote " + msg.path
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m previewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.scene.Elements)
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case "shift+tab":
		if n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
	case "left", "h":
		return m, m.nudge(-nudgeStep, 0)
	case "right", "l":
		return m, m.nudge(nudgeStep, 0)
	case "up", "k":
		return m, m.nudge(0, -nudgeStep)
	case "down", "j":
		return m, m.nudge(0, nudgeStep)
	case "shift+left", "H":
		return m, m.nudge(-4*nudgeStep, 0)
	case "shift+right", "L":
		return m, m.nudge(4*nudgeStep, 0)
	case "shift+up", "K":
		return m, m.nudge(0, -4*nudgeStep)
	case "shift+down", "J":
		return m, m.nudge(0, 4*nudgeStep)
	case "p":
		m.pathIdx = (m.pathIdx + 1) % len(path.Types)
		return m, setPath(m.lines, path.Types[m.pathIdx])
	case "w":
		return m, writeSnapshot(m.frame(), m.output)
	}
	return m, nil
}

// Mutations run as commands: line listeners send messages back into the
// program, which must not happen from inside Update.
func (m previewModel) nudge(dx, dy float64) tea.Cmd {
	if len(m.scene.Elements) == 0 {
		return nil
	}
	el := attach.Element(m.scene.Elements[m.cursor].ID)
	board := m.board
	return func() tea.Msg {
		if err := board.Nudge(el, dx, dy); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func setPath(lines []*leaderline.Line, t path.Type) tea.Cmd {
	return func() tea.Msg {
		for _, l := range lines {
			if err := l.Apply(leaderline.Patch{Path: &t}); err != nil {
				return errMsg{err}
			}
		}
		return statusMsg("path: " + t.String())
	}
}

func writeSnapshot(f render.Frame, output string) tea.Cmd {
	return func() tea.Msg {
		if err := os.WriteFile(output, sink.RenderSVG(f), 0o644); err != nil {
			return errMsg{err}
		}
		return writtenMsg{path: output}
	}
}

// frame assembles the current boxes and geometries.
func (m previewModel) frame() render.Frame {
	f := pipeline.NewFrame(m.scene)
	for i := range f.Elements {
		if b, ok := m.board.Box(attach.Element(f.Elements[i].ID)); ok {
			f.Elements[i].Box = b
		}
	}
	for i, def := range m.scene.Lines {
		f.Lines = append(f.Lines, render.Line{ID: def.ID, Geometry: m.geoms[i]})
	}
	return f
}

// =============================================================================
// View
// =============================================================================

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Leaderline Preview"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.source))
	b.WriteString("\n\n")

	f := m.frame()
	b.WriteString(previewBorderStyle.Render(m.canvas(f)))
	b.WriteString("\n")

	if len(f.Elements) > 0 {
		e := f.Elements[m.cursor]
		b.WriteString(previewSelectedStyle.Render(e.ID))
		b.WriteString(StyleDim.Render(fmt.Sprintf("  x=%g y=%g w=%g h=%g", e.Box.X, e.Box.Y, e.Box.W, e.Box.H)))
		b.WriteString("\n")
	}
	for i, l := range f.Lines {
		b.WriteString(m.lineSummary(i, l))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.status))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab select  ←↑↓→ move  p path  w snapshot  q quit"))
	return b.String()
}

func (m previewModel) lineSummary(i int, l render.Line) string {
	g := l.Geometry
	if g == nil {
		return StyleDim.Render(fmt.Sprintf("  %s  waiting for measurement", l.ID))
	}
	text := fmt.Sprintf("  %s  %s → %s  %s  %.1f  rev %d",
		l.ID, g.StartSocket, g.EndSocket, g.PathType, g.Length, m.lines[i].Revision())
	switch {
	case g.Stale:
		return previewStaleStyle.Render(text + "  (stale)")
	case !g.Visible:
		return StyleDim.Render(text + "  (hidden)")
	}
	return StyleValue.Render(text)
}

// Cell kinds of the preview canvas.
const (
	cellEmpty = iota
	cellLine
	cellElement
	cellSelected
)

type cell struct {
	r    rune
	kind int
}

// canvas rasterizes the frame onto a character grid: lines first, element
// outlines on top.
func (m previewModel) canvas(f render.Frame) string {
	grid := make([][]cell, previewRows)
	for y := range grid {
		grid[y] = make([]cell, previewCols)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' '}
		}
	}
	sx := float64(previewCols) / math.Max(f.Width, 1)
	sy := float64(previewRows) / math.Max(f.Height, 1)
	toCell := func(p geom.Point) (int, int) {
		return int(math.Floor(p.X * sx)), int(math.Floor(p.Y * sy))
	}
	set := func(x, y int, r rune, kind int) {
		if y >= 0 && y < previewRows && x >= 0 && x < previewCols {
			grid[y][x] = cell{r: r, kind: kind}
		}
	}

	for _, l := range f.Lines {
		if !l.Drawable() {
			continue
		}
		var pts []geom.Point
		if sp := l.Geometry.Path(); sp != nil {
			pts = sp.Points()
		}
		for i := 1; i < len(pts); i++ {
			steps := int(math.Ceil(pts[i-1].Distance(pts[i])*math.Max(sx, sy))) + 1
			for s := 0; s <= steps; s++ {
				x, y := toCell(pts[i-1].Lerp(pts[i], float64(s)/float64(steps)))
				set(x, y, '·', cellLine)
			}
		}
		if len(pts) > 0 {
			x, y := toCell(pts[len(pts)-1])
			set(x, y, '●', cellLine)
		}
	}

	for i, e := range f.Elements {
		kind := cellElement
		if i == m.cursor {
			kind = cellSelected
		}
		x0, y0 := toCell(geom.Pt(e.Box.X, e.Box.Y))
		x1, y1 := toCell(geom.Pt(e.Box.X+e.Box.W, e.Box.Y+e.Box.H))
		x1, y1 = max(x1, x0+1), max(y1, y0+1)
		for x := x0; x <= x1; x++ {
			set(x, y0, '─', kind)
			set(x, y1, '─', kind)
		}
		for y := y0; y <= y1; y++ {
			set(x0, y, '│', kind)
			set(x1, y, '│', kind)
		}
		set(x0, y0, '╭', kind)
		set(x1, y0, '╮', kind)
		set(x0, y1, '╰', kind)
		set(x1, y1, '╯', kind)
		for j, r := range []rune(e.ID) {
			if x0+1+j >= x1 {
				break
			}
			set(x0+1+j, (y0+y1)/2, r, kind)
		}
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].kind == row[start].kind {
				continue
			}
			b.WriteString(cellStyle(row[start].kind).Render(runString(row[start:x])))
			start = x
		}
	}
	return b.String()
}

func cellStyle(kind int) lipgloss.Style {
	switch kind {
	case cellLine:
		return previewLineStyle
	case cellElement:
		return previewElementStyle
	case cellSelected:
		return previewSelectedStyle
	}
	return lipgloss.NewStyle()
}

func runString(cells []cell) string {
	rs := make([]rune, len(cells))
	for i, c := range cells {
		rs[i] = c.r
	}
	return string(rs)
}
