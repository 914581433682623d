package pipeline

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/leaderline/pkg/cache"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/render/sink"
	"github.com/matzehuels/leaderline/pkg/scene"
)

const testScene = `
width = 480
height = 240

[[element]]
id = "api"
x = 20
y = 80
w = 120
h = 60
text = "API"

[[element]]
id = "db"
x = 340
y = 80
w = 120
h = 60

[[line]]
id = "query"
from = "api:right"
to = "db:left"
path = "straight"
middle_label = "SELECT"

[[line]]
id = "ghost"
from = "db:top"
to = "api:top"
hidden = true
`

func mustScene(t *testing.T) *scene.Scene {
	t.Helper()
	sc, err := Parse(context.Background(), []byte(testScene), scene.FormatTOML, "test")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return sc
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"json", false},
		{"msgpack", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Invalid format error = %v, want INVALID_FORMAT", err)
	}
	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", o.Formats)
	}
	if o.Scale != DefaultScale || o.SettleTimeout != DefaultSettleTimeout || o.Logger == nil {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Padding != 0 {
		t.Errorf("Padding = %v without fit, want 0", o.Padding)
	}

	o = Options{Fit: true}
	o.SetRenderDefaults()
	if o.Padding != DefaultPadding {
		t.Errorf("Padding = %v with fit, want %v", o.Padding, DefaultPadding)
	}

	o = Options{Padding: -1}
	if err := o.ValidateForRender(); err == nil {
		t.Error("negative padding accepted")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	sc := mustScene(t)
	o := Options{Scale: 3, Animate: true, Fit: true, Padding: 4}

	if k := o.ArtifactKeyOpts(FormatPNG, sc); k.Scale != 3 || k.Animate {
		t.Errorf("png key = %+v, want scale and no animation", k)
	}
	if k := o.ArtifactKeyOpts(FormatSVG, sc); k.Scale != 0 || !k.Animate || !k.Fit {
		t.Errorf("svg key = %+v", k)
	}
	if k := o.ArtifactKeyOpts(FormatJSON, sc); k.Fit || k.Scale != 0 {
		t.Errorf("json key should ignore image flags: %+v", k)
	}
}

func TestReconcile(t *testing.T) {
	sc := mustScene(t)
	frame, err := Reconcile(context.Background(), sc, Options{})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	if frame.Width != 480 || len(frame.Elements) != 2 || len(frame.Lines) != 2 {
		t.Fatalf("frame = %+v", frame)
	}
	query := frame.Lines[0]
	if query.ID != "query" || query.Geometry == nil {
		t.Fatalf("first line = %+v", query)
	}
	if got, want := query.Geometry.Command, "M140,110 L340,110"; got != want {
		t.Errorf("Command = %q, want %q", got, want)
	}
	if len(query.Geometry.Labels) != 1 {
		t.Errorf("Labels = %+v", query.Geometry.Labels)
	}

	ghost := frame.Lines[1]
	if ghost.Geometry == nil || ghost.Geometry.Visible {
		t.Errorf("hidden line geometry = %+v", ghost.Geometry)
	}
}

func TestReconcileWithLatency(t *testing.T) {
	sc := mustScene(t)
	frame, err := Reconcile(context.Background(), sc, Options{Latency: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if frame.Lines[0].Geometry == nil {
		t.Fatal("no geometry after settling")
	}
}

func TestReconcileTimeout(t *testing.T) {
	sc := mustScene(t)
	_, err := Reconcile(context.Background(), sc, Options{
		Latency:       time.Second,
		SettleTimeout: 20 * time.Millisecond,
	})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("error = %v, want TIMEOUT", err)
	}
}

func TestRender(t *testing.T) {
	sc := mustScene(t)
	frame, err := Reconcile(context.Background(), sc, Options{})
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	artifacts, err := Render(context.Background(), frame, Options{Formats: []string{"svg", "json", "msgpack", "png"}, Scale: 1})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(artifacts) != 4 {
		t.Fatalf("artifacts = %d, want 4", len(artifacts))
	}
	if !strings.Contains(string(artifacts["svg"]), `id="line-query"`) {
		t.Error("svg is missing the query line")
	}
	if strings.Contains(string(artifacts["svg"]), `id="line-ghost"`) {
		t.Error("hidden line was drawn")
	}

	if _, err := Render(context.Background(), frame, Options{Formats: []string{"gif"}}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestRunnerCaches(t *testing.T) {
	sc := mustScene(t)
	runner := NewRunner(cache.NewMemoryCache(16), nil, nil)
	defer runner.Close()
	opts := Options{Formats: []string{"svg", "json"}}

	first, err := runner.Execute(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if first.CacheInfo.GeometryHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit the cache: %+v", first.CacheInfo)
	}
	if first.Stats.LineCount != 2 || first.SceneHash == "" {
		t.Errorf("result = %+v", first.Stats)
	}

	second, err := runner.Execute(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !second.CacheInfo.GeometryHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed the cache: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts["svg"], second.Artifacts["svg"]) {
		t.Error("cached svg differs")
	}

	refreshed, err := runner.Execute(context.Background(), sc, Options{Formats: []string{"svg"}, Refresh: true})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if refreshed.CacheInfo.GeometryHit || refreshed.CacheInfo.RenderHit {
		t.Errorf("refresh hit the cache: %+v", refreshed.CacheInfo)
	}
}

func TestRunnerRastersCachedFrame(t *testing.T) {
	sc := mustScene(t)
	runner := NewRunner(cache.NewMemoryCache(16), nil, nil)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, sc, Options{Formats: []string{"json"}}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	res, err := runner.Execute(ctx, sc, Options{Formats: []string{"png"}, Scale: 1})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.CacheInfo.GeometryHit || res.CacheInfo.RenderHit {
		t.Fatalf("cache info = %+v, want geometry hit and render miss", res.CacheInfo)
	}
	img, err := png.Decode(bytes.NewReader(res.Artifacts["png"]))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	// The straight line runs along y=110, left of the middle label.
	r, g, b, _ := img.At(160, 110).RGBA()
	if r>>8 < 200 || g>>8 > 160 || b>>8 > 120 {
		t.Errorf("line pixel = (%d, %d, %d), want coral", r>>8, g>>8, b>>8)
	}
}

func TestRunnerSharesFrameWithJSONSink(t *testing.T) {
	sc := mustScene(t)
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), sc, Options{Formats: []string{"json"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	f, err := sink.DecodeJSON(res.Artifacts["json"])
	if err != nil {
		t.Fatalf("DecodeJSON() error: %v", err)
	}
	if f.Lines[0].Geometry.Command != res.Frame.Lines[0].Geometry.Command {
		t.Error("json artifact and result frame disagree")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "scene.toml")
	if err := os.WriteFile(p, []byte(testScene), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := Load(context.Background(), p)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(sc.Lines) != 2 {
		t.Errorf("lines = %d, want 2", len(sc.Lines))
	}

	if _, err := Load(context.Background(), filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file error = %v, want NOT_FOUND", err)
	}
	if _, err := Parse(context.Background(), []byte("width = ["), scene.FormatTOML, "bad"); !errors.Is(err, errors.ErrCodeInvalidScene) {
		t.Errorf("bad scene error = %v, want INVALID_SCENE", err)
	}
}
