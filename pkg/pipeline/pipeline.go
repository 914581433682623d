// Package pipeline provides the scene render pipeline shared by the CLI and
// the HTTP service.
//
// This package implements the complete load → reconcile → render pipeline.
// By centralizing this logic, every entry point produces byte-identical
// artifacts for the same scene and options.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode and validate a TOML, YAML or JSON scene
//  2. Reconcile: Measure every element through an attach.Reconciler, mount
//     one leaderline.Line per scene line and wait until all endpoints settle
//  3. Render: Write the resulting frame as SVG, PNG, JSON or msgpack
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	sc, err := pipeline.Load(ctx, "scene.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, sc, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	frame, err := pipeline.Reconcile(ctx, sc, opts)
//	artifacts, err := pipeline.Render(ctx, frame, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/leaderline/pkg/cache"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/render"
	"github.com/matzehuels/leaderline/pkg/render/sink"
	"github.com/matzehuels/leaderline/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultSettleTimeout bounds how long Reconcile waits for every
	// endpoint to be measured.
	DefaultSettleTimeout = 10 * time.Second

	// DefaultScale is the PNG resolution factor.
	DefaultScale = 2.0

	// DefaultPadding is the margin added around fitted output.
	DefaultPadding = 16.0
)

// Format constants for output formats.
const (
	FormatSVG     = string(render.FormatSVG)
	FormatPNG     = string(render.FormatPNG)
	FormatJSON    = string(render.FormatJSON)
	FormatMsgpack = string(render.FormatMsgpack)
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:     true,
	FormatPNG:     true,
	FormatJSON:    true,
	FormatMsgpack: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the render pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Reconcile options
	SettleTimeout time.Duration `json:"settle_timeout,omitempty"`
	// Latency simulates a slow measurer; used by demos and tests.
	Latency time.Duration `json:"-"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	Fit       bool     `json:"fit,omitempty"`
	Padding   float64  `json:"padding,omitempty"`
	Animate   bool     `json:"animate,omitempty"`
	LinesOnly bool     `json:"lines_only,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the validated scene.
	Scene *scene.Scene

	// SceneHash is the content hash of the scene.
	SceneHash string

	// Frame holds the computed geometry of every line.
	Frame render.Frame

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ElementCount  int
	LineCount     int
	ReconcileTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GeometryHit bool // Whether the frame came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, json, msgpack)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetReconcileDefaults sets default values for reconciliation.
func (o *Options) SetReconcileDefaults() {
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = DefaultSettleTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Fit && o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := errors.ValidateFinite("scale", o.Scale, o.Padding); err != nil {
		return err
	}
	return errors.ValidateNonNegative("padding", o.Padding)
}

// ValidateAndSetDefaults applies defaults for the full pipeline. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	o.SetReconcileDefaults()
	return o.ValidateForRender()
}

// SinkOptions returns the format-independent sink settings.
func (o *Options) SinkOptions() sink.Options {
	return sink.Options{
		Scale:     o.Scale,
		Fit:       o.Fit,
		Padding:   o.Padding,
		Animate:   o.Animate,
		LinesOnly: o.LinesOnly,
	}
}

// ArtifactKeyOpts returns cache key options for one artifact of sc.
func (o *Options) ArtifactKeyOpts(format string, sc *scene.Scene) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Width:      sc.Width,
		Height:     sc.Height,
		Background: sc.Background,
	}
	switch format {
	case FormatPNG:
		k.Scale = o.Scale
		k.Fit, k.Padding, k.LinesOnly = o.Fit, o.Padding, o.LinesOnly
	case FormatSVG:
		k.Fit, k.Padding, k.LinesOnly = o.Fit, o.Padding, o.LinesOnly
		k.Animate = o.Animate
	}
	return k
}
