package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/leaderline/pkg/cache"
	"github.com/matzehuels/leaderline/pkg/observability"
	"github.com/matzehuels/leaderline/pkg/render"
	"github.com/matzehuels/leaderline/pkg/render/sink"
	"github.com/matzehuels/leaderline/pkg/scene"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeGeometry = "geometry"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the reconcile → render pipeline on a loaded scene.
func (r *Runner) Execute(ctx context.Context, sc *scene.Scene, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Scene:     sc,
		SceneHash: sc.Hash(),
		Artifacts: make(map[string][]byte),
	}
	result.Stats.ElementCount = len(sc.Elements)
	result.Stats.LineCount = len(sc.Lines)

	// Stage 1: Reconcile
	reconcileStart := time.Now()
	frame, geometryHit, err := r.ReconcileWithCacheInfo(ctx, sc, opts)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	result.Frame = frame
	result.Stats.ReconcileTime = time.Since(reconcileStart)
	result.CacheInfo.GeometryHit = geometryHit

	r.Logger.Info("computed lines",
		"lines", len(frame.Lines),
		"cached", geometryHit,
		"duration", result.Stats.ReconcileTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, sc, frame, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ReconcileWithCacheInfo computes the scene's frame with caching and
// returns cache hit info. Frames are cached in msgpack form under the
// scene hash.
func (r *Runner) ReconcileWithCacheInfo(ctx context.Context, sc *scene.Scene, opts Options) (render.Frame, bool, error) {
	r.applyLogger(&opts)
	opts.SetReconcileDefaults()
	hooks := observability.Cache()
	cacheKey := r.Keyer.GeometryKey(sc.Hash())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if frame, err := sink.DecodeMsgpack(data); err == nil {
				hooks.OnCacheHit(ctx, keyTypeGeometry)
				return frame, true, nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", cacheKey, "error", err)
		}
		hooks.OnCacheMiss(ctx, keyTypeGeometry)
	}

	frame, err := Reconcile(ctx, sc, opts)
	if err != nil {
		return render.Frame{}, false, err
	}

	if data, err := sink.RenderMsgpack(frame); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLGeometry); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeGeometry, len(data))
		}
	}
	return frame, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info. The hit flag is set only when every format came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, sc *scene.Scene, frame render.Frame, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()
	sceneHash := sc.Hash()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	var missing []string
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format, sc))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				hooks.OnCacheHit(ctx, keyTypeArtifact)
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render the missing formats
	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, frame, renderOpts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		artifacts[format] = data
		cacheKey := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format, sc))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}

	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
