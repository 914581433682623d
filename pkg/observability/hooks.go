// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about endpoint measurement, line computation, the render
// pipeline, cache operations, and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the geometry packages
// stay free of any metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetMeasureHooks(&myMeasureHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Measure().OnMeasureStart(ctx, endpoint, seq)
//	// ... measure element ...
//	observability.Measure().OnMeasureComplete(ctx, endpoint, seq, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Measure Hooks
// =============================================================================

// MeasureHooks receives events from the attachment reconciler.
type MeasureHooks interface {
	// OnMeasureStart records a measurement request being issued.
	OnMeasureStart(ctx context.Context, endpoint string, seq uint64)

	// OnMeasureComplete records a measurement result that was applied.
	OnMeasureComplete(ctx context.Context, endpoint string, seq uint64, duration time.Duration, err error)

	// OnMeasureDiscarded records a result dropped because a newer request
	// was issued or the endpoint was unmounted.
	OnMeasureDiscarded(ctx context.Context, endpoint string, seq uint64, reason string)
}

// =============================================================================
// Line Hooks
// =============================================================================

// LineHooks receives events from line geometry computation.
type LineHooks interface {
	// OnCompute records a full geometry computation.
	OnCompute(ctx context.Context, pathType string, length float64, duration time.Duration, err error)

	// OnStylePatch records a style-only update that reused cached geometry.
	OnStylePatch(ctx context.Context, fields []string)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the scene render pipeline.
type PipelineHooks interface {
	// Scene load events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, lineCount int, duration time.Duration, err error)

	// Reconcile events
	OnReconcileStart(ctx context.Context, endpointCount int)
	OnReconcileComplete(ctx context.Context, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP render service.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed HTTP response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopMeasureHooks is a no-op implementation of MeasureHooks.
type NoopMeasureHooks struct{}

func (NoopMeasureHooks) OnMeasureStart(context.Context, string, uint64) {}
func (NoopMeasureHooks) OnMeasureComplete(context.Context, string, uint64, time.Duration, error) {
}
func (NoopMeasureHooks) OnMeasureDiscarded(context.Context, string, uint64, string) {}

// NoopLineHooks is a no-op implementation of LineHooks.
type NoopLineHooks struct{}

func (NoopLineHooks) OnCompute(context.Context, string, float64, time.Duration, error) {}
func (NoopLineHooks) OnStylePatch(context.Context, []string)                           {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnReconcileStart(context.Context, int)                            {}
func (NoopPipelineHooks) OnReconcileComplete(context.Context, time.Duration, error)        {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	measureHooks  MeasureHooks  = NoopMeasureHooks{}
	lineHooks     LineHooks     = NoopLineHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetMeasureHooks registers custom measurement hooks.
func SetMeasureHooks(h MeasureHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		measureHooks = h
	}
}

// SetLineHooks registers custom line hooks.
func SetLineHooks(h LineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		lineHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Measure returns the registered measurement hooks.
func Measure() MeasureHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return measureHooks
}

// Line returns the registered line hooks.
func Line() LineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return lineHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	measureHooks = NoopMeasureHooks{}
	lineHooks = NoopLineHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
