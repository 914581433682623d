// Package cache provides the byte-level caches used by the render pipeline
// and the HTTP service.
//
// All backends implement [Cache]. [FileCache] backs the CLI, [RedisCache]
// backs a shared deployment of the HTTP service, [MemoryCache] keeps hot
// entries in process and [NullCache] disables caching. Keys come from a
// [Keyer] so that every entry point derives identical keys for identical
// inputs.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry type.
const (
	// TTLGeometry applies to computed line geometry. Geometry is a pure
	// function of its inputs, so entries only expire to bound storage.
	TTLGeometry = 7 * 24 * time.Hour

	// TTLArtifact applies to rendered SVG, PNG, JSON and msgpack output.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss; a miss
	// is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl stores without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// GeometryKey returns the key for the geometry of one line request,
	// identified by the hash of its canonical encoding.
	GeometryKey(requestHash string) string

	// ArtifactKey returns the key for one rendered artifact of a scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
	Background string  `json:"background,omitempty"`
	Fit        bool    `json:"fit,omitempty"`
	Padding    float64 `json:"padding,omitempty"`
	Animate    bool    `json:"animate,omitempty"`
	LinesOnly  bool    `json:"lines_only,omitempty"`
}

// DefaultKeyer is the Keyer used by the CLI and the server.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GeometryKey implements Keyer.
func (DefaultKeyer) GeometryKey(requestHash string) string {
	return "geometry:" + requestHash
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

var _ Keyer = DefaultKeyer{}
