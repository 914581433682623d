// Package pkg provides the core libraries for leaderline, an engine that
// computes and renders leader lines between boxes on a 2D canvas.
//
// # Overview
//
// A leader line connects two anchors (a measured element or a fixed point)
// with a styled path. The pkg directory is organized into four areas:
//
//  1. Geometry - points and boxes, sockets, path generation, plugs, labels
//  2. Reconciliation - asynchronous endpoint measurement and line lifecycle
//  3. Output - frames and their SVG, PNG, JSON and msgpack sinks
//  4. Orchestration - scene files, caching and the load → reconcile → render
//     pipeline shared by the CLI and the HTTP service
//
// # Architecture
//
// The typical data flow:
//
//	Scene file (TOML, YAML, JSON)
//	         ↓
//	    [scene] package (decode + validate, in-memory Board measurer)
//	         ↓
//	    [attach] package (measure endpoints, track revisions)
//	         ↓
//	    [leaderline] package (sockets → path → plugs → labels)
//	         ↓
//	    [render/sink] package (SVG/PNG/JSON/msgpack)
//
// # Quick Start
//
// Compute the geometry of a single line without any reconciliation:
//
//	import (
//	    "github.com/matzehuels/leaderline/pkg/geom"
//	    "github.com/matzehuels/leaderline/pkg/leaderline"
//	    "github.com/matzehuels/leaderline/pkg/socket"
//	)
//
//	start := leaderline.Anchor{Box: geom.NewBox(0, 0, 100, 50), Socket: socket.Right}
//	end := leaderline.Anchor{Box: geom.NewBox(300, 0, 100, 50), Socket: socket.Left}
//	g, err := leaderline.Compute(start, end, leaderline.DefaultOptions())
//
// Render a whole scene:
//
//	sc, _ := pipeline.Load(ctx, "scene.toml")
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, _ := runner.Execute(ctx, sc, pipeline.Options{Formats: []string{"svg", "png"}})
//
// # Main Packages
//
// ## Geometry
//
// [geom] - Points, vectors and axis-aligned boxes.
//
// [socket] - The nine sockets of a box and auto-socket resolution against an
// opposing point.
//
// [path] - Path generation for the straight, arc, fluid, magnet and grid
// types, plus arc-length sampling of serialized paths.
//
// [plug] - End markers (arrows, discs, squares, hands, crosshairs), their
// placement along the path tangent and the optional outline stroke.
//
// [label] - Start, middle, end, caption and path labels positioned by
// arc-length fraction.
//
// [color] - CSS color parsing, blending and contrast helpers.
//
// [anim] - Progress drivers for dash offsets and reveal animations.
//
// ## Reconciliation
//
// [attach] - The Reconciler mounts elements, measures them through a
// Measurer with per-element throttling and discards stale completions by
// revision.
//
// [leaderline] - Line ties two attachments to a Reconciler and recomputes
// its Geometry whenever an endpoint or a style patch changes.
//
// ## Output
//
// [render] - The Frame model: elements, lines and their geometry.
//
// [render/sink] - Output formats (SVG, PNG, JSON, msgpack).
//
// [fonts] - Embedded Go fonts used to measure and rasterize labels.
//
// ## Orchestration
//
// [scene] - Scene files and the Board, an in-memory measurer backed by the
// scene's element boxes.
//
// [pipeline] - Complete load → reconcile → render pipeline with caching.
//
// [cache] - Null, memory, file and Redis caches with content-addressed keys.
//
// [errors] - Coded errors shared by every layer.
//
// [observability] - Hook interfaces for measurement, lines, pipeline, cache
// and HTTP events.
//
// [buildinfo] - Version information injected at build time.
package pkg
