// Package sink writes a [render.Frame] to an output format.
//
// # Formats
//
//   - SVG: [RenderSVG], a standalone document with one group per element
//     and per line; animated dashes become CSS keyframes with [WithAnimation]
//   - PNG: [RenderPNG], rasterized natively with fogleman/gg
//   - JSON: [RenderJSON], the geometry interchange document
//   - msgpack: [RenderMsgpack], the JSON schema in binary form
//
// [Render] dispatches on a [render.Format] with a shared [Options] value,
// which is what the pipeline and the HTTP service use.
//
// # Layering
//
// Elements are drawn first, then lines in frame order. Within a line the
// shadow, outline, primary stroke, plugs and labels are drawn bottom to top.
// Hidden lines, unmeasured lines and lines whose ends coincide draw nothing.
package sink
