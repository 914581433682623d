// Package render defines the drawable frame handed to the output sinks.
//
// # Overview
//
// A [Frame] is a canvas with element boxes and computed line geometries.
// It carries everything a sink needs; sinks never look at scenes, options
// or the reconciler.
//
//	frame := render.Frame{Width: 480, Height: 240}
//	frame.Elements = append(frame.Elements, render.Element{ID: "api", Box: box})
//	frame.Lines = append(frame.Lines, render.Line{ID: "line-1", Geometry: g})
//	svg := sink.RenderSVG(frame)
//
// # Formats
//
// [Format] names the artifact kinds produced by the [sink] subpackage:
// SVG and PNG images, and JSON or msgpack geometry documents.
package render
