// Package render draws problems and solutions.
//
// # SVG
//
// [SVG] writes the room as an SVG document in problem coordinates: the
// stage outlined in pink, attendees as small blue dots, pillars as grey
// disks and musicians coloured by instrument. Muted musicians (volume 0)
// are drawn translucent so that a glance shows which performers the solver
// switched off.
//
//	svg := render.SVG(p, sol, render.WithTitle("problem 42"))
//
// # Graphviz
//
// [ToDOT] emits the same scene as a Graphviz graph with every node pinned
// to its position, and [RenderPNG] lays it out with neato and rasterises
// it. No external binaries are needed.
//
//	dot := render.ToDOT(p, sol)
//	png, err := render.RenderPNG(ctx, dot)
//
// [WriteFile] picks the format from the output file extension.
package render
