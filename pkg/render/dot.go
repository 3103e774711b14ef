package render

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/encore/pkg/problem"
)

// maxDOTSize bounds the longer side of the DOT canvas, in points.
const maxDOTSize = 1000.0

// ToDOT converts a problem (and optional solution) to a Graphviz graph in
// which every node is pinned to its room position. Coordinates are scaled
// so that the room fits in maxDOTSize points; inputscale=72 makes neato read
// pos in points rather than inches.
func ToDOT(p *problem.Problem, sol *problem.Solution) string {
	scale := 1.0
	if side := max(p.RoomWidth, p.RoomHeight); side > maxDOTSize {
		scale = maxDOTSize / side
	}
	inches := func(d float64) float64 { return d * scale / 72 }

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  bgcolor=white;\n")
	buf.WriteString("  node [shape=circle, style=filled, label=\"\", fixedsize=true, penwidth=0];\n")
	buf.WriteString("\n")

	node := func(id string, x, y, radius float64, attrs string) {
		fmt.Fprintf(&buf, "  %q [pos=\"%.2f,%.2f!\", width=%.4f, %s];\n",
			id, x*scale, y*scale, inches(2*radius), attrs)
	}

	// Room corners keep neato's bounding box equal to the room.
	node("room0", 0, 0, 0.5, "style=invis")
	node("room1", p.RoomWidth, p.RoomHeight, 0.5, "style=invis")

	stage := p.Stage()
	c := stage.Center()
	fmt.Fprintf(&buf, "  stage [shape=box, pos=\"%.2f,%.2f!\", width=%.4f, height=%.4f, fillcolor=\"#80808019\", color=pink, penwidth=2];\n",
		c.X*scale, c.Y*scale, inches(stage.Width), inches(stage.Height))

	for i, a := range p.Attendees {
		node(fmt.Sprintf("a%d", i), a.X, a.Y, AttendeeRadius, "fillcolor=blue")
	}
	for i, pl := range p.Pillars {
		node(fmt.Sprintf("p%d", i), pl.Center[0], pl.Center[1], pl.Radius, "fillcolor=\"#8080804c\"")
	}
	if sol != nil {
		n := min(len(sol.Placements), len(sol.Volumes), len(p.Musicians))
		for i := range n {
			r, g, b := instrumentRGB(p.Musicians[i])
			alpha := 0xff
			if sol.Volumes[i] == 0 {
				alpha = 0x4c
			}
			pt := sol.Placements[i]
			node(fmt.Sprintf("m%d", i), pt.X, pt.Y, MusicianRadius,
				fmt.Sprintf("fillcolor=\"#%02x%02x%02x%02x\"", r, g, b, alpha))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderPNG lays out a DOT graph with its own layout engine and rasterises
// it.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	img, err := gv.SetLayout(graphviz.NEATO).RenderImage(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
