package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/encore/pkg/problem"
)

// Radii of the drawn markers, in room units.
const (
	AttendeeRadius = 5.0
	MusicianRadius = 5.0
)

const (
	stageStyle  = "stroke:pink;stroke-width:10;fill:gray;fill-opacity:0.1;stroke-opacity:0.9"
	pillarStyle = "stroke-width:5;fill:gray;fill-opacity:0.3"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title  string
	labels bool
}

// WithTitle embeds a <title> element.
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// WithLabels tags each musician with its index and instrument.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// SVG renders p, and sol when it is non-nil.
func SVG(p *problem.Problem, sol *problem.Solution, opts ...SVGOption) []byte {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g">`+"\n", p.RoomWidth, p.RoomHeight)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	buf.WriteString(`  <rect width="100%" height="100%" fill="white"/>` + "\n")

	stage := p.Stage()
	fmt.Fprintf(&buf, `  <rect x="%g" y="%g" width="%g" height="%g" style="%s"/>`+"\n",
		stage.Min.X, stage.Min.Y, stage.Width, stage.Height, stageStyle)

	for _, a := range p.Attendees {
		fmt.Fprintf(&buf, `  <circle cx="%g" cy="%g" r="%g" style="fill:blue"/>`+"\n", a.X, a.Y, AttendeeRadius)
	}
	for _, pl := range p.Pillars {
		fmt.Fprintf(&buf, `  <circle cx="%g" cy="%g" r="%g" style="%s"/>`+"\n", pl.Center[0], pl.Center[1], pl.Radius, pillarStyle)
	}

	if sol != nil {
		renderMusicians(&buf, p, sol, r.labels)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderMusicians(buf *bytes.Buffer, p *problem.Problem, sol *problem.Solution, labels bool) {
	n := min(len(sol.Placements), len(sol.Volumes), len(p.Musicians))
	for i := range n {
		pt := sol.Placements[i]
		style := "fill:" + InstrumentColor(p.Musicians[i])
		if sol.Volumes[i] == 0 {
			style += ";fill-opacity:0.3"
		}
		if labels {
			fmt.Fprintf(buf, `  <circle cx="%g" cy="%g" r="%g" style="%s"><title>musician %d, instrument %d</title></circle>`+"\n",
				pt.X, pt.Y, MusicianRadius, style, i, p.Musicians[i])
			continue
		}
		fmt.Fprintf(buf, `  <circle cx="%g" cy="%g" r="%g" style="%s"/>`+"\n", pt.X, pt.Y, MusicianRadius, style)
	}
}

// InstrumentColor returns a CSS rgb() colour for an instrument. Nearby
// instrument numbers map to clearly different colours.
func InstrumentColor(instrument int) string {
	r, g, b := instrumentRGB(instrument)
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func instrumentRGB(instrument int) (r, g, b uint8) {
	n := uint8((instrument * 19) % 256)
	return (n % 8) * 32, ((n / 8) % 8) * 32, ((n / 64) % 4) * 64
}
