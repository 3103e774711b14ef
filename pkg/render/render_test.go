package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

func TestSVG(t *testing.T) {
	p := problem.Example()
	sol := problem.ExampleSolution()
	sol.Volumes[1] = 0

	tests := []struct {
		name        string
		sol         *problem.Solution
		wantCircles int
	}{
		{"problem only", nil, len(p.Attendees) + len(p.Pillars)},
		{"with solution", sol, len(p.Attendees) + len(p.Pillars) + len(p.Musicians)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg := string(SVG(p, tt.sol))
			if got := strings.Count(svg, "<circle "); got != tt.wantCircles {
				t.Errorf("circles = %d, want %d", got, tt.wantCircles)
			}
			if !strings.HasPrefix(svg, "<svg ") || !strings.HasSuffix(svg, "</svg>\n") {
				t.Error("output is not a complete svg document")
			}
			if !strings.Contains(svg, "stroke:pink") {
				t.Error("stage outline missing")
			}
		})
	}

	svg := string(SVG(p, sol))
	if got := strings.Count(svg, "fill-opacity:0.3\"/>"); got != len(p.Pillars)+1 {
		t.Errorf("translucent shapes = %d, want pillars plus one muted musician", got)
	}
}

func TestSVGOptions(t *testing.T) {
	p := problem.Example()
	svg := string(SVG(p, problem.ExampleSolution(), WithTitle("a <b>"), WithLabels()))
	if !strings.Contains(svg, "<title>a &lt;b&gt;</title>") {
		t.Error("title not escaped or missing")
	}
	if got := strings.Count(svg, "<title>musician "); got != len(p.Musicians) {
		t.Errorf("musician labels = %d, want %d", got, len(p.Musicians))
	}
}

func TestInstrumentColor(t *testing.T) {
	tests := []struct {
		instrument int
		want       string
	}{
		{0, "rgb(0,0,0)"},
		{1, "rgb(96,64,0)"},
		{7, "rgb(160,0,128)"},
		{27, "rgb(32,0,0)"},
	}
	for _, tt := range tests {
		if got := InstrumentColor(tt.instrument); got != tt.want {
			t.Errorf("InstrumentColor(%d) = %s, want %s", tt.instrument, got, tt.want)
		}
	}
}

func TestToDOT(t *testing.T) {
	p := problem.Example()
	dot := ToDOT(p, problem.ExampleSolution())
	if !strings.HasPrefix(dot, "graph G {") {
		t.Fatalf("unexpected DOT header: %s", dot[:20])
	}
	for _, id := range []string{`"a0"`, `"a2"`, `"p0"`, `"m0"`, `"m2"`} {
		if !strings.Contains(dot, id+" [pos=") {
			t.Errorf("node %s missing or unpinned", id)
		}
	}
	if !strings.Contains(dot, "inputscale=72;") {
		t.Error("positions are in points but inputscale is not set")
	}
	if strings.Count(dot, "!\"") < len(p.Attendees)+len(p.Pillars)+len(p.Musicians) {
		t.Error("not every node is pinned")
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(context.Background(), ToDOT(problem.Example(), problem.ExampleSolution()))
	if err != nil {
		t.Fatalf("RenderPNG() = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	// The example room is 2000x5000; it must be scaled down, not drawn in inches.
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		t.Errorf("empty image %v", b)
	}
	if limit := int(2 * maxDOTSize); b.Dx() > limit || b.Dy() > limit {
		t.Errorf("image %v larger than %dx%d", b, limit, limit)
	}
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := problem.Example()

	for _, name := range []string{"out.svg", "nested/out.dot"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(ctx, path, p, nil); err != nil {
			t.Fatalf("WriteFile(%s) = %v", name, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if err := WriteFile(ctx, filepath.Join(dir, "out.gif"), p, nil); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("WriteFile(.gif) = %v, want UNSUPPORTED", err)
	}
}
