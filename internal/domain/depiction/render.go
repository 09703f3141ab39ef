package depiction

import (
	"fmt"
	"math"

	"github.com/turtacn/ChemNotation/internal/domain/notation"
)

// RenderOptions controls the output canvas.  Zero values fall back to the
// defaults from DefaultRenderOptions.
type RenderOptions struct {
	Width  int
	Height int
}

// DefaultRenderOptions returns the standard 400x400 canvas.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Width: 400, Height: 400}
}

func (o RenderOptions) normalized() RenderOptions {
	def := DefaultRenderOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	return o
}

// elementColors maps heteroatom symbols to their conventional display colors.
// Anything absent renders black.
var elementColors = map[string]string{
	"N":  "#3050F8",
	"O":  "#FF0D0D",
	"S":  "#C9A511",
	"P":  "#FF8000",
	"F":  "#2FB52F",
	"Cl": "#1FA01F",
	"Br": "#A62929",
	"I":  "#940094",
	"B":  "#FFB5B5",
	"Fe": "#E06633",
	"Zn": "#7D80B0",
	"Na": "#AB5CF2",
	"K":  "#8F40D4",
	"Mg": "#8AFF00",
	"Ca": "#3DFF00",
	"Si": "#F0C8A0",
}

// scene is the resolved drawing: device-space primitives shared by the SVG
// and PNG encoders.
type scene struct {
	width    float64
	height   float64
	fontSize float64
	lines    []sceneLine
	labels   []sceneLabel
	circles  []sceneCircle
}

type sceneLine struct {
	X1, Y1, X2, Y2 float64
}

type sceneLabel struct {
	X, Y  float64
	Text  string
	Color string
}

// sceneCircle is the inner circle marking an aromatic ring.
type sceneCircle struct {
	X, Y, R float64
}

// buildScene projects a layout onto the canvas and expands atoms and bonds
// into drawing primitives.  An overflow layout becomes a single centered
// placeholder label.
func buildScene(l *Layout, opts RenderOptions) *scene {
	opts = opts.normalized()
	s := &scene{
		width:    float64(opts.Width),
		height:   float64(opts.Height),
		fontSize: float64(opts.Width) / 20,
	}

	if l.Overflow {
		s.labels = append(s.labels, sceneLabel{
			X:     s.width / 2,
			Y:     s.height / 2,
			Text:  fmt.Sprintf("structure too large (%d atoms)", l.Molecule.AtomCount()),
			Color: "#707070",
		})
		return s
	}

	min, max := l.Bounds()
	rx, ry := max.X-min.X, max.Y-min.Y
	scale := math.Min(s.width/rx, s.height/ry)
	// Center the drawing on the canvas; layout Y grows upward, device Y down.
	ox := (s.width - rx*scale) / 2
	oy := (s.height - ry*scale) / 2
	project := func(p Point) (float64, float64) {
		return ox + (p.X-min.X)*scale, s.height - oy - (p.Y-min.Y)*scale
	}

	m := l.Molecule
	labelRadius := make([]float64, m.AtomCount())
	for i := 0; i < m.AtomCount(); i++ {
		text := atomLabel(m, i)
		if text == "" {
			continue
		}
		x, y := project(l.Coords[i])
		color := elementColors[m.Atom(i).Symbol]
		if color == "" {
			color = "#000000"
		}
		s.labels = append(s.labels, sceneLabel{X: x, Y: y, Text: text, Color: color})
		labelRadius[i] = s.fontSize * 0.45 * math.Max(1, float64(len(text))/2)
	}

	gap := scale * 0.12
	for bi := 0; bi < m.BondCount(); bi++ {
		b := m.Bond(bi)
		x1, y1 := project(l.Coords[b.From])
		x2, y2 := project(l.Coords[b.To])
		x1, y1 = trimTowards(x1, y1, x2, y2, labelRadius[b.From])
		x2, y2 = trimTowards(x2, y2, x1, y1, labelRadius[b.To])

		rad := math.Atan2(y2-y1, x2-x1)
		dx := math.Sin(rad) * gap
		dy := -math.Cos(rad) * gap

		switch b.Order {
		case notation.BondDouble:
			s.addLine(x1+dx/2, y1+dy/2, x2+dx/2, y2+dy/2)
			s.addLine(x1-dx/2, y1-dy/2, x2-dx/2, y2-dy/2)
		case notation.BondTriple:
			s.addLine(x1, y1, x2, y2)
			s.addLine(x1+dx, y1+dy, x2+dx, y2+dy)
			s.addLine(x1-dx, y1-dy, x2-dx, y2-dy)
		default:
			// Aromatic ring bonds draw single; the ring circle below carries
			// the aromaticity.
			s.addLine(x1, y1, x2, y2)
		}
	}

	// Inner circle per fully aromatic ring.
	for _, ring := range m.Rings() {
		if !ringAromatic(m, ring) {
			continue
		}
		var cx, cy float64
		for _, at := range ring {
			x, y := project(l.Coords[at])
			cx += x
			cy += y
		}
		cx /= float64(len(ring))
		cy /= float64(len(ring))
		x0, y0 := project(l.Coords[ring[0]])
		r := math.Hypot(x0-cx, y0-cy) * 0.55
		s.circles = append(s.circles, sceneCircle{X: cx, Y: cy, R: r})
	}

	return s
}

func (s *scene) addLine(x1, y1, x2, y2 float64) {
	s.lines = append(s.lines, sceneLine{X1: x1, Y1: y1, X2: x2, Y2: y2})
}

// atomLabel renders the text shown at an atom position.  Carbons with bonds
// stay implicit, matching standard skeletal depiction; everything else shows
// the symbol plus hydrogen count and charge.
func atomLabel(m *notation.Molecule, i int) string {
	a := m.Atom(i)
	if a.Symbol == "C" && m.Degree(i) > 0 && a.Charge == 0 && a.Isotope == 0 {
		return ""
	}
	text := a.Symbol
	if a.Isotope != 0 {
		text = fmt.Sprintf("%d%s", a.Isotope, a.Symbol)
	}
	switch {
	case a.ImplicitH == 1:
		text += "H"
	case a.ImplicitH > 1:
		text += fmt.Sprintf("H%d", a.ImplicitH)
	}
	switch {
	case a.Charge == 1:
		text += "+"
	case a.Charge == -1:
		text += "-"
	case a.Charge > 1:
		text += fmt.Sprintf("+%d", a.Charge)
	case a.Charge < -1:
		text += fmt.Sprintf("-%d", -a.Charge)
	}
	return text
}

// trimTowards shortens the segment start by r in the direction of (tx, ty) so
// bonds stop at the edge of atom labels.
func trimTowards(x, y, tx, ty, r float64) (float64, float64) {
	if r == 0 {
		return x, y
	}
	d := math.Hypot(tx-x, ty-y)
	if d <= r {
		return x, y
	}
	return x + (tx-x)*r/d, y + (ty-y)*r/d
}

func ringAromatic(m *notation.Molecule, ring []int) bool {
	for _, at := range ring {
		if !m.Atom(at).Aromatic {
			return false
		}
	}
	return true
}
