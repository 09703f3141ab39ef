// Package depiction turns molecular graphs into 2D drawings.  The layout
// engine assigns coordinates (regular polygons for rings, zigzag chains for
// the rest), and the renderers encode the resulting drawing as SVG or PNG.
// Layout is deterministic: the same molecule always produces the same
// coordinates.
package depiction

import (
	"math"

	"github.com/turtacn/ChemNotation/internal/domain/notation"
)

// MaxLayoutAtoms bounds full structural layout.  Larger molecules get a
// placeholder depiction instead of a drawing; callers surface this as a
// degraded (never fatal) result.
const MaxLayoutAtoms = 100

// bondLength is the target distance between bonded atoms in layout units.
const bondLength = 1.0

// Point is a 2D layout coordinate.
type Point struct {
	X float64
	Y float64
}

// Layout carries per-atom coordinates for one molecule.  When Overflow is
// set the molecule exceeded MaxLayoutAtoms and Coords is empty.
type Layout struct {
	Molecule *notation.Molecule
	Coords   []Point
	Overflow bool
}

// ComputeLayout assigns 2D coordinates to every atom.  Rings are placed as
// regular polygons (fused rings reflected across their shared edge), then
// chains grow outward as alternating ±30° zigzags.  Disconnected components
// are laid out side by side.
func ComputeLayout(m *notation.Molecule) *Layout {
	if m.AtomCount() > MaxLayoutAtoms {
		return &Layout{Molecule: m, Overflow: true}
	}

	l := &layouter{
		m:      m,
		coords: make([]Point, m.AtomCount()),
		placed: make([]bool, m.AtomCount()),
	}
	offsetX := 0.0
	for _, comp := range m.Components() {
		l.layoutComponent(comp, offsetX)
		offsetX = l.maxX() + 2*bondLength
	}
	return &Layout{Molecule: m, Coords: l.coords}
}

type layouter struct {
	m      *notation.Molecule
	coords []Point
	placed []bool
}

func (l *layouter) maxX() float64 {
	max := 0.0
	for i, p := range l.coords {
		if l.placed[i] && p.X > max {
			max = p.X
		}
	}
	return max
}

// layoutComponent places one connected component starting at offsetX.
func (l *layouter) layoutComponent(comp []int, offsetX float64) {
	inComp := make(map[int]bool, len(comp))
	for _, at := range comp {
		inComp[at] = true
	}

	// Rings first: they anchor the geometry.
	for ri, ring := range l.m.Rings() {
		if !inComp[ring[0]] {
			continue
		}
		l.placeRing(ri, offsetX)
	}

	// Then grow chains outward from whatever is already placed; if nothing
	// is (acyclic component), seed with the component's first atom.
	anchored := false
	for _, at := range comp {
		if l.placed[at] {
			anchored = true
			break
		}
	}
	if !anchored {
		l.coords[comp[0]] = Point{X: offsetX, Y: 0}
		l.placed[comp[0]] = true
	}
	l.growChains(comp)
}

// placeRing positions the atoms of ring ri.  A ring with no placed atoms
// becomes a regular polygon; a ring sharing an edge with already-placed
// geometry is reflected across that edge; a ring sharing a single atom is
// attached as a polygon pivoted on it.
func (l *layouter) placeRing(ri int, offsetX float64) {
	ring := l.m.Rings()[ri]
	n := len(ring)
	radius := bondLength / (2 * math.Sin(math.Pi/float64(n)))

	var anchored []int
	for _, at := range ring {
		if l.placed[at] {
			anchored = append(anchored, at)
		}
	}

	switch {
	case len(anchored) == 0:
		cx := offsetX + radius
		for k, at := range ring {
			ang := 2*math.Pi*float64(k)/float64(n) - math.Pi/2
			l.coords[at] = Point{X: cx + radius*math.Cos(ang), Y: radius * math.Sin(ang)}
			l.placed[at] = true
		}

	case len(anchored) >= 2:
		a, b := l.findSharedEdge(ring, anchored)
		if a == -1 {
			a, b = anchored[0], anchored[1]
		}
		l.placeRingOnEdge(ring, a, b)

	default:
		l.placeRingOnAtom(ring, anchored[0])
	}
}

// findSharedEdge returns a bonded pair among the anchored ring atoms.
func (l *layouter) findSharedEdge(ring, anchored []int) (int, int) {
	set := make(map[int]bool, len(anchored))
	for _, at := range anchored {
		set[at] = true
	}
	for i := 0; i < len(ring); i++ {
		a, b := ring[i], ring[(i+1)%len(ring)]
		if set[a] && set[b] {
			return a, b
		}
	}
	return -1, -1
}

// placeRingOnEdge lays the ring out as a regular polygon whose first edge is
// the already-placed segment a-b, opening away from existing geometry.
func (l *layouter) placeRingOnEdge(ring []int, a, b int) {
	n := len(ring)
	// Rotate the cycle so it starts at a and runs through b.
	cycle := rotateCycle(ring, a, b)

	pa, pb := l.coords[a], l.coords[b]
	interior := math.Pi * float64(n-2) / float64(n)

	// Walk the polygon edge by edge, turning by the exterior angle.  Try
	// both turning directions and keep the one whose centroid is farther
	// from already-placed atoms.
	best := l.walkPolygon(cycle, pa, pb, interior, +1)
	alt := l.walkPolygon(cycle, pa, pb, interior, -1)
	if l.crowding(alt, cycle) < l.crowding(best, cycle) {
		best = alt
	}
	for k, at := range cycle {
		if !l.placed[at] {
			l.coords[at] = best[k]
			l.placed[at] = true
		}
	}
}

// placeRingOnAtom attaches a fresh polygon at a single shared atom, pointing
// away from the atom's placed neighbors.
func (l *layouter) placeRingOnAtom(ring []int, pivot int) {
	n := len(ring)
	radius := bondLength / (2 * math.Sin(math.Pi/float64(n)))

	dir := l.openDirection(pivot)
	cx := l.coords[pivot].X + radius*math.Cos(dir)
	cy := l.coords[pivot].Y + radius*math.Sin(dir)

	cycle := rotateCycle(ring, pivot, ring[(indexOf(ring, pivot)+1)%n])
	base := math.Atan2(l.coords[pivot].Y-cy, l.coords[pivot].X-cx)
	for k, at := range cycle {
		if l.placed[at] {
			continue
		}
		ang := base + 2*math.Pi*float64(k)/float64(n)
		l.coords[at] = Point{X: cx + radius*math.Cos(ang), Y: cy + radius*math.Sin(ang)}
		l.placed[at] = true
	}
}

// walkPolygon traces polygon vertices from the fixed edge pa->pb, turning
// consistently in one direction.
func (l *layouter) walkPolygon(cycle []int, pa, pb Point, interior float64, turn float64) []Point {
	n := len(cycle)
	pts := make([]Point, n)
	pts[0], pts[1] = pa, pb
	heading := math.Atan2(pb.Y-pa.Y, pb.X-pa.X)
	ext := math.Pi - interior
	cur := pb
	for k := 2; k < n; k++ {
		heading += turn * ext
		cur = Point{X: cur.X + bondLength*math.Cos(heading), Y: cur.Y + bondLength*math.Sin(heading)}
		pts[k] = cur
	}
	return pts
}

// crowding scores how close candidate positions sit to already-placed atoms
// outside the cycle; lower is better.
func (l *layouter) crowding(pts []Point, cycle []int) float64 {
	inCycle := make(map[int]bool, len(cycle))
	for _, at := range cycle {
		inCycle[at] = true
	}
	score := 0.0
	for i := range l.coords {
		if !l.placed[i] || inCycle[i] {
			continue
		}
		for _, p := range pts {
			d := math.Hypot(p.X-l.coords[i].X, p.Y-l.coords[i].Y)
			if d < bondLength {
				score += bondLength - d
			}
		}
	}
	return score
}

// growChains BFS-expands from placed atoms.  Each new neighbor sweeps the
// candidate directions around the incoming bond and takes the least crowded
// one, so branches growing off a ring attachment cannot land on ring atoms.
func (l *layouter) growChains(comp []int) {
	var queue []int
	for _, at := range comp {
		if l.placed[at] {
			queue = append(queue, at)
		}
	}
	parity := 0
	for len(queue) > 0 {
		at := queue[0]
		queue = queue[1:]
		incoming := l.incomingAngle(at)
		for _, nb := range l.m.Neighbors(at) {
			if l.placed[nb] {
				continue
			}
			ang := l.chainAngle(at, incoming, parity)
			l.coords[nb] = Point{
				X: l.coords[at].X + bondLength*math.Cos(ang),
				Y: l.coords[at].Y + bondLength*math.Sin(ang),
			}
			l.placed[nb] = true
			queue = append(queue, nb)
			parity ^= 1
		}
	}
}

// incomingAngle returns the direction from atom's first placed neighbor to
// the atom, or 0 for isolated seeds.
func (l *layouter) incomingAngle(at int) float64 {
	for _, nb := range l.m.Neighbors(at) {
		if l.placed[nb] {
			return math.Atan2(l.coords[at].Y-l.coords[nb].Y, l.coords[at].X-l.coords[nb].X)
		}
	}
	return 0
}

// chainAngle picks the outgoing bond direction from atom at.  Candidate slots
// sweep the circle in 30° steps starting at the zigzag's preferred ±30°
// around the incoming heading; each candidate position is scored against the
// already-placed atoms and the least crowded slot wins, ties going to the
// earlier slot so plain chains stay deterministic zigzags.  Siblings placed
// moments earlier count as crowding, so fan-out falls out of the scoring.
func (l *layouter) chainAngle(at int, incoming float64, parity int) float64 {
	sign := 1.0
	if parity != 0 {
		sign = -1.0
	}
	bestAng := incoming + sign*math.Pi/6
	bestScore := math.Inf(1)
	for k := 0; k < 12; k++ {
		ang := incoming + sign*(math.Pi/6+float64(k)*math.Pi/6)
		p := Point{
			X: l.coords[at].X + bondLength*math.Cos(ang),
			Y: l.coords[at].Y + bondLength*math.Sin(ang),
		}
		if score := l.pointCrowding(p); score < bestScore-1e-9 {
			bestScore = score
			bestAng = ang
		}
	}
	return bestAng
}

// pointCrowding scores how close p sits to already-placed atoms; lower is
// better, zero means nothing within a bond length.
func (l *layouter) pointCrowding(p Point) float64 {
	score := 0.0
	for i := range l.coords {
		if !l.placed[i] {
			continue
		}
		d := math.Hypot(p.X-l.coords[i].X, p.Y-l.coords[i].Y)
		if d < bondLength {
			score += bondLength - d
		}
	}
	return score
}

// openDirection finds the least crowded direction around an atom.
func (l *layouter) openDirection(at int) float64 {
	var sx, sy float64
	count := 0
	for _, nb := range l.m.Neighbors(at) {
		if l.placed[nb] {
			sx += l.coords[nb].X - l.coords[at].X
			sy += l.coords[nb].Y - l.coords[at].Y
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Atan2(-sy, -sx)
}

func rotateCycle(ring []int, first, second int) []int {
	n := len(ring)
	i := indexOf(ring, first)
	out := make([]int, 0, n)
	if ring[(i+1)%n] == second {
		for k := 0; k < n; k++ {
			out = append(out, ring[(i+k)%n])
		}
	} else {
		for k := 0; k < n; k++ {
			out = append(out, ring[(i-k+n)%n])
		}
	}
	return out
}

func indexOf(ring []int, at int) int {
	for i, v := range ring {
		if v == at {
			return i
		}
	}
	return -1
}

// Bounds returns the min and max corners of the layout with a margin of one
// bond length on every side.  A placeholder layout reports a unit box.
func (l *Layout) Bounds() (Point, Point) {
	if l.Overflow || len(l.Coords) == 0 {
		return Point{}, Point{X: 4 * bondLength, Y: 2 * bondLength}
	}
	min := Point{X: math.Inf(1), Y: math.Inf(1)}
	max := Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range l.Coords {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	min.X -= bondLength
	min.Y -= bondLength
	max.X += bondLength
	max.Y += bondLength
	return min, max
}
