package notation

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Canonicalize re-serializes a molecule into its unique canonical notation.
// Two inputs describing the same molecular graph produce the same string, so
// the output is safe to use as a deduplication key.  Canonicalize is
// idempotent: parsing the output and canonicalizing again returns the same
// string.
//
// The procedure is the classic two-step: iterative invariant refinement
// assigns every atom a rank determined only by the graph, then a rank-guided
// depth-first traversal writes the string.
func Canonicalize(m *Molecule) string {
	if m == nil || m.AtomCount() == 0 {
		return ""
	}
	ranks := canonicalRanks(m)

	visited := make([]bool, m.AtomCount())
	var parts []string
	for {
		root := -1
		for i := 0; i < m.AtomCount(); i++ {
			if visited[i] {
				continue
			}
			if root == -1 || ranks[i] < ranks[root] {
				root = i
			}
		}
		if root == -1 {
			break
		}
		s := newSerializer(m, ranks)
		s.buildTree(root, visited)
		parts = append(parts, s.render(root))
	}
	return strings.Join(parts, ".")
}

// ─────────────────────────────────────────────────────────────────────────────
// Invariant refinement
// ─────────────────────────────────────────────────────────────────────────────

// canonicalRanks assigns each atom an integer rank derived from element,
// charge, aromaticity, isotope, degree, and hydrogen count, iteratively
// refined by neighbor ranks until the partition stops splitting.  The loop is
// bounded by the atom count, which is the maximum number of times a partition
// of n elements can grow.
func canonicalRanks(m *Molecule) []int {
	n := m.AtomCount()
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		a := m.Atom(i)
		keys[i] = fmt.Sprintf("%s|%d|%t|%d|%d|%d",
			a.Symbol, a.Charge, a.Aromatic, a.Isotope, m.Degree(i), a.ImplicitH)
	}
	ranks, distinct := rankByKey(keys)

	for iter := 0; iter < n; iter++ {
		next := make([]string, n)
		for i := 0; i < n; i++ {
			nb := make([]string, 0, m.Degree(i))
			for _, bi := range m.BondsOf(i) {
				b := m.Bond(bi)
				nb = append(nb, fmt.Sprintf("%d:%g", ranks[b.Other(i)], b.Order.Electrons()))
			}
			sort.Strings(nb)
			next[i] = fmt.Sprintf("%d|%s", ranks[i], strings.Join(nb, ","))
		}
		newRanks, newDistinct := rankByKey(next)
		if newDistinct == distinct {
			break
		}
		ranks, distinct = newRanks, newDistinct
	}
	return ranks
}

// rankByKey maps each key to the index of that key in the sorted unique key
// list, returning the ranks and the number of distinct keys.
func rankByKey(keys []string) ([]int, int) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)
	pos := make(map[string]int, len(uniq))
	for i, k := range uniq {
		pos[k] = i
	}
	ranks := make([]int, len(keys))
	for i, k := range keys {
		ranks[i] = pos[k]
	}
	return ranks, len(uniq)
}

// ─────────────────────────────────────────────────────────────────────────────
// Rank-guided serialization
// ─────────────────────────────────────────────────────────────────────────────

type serializer struct {
	m     *Molecule
	ranks []int

	children  [][]int // tree children per atom, in canonical order
	treeBond  []int   // bond index connecting atom to its tree parent
	ringBonds [][]int // non-tree (ring closure) bond indices per atom
	digitOf   map[int]int
	nextDigit int
	sb        strings.Builder
}

func newSerializer(m *Molecule, ranks []int) *serializer {
	return &serializer{
		m:         m,
		ranks:     ranks,
		children:  make([][]int, m.AtomCount()),
		treeBond:  make([]int, m.AtomCount()),
		ringBonds: make([][]int, m.AtomCount()),
		digitOf:   make(map[int]int),
		nextDigit: 1,
	}
}

// buildTree runs a DFS from root, ordering neighbors by rank (bond order
// breaking ties), recording the spanning tree and collecting every back edge
// as a ring-closure bond on both endpoints.
func (s *serializer) buildTree(root int, visited []bool) {
	usedBond := make(map[int]bool)
	var walk func(u int)
	walk = func(u int) {
		visited[u] = true
		bonds := append([]int(nil), s.m.BondsOf(u)...)
		sort.SliceStable(bonds, func(x, y int) bool {
			bx, by := s.m.Bond(bonds[x]), s.m.Bond(bonds[y])
			rx, ry := s.ranks[bx.Other(u)], s.ranks[by.Other(u)]
			if rx != ry {
				return rx < ry
			}
			return bx.Order.Electrons() < by.Order.Electrons()
		})
		for _, bi := range bonds {
			if usedBond[bi] {
				continue
			}
			v := s.m.Bond(bi).Other(u)
			if visited[v] {
				usedBond[bi] = true
				s.ringBonds[u] = append(s.ringBonds[u], bi)
				s.ringBonds[v] = append(s.ringBonds[v], bi)
				continue
			}
			usedBond[bi] = true
			s.treeBond[v] = bi
			s.children[u] = append(s.children[u], v)
			walk(v)
		}
	}
	walk(root)
}

// render writes the component rooted at root and returns the string.
func (s *serializer) render(root int) string {
	s.emit(root, -1)
	return s.sb.String()
}

func (s *serializer) emit(u, parentBond int) {
	if parentBond != -1 {
		s.sb.WriteString(s.bondToken(s.m.Bond(parentBond)))
	}
	s.writeAtom(u)
	for _, bi := range s.ringBonds[u] {
		d, open := s.digitOf[bi]
		if !open {
			d = s.nextDigit
			s.nextDigit++
			s.digitOf[bi] = d
			s.sb.WriteString(s.bondToken(s.m.Bond(bi)))
		}
		if d > 9 {
			fmt.Fprintf(&s.sb, "%%%02d", d)
		} else {
			fmt.Fprintf(&s.sb, "%d", d)
		}
	}
	for i, c := range s.children[u] {
		if i < len(s.children[u])-1 {
			s.sb.WriteByte('(')
			s.emit(c, s.treeBond[c])
			s.sb.WriteByte(')')
		} else {
			s.emit(c, s.treeBond[c])
		}
	}
}

// bondToken returns the explicit bond symbol, or "" when the bond is implied
// by context (single bonds, and aromatic bonds between two aromatic atoms).
func (s *serializer) bondToken(b Bond) string {
	switch b.Order {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondAromatic:
		if s.m.Atom(b.From).Aromatic && s.m.Atom(b.To).Aromatic {
			return ""
		}
		return ":"
	default:
		return ""
	}
}

// writeAtom renders one atom, bracketed only when the bare form would lose
// information (isotope, charge, a non-organic element, or a hydrogen count
// the valence rule would not reproduce).
func (s *serializer) writeAtom(u int) {
	a := s.m.Atom(u)
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	if !s.needsBracket(u) {
		s.sb.WriteString(sym)
		return
	}
	s.sb.WriteByte('[')
	if a.Isotope != 0 {
		fmt.Fprintf(&s.sb, "%d", a.Isotope)
	}
	s.sb.WriteString(sym)
	if a.ImplicitH == 1 {
		s.sb.WriteByte('H')
	} else if a.ImplicitH > 1 {
		fmt.Fprintf(&s.sb, "H%d", a.ImplicitH)
	}
	switch {
	case a.Charge == 1:
		s.sb.WriteByte('+')
	case a.Charge == -1:
		s.sb.WriteByte('-')
	case a.Charge > 1:
		fmt.Fprintf(&s.sb, "+%d", a.Charge)
	case a.Charge < -1:
		fmt.Fprintf(&s.sb, "-%d", -a.Charge)
	}
	s.sb.WriteByte(']')
}

func (s *serializer) needsBracket(u int) bool {
	a := s.m.Atom(u)
	el, ok := LookupElement(a.Symbol)
	if !ok || !el.Organic || a.Isotope != 0 || a.Charge != 0 {
		return true
	}
	// Would a bare rendition re-derive the same hydrogen count?
	sum := 0.0
	for _, bi := range s.m.BondsOf(u) {
		sum += s.m.Bond(bi).Order.Electrons()
	}
	derived := el.Valence - int(math.Ceil(sum))
	if derived < 0 {
		derived = 0
	}
	return derived != a.ImplicitH
}
