// Package notation implements the chemical line-notation core: a parser for
// the common SMILES subset used by laboratory reagents, a canonicalizer that
// produces a unique re-serialization for equivalent inputs, and a property
// calculator deriving molecular formula and weight.  The package is purely
// functional over its inputs; a Molecule is immutable once constructed and
// edits always go through a fresh parse.
package notation

import (
	"fmt"
	"sort"
)

// ─────────────────────────────────────────────────────────────────────────────
// Bond orders
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder is the bond multiplicity between two atoms.
type BondOrder int

const (
	BondSingle BondOrder = iota + 1
	BondDouble
	BondTriple
	BondAromatic
)

// Electrons returns the valence contribution of the bond order.  Aromatic
// bonds contribute 1.5; the property calculator rounds the per-atom sum up to
// the ring-consistent integer valence.
func (o BondOrder) Electrons() float64 {
	switch o {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondAromatic:
		return 1.5
	default:
		return 1
	}
}

// Symbol returns the notation token for an explicit bond of this order.
func (o BondOrder) Symbol() string {
	switch o {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondAromatic:
		return ":"
	default:
		return "-"
	}
}

func (o BondOrder) String() string {
	switch o {
	case BondSingle:
		return "single"
	case BondDouble:
		return "double"
	case BondTriple:
		return "triple"
	case BondAromatic:
		return "aromatic"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom and Bond
// ─────────────────────────────────────────────────────────────────────────────

// Atom is one node of the molecular graph.  Identity is the atom's position
// in parse order, stable for the lifetime of one Molecule.
type Atom struct {
	// Symbol is the element symbol in canonical capitalization ("C", "Cl").
	Symbol string

	// Charge is the formal charge; zero for neutral atoms.
	Charge int

	// Isotope is the mass number when written in brackets; zero means the
	// natural isotope mixture.
	Isotope int

	// Aromatic is set for atoms written in lowercase aromatic form.
	Aromatic bool

	// ImplicitH is the derived implicit-hydrogen count.  For bracket atoms
	// it is the written count; otherwise it follows the valence rule.
	ImplicitH int

	// Rings lists the indices (into Molecule.Rings()) of the rings this atom
	// belongs to.  Empty for chain atoms.
	Rings []int

	// explicitH distinguishes "bracket atom wrote an H count" (>= 0) from
	// "derive from valence" (-1).
	explicitH int
}

// InRing reports whether the atom belongs to at least one detected ring.
func (a Atom) InRing() bool { return len(a.Rings) > 0 }

// Bond is one undirected edge of the molecular graph.  From < To does not
// hold in general; From is the atom that appeared first in parse order.
type Bond struct {
	From   int
	To     int
	Order  BondOrder
	InRing bool
}

// Other returns the bond endpoint that is not atom.
func (b Bond) Other(atom int) int {
	if b.From == atom {
		return b.To
	}
	return b.From
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule
// ─────────────────────────────────────────────────────────────────────────────

// maxRingSize bounds the cycle search: rings larger than this are treated as
// chains for ring-membership purposes and by the depiction layout.
const maxRingSize = 8

// Molecule is an immutable simple undirected multigraph of atoms and bonds.
// Parallel bonds are disallowed (multiplicities are expressed via BondOrder)
// and every bond references valid atom indices.  Construct exclusively via
// Parse or ParseMolfile.
type Molecule struct {
	atoms []Atom
	bonds []Bond
	adj   [][]int // atom index -> incident bond indices, in insertion order
	rings [][]int // detected rings as atom-index cycles
}

// newMolecule validates the graph, computes adjacency, ring membership, and
// implicit hydrogens, and seals the result.
func newMolecule(atoms []Atom, bonds []Bond) (*Molecule, error) {
	m := &Molecule{
		atoms: atoms,
		bonds: bonds,
		adj:   make([][]int, len(atoms)),
	}

	seen := make(map[[2]int]bool, len(bonds))
	for i, b := range bonds {
		if b.From < 0 || b.From >= len(atoms) || b.To < 0 || b.To >= len(atoms) {
			return nil, fmt.Errorf("bond %d references atom out of range", i)
		}
		if b.From == b.To {
			return nil, fmt.Errorf("bond %d is a self-bond on atom %d", i, b.From)
		}
		key := [2]int{b.From, b.To}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if seen[key] {
			return nil, fmt.Errorf("parallel bond between atoms %d and %d", b.From, b.To)
		}
		seen[key] = true
		m.adj[b.From] = append(m.adj[b.From], i)
		m.adj[b.To] = append(m.adj[b.To], i)
	}

	m.detectRings()

	for i := range m.atoms {
		m.atoms[i].ImplicitH = implicitHydrogens(m, i)
	}

	return m, nil
}

// AtomCount returns the number of atoms.
func (m *Molecule) AtomCount() int { return len(m.atoms) }

// BondCount returns the number of bonds.
func (m *Molecule) BondCount() int { return len(m.bonds) }

// Atom returns a copy of the atom at index i.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Bond returns a copy of the bond at index i.
func (m *Molecule) Bond(i int) Bond { return m.bonds[i] }

// Degree returns the number of explicit bonds touching atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// BondsOf returns the indices of bonds incident to atom i, in insertion order.
// The returned slice must not be modified.
func (m *Molecule) BondsOf(i int) []int { return m.adj[i] }

// Neighbors returns the atom indices adjacent to atom i, in bond insertion
// order.
func (m *Molecule) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adj[i]))
	for _, bi := range m.adj[i] {
		out = append(out, m.bonds[bi].Other(i))
	}
	return out
}

// BondBetween returns the bond connecting atoms i and j, if any.
func (m *Molecule) BondBetween(i, j int) (Bond, bool) {
	for _, bi := range m.adj[i] {
		if m.bonds[bi].Other(i) == j {
			return m.bonds[bi], true
		}
	}
	return Bond{}, false
}

// Rings returns the detected rings as atom-index cycles.  The returned slices
// must not be modified.
func (m *Molecule) Rings() [][]int { return m.rings }

// RingCount returns the number of detected rings.
func (m *Molecule) RingCount() int { return len(m.rings) }

// FormalCharge returns the sum of the formal charges of all atoms.
func (m *Molecule) FormalCharge() int {
	total := 0
	for _, a := range m.atoms {
		total += a.Charge
	}
	return total
}

// Components returns the connected components of the graph as slices of atom
// indices, each sorted ascending, ordered by their smallest member.
func (m *Molecule) Components() [][]int {
	visited := make([]bool, len(m.atoms))
	var comps [][]int
	for start := range m.atoms {
		if visited[start] {
			continue
		}
		var comp []int
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			at := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, at)
			for _, nb := range m.Neighbors(at) {
				if !visited[nb] {
					visited[nb] = true
					stack = append(stack, nb)
				}
			}
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	return comps
}

// ─────────────────────────────────────────────────────────────────────────────
// Ring detection
// ─────────────────────────────────────────────────────────────────────────────

// detectRings finds every cycle of size <= maxRingSize.  For each bond, the
// shortest alternative path between its endpoints (excluding the bond itself)
// closes one candidate ring; duplicates are collapsed by their atom set.
func (m *Molecule) detectRings() {
	type ringKey string
	found := make(map[ringKey]bool)

	for bi, b := range m.bonds {
		path := m.shortestPathAvoiding(b.From, b.To, bi, maxRingSize-1)
		if path == nil {
			continue
		}
		ring := path // path already includes both endpoints
		keyAtoms := append([]int(nil), ring...)
		sort.Ints(keyAtoms)
		key := ringKey(fmt.Sprint(keyAtoms))
		if found[key] {
			continue
		}
		found[key] = true
		m.rings = append(m.rings, ring)
	}

	// Stamp ring membership onto atoms and bonds.
	for ri, ring := range m.rings {
		for _, at := range ring {
			m.atoms[at].Rings = append(m.atoms[at].Rings, ri)
		}
		for i := range ring {
			a, b := ring[i], ring[(i+1)%len(ring)]
			for _, bi := range m.adj[a] {
				if m.bonds[bi].Other(a) == b {
					m.bonds[bi].InRing = true
				}
			}
		}
	}
}

// shortestPathAvoiding runs a BFS from 'from' to 'to' that never traverses
// bond 'skip', bounded by maxLen edges.  It returns the atom path including
// both endpoints, or nil when no such path exists.
func (m *Molecule) shortestPathAvoiding(from, to, skip, maxLen int) []int {
	prev := make([]int, len(m.atoms))
	dist := make([]int, len(m.atoms))
	for i := range prev {
		prev[i] = -1
		dist[i] = -1
	}
	dist[from] = 0
	queue := []int{from}
	for len(queue) > 0 {
		at := queue[0]
		queue = queue[1:]
		if dist[at] >= maxLen {
			continue
		}
		for _, bi := range m.adj[at] {
			if bi == skip {
				continue
			}
			nb := m.bonds[bi].Other(at)
			if dist[nb] != -1 {
				continue
			}
			dist[nb] = dist[at] + 1
			prev[nb] = at
			if nb == to {
				var path []int
				for cur := to; cur != -1; cur = prev[cur] {
					path = append(path, cur)
				}
				// Reverse so the path runs from 'from' to 'to'.
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, nb)
		}
	}
	return nil
}
