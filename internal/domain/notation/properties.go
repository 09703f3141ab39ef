package notation

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Properties are the values derived from a parsed molecule: Hill-order
// molecular formula, average molecular weight, and the structural counts
// surfaced to callers.
type Properties struct {
	Formula      string
	Weight       float64
	AtomCount    int
	BondCount    int
	RingCount    int
	FormalCharge int
}

// implicitHydrogens applies the valence-filling rule for atom i.  Bracket
// atoms use their written count verbatim; bare organic-subset atoms fill up
// to the default valence, with aromatic bonds contributing 1.5 each and the
// per-atom sum rounded up before subtraction.  The count never goes negative:
// hypervalent inputs simply get zero implicit hydrogens.
func implicitHydrogens(m *Molecule, i int) int {
	a := m.atoms[i]
	if a.explicitH >= 0 {
		return a.explicitH
	}
	el, ok := LookupElement(a.Symbol)
	if !ok || !el.Organic {
		return 0
	}
	sum := 0.0
	for _, bi := range m.adj[i] {
		sum += m.bonds[bi].Order.Electrons()
	}
	h := el.Valence + a.Charge - int(math.Ceil(sum))
	if h < 0 {
		h = 0
	}
	return h
}

// ComputeProperties derives formula, weight, and counts from a molecule.
// The same Molecule always yields the same Properties; no randomness and no
// external state are involved.
func ComputeProperties(m *Molecule) Properties {
	counts := make(map[string]int)
	weight := 0.0
	for i := 0; i < m.AtomCount(); i++ {
		a := m.Atom(i)
		counts[a.Symbol]++
		el, _ := LookupElement(a.Symbol)
		weight += el.Weight
		if a.ImplicitH > 0 {
			counts["H"] += a.ImplicitH
			weight += float64(a.ImplicitH) * hydrogenWeight
		}
	}
	return Properties{
		Formula:      hillFormula(counts),
		Weight:       weight,
		AtomCount:    m.AtomCount(),
		BondCount:    m.BondCount(),
		RingCount:    m.RingCount(),
		FormalCharge: m.FormalCharge(),
	}
}

// hillFormula renders element counts in Hill order: carbon first, hydrogen
// second, every other element alphabetical.  Without carbon all elements sort
// alphabetically, hydrogen included.
func hillFormula(counts map[string]int) string {
	var sb strings.Builder
	write := func(sym string) {
		n := counts[sym]
		if n == 0 {
			return
		}
		sb.WriteString(sym)
		if n > 1 {
			fmt.Fprintf(&sb, "%d", n)
		}
	}

	rest := make([]string, 0, len(counts))
	if counts["C"] > 0 {
		write("C")
		write("H")
		for sym := range counts {
			if sym != "C" && sym != "H" {
				rest = append(rest, sym)
			}
		}
	} else {
		for sym := range counts {
			rest = append(rest, sym)
		}
	}
	sort.Strings(rest)
	for _, sym := range rest {
		write(sym)
	}
	return sb.String()
}
