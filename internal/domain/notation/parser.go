package notation

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Parse errors
// ─────────────────────────────────────────────────────────────────────────────

// ErrorKind classifies why a notation string was rejected.
type ErrorKind string

const (
	ErrEmptyInput       ErrorKind = "empty_input"
	ErrUnknownElement   ErrorKind = "unknown_element"
	ErrUnbalancedBranch ErrorKind = "unbalanced_branch"
	ErrUnclosedRing     ErrorKind = "unclosed_ring"
	ErrDanglingBond     ErrorKind = "dangling_bond"
)

// ParseError reports a rejected notation string with the byte offset of the
// offending token.  For defects only detectable at end of input (an open
// branch, a trailing bond) Offset points at the position where the missing
// token was expected: the end of the string for branches, the bond symbol for
// dangling bonds, the opening digit for unclosed rings.
type ParseError struct {
	Kind    ErrorKind
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

func parseErrf(kind ErrorKind, offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Parser
// ─────────────────────────────────────────────────────────────────────────────

// ringOpening tracks a ring-closure digit waiting for its partner.
type ringOpening struct {
	atom   int
	order  BondOrder // 0 when no explicit bond preceded the digit
	offset int
}

type parser struct {
	input string
	atoms []Atom
	bonds []Bond

	prev        int // atom awaiting the next bond; -1 before the first atom
	branches    []int
	rings       map[byte]ringOpening
	pending     BondOrder // explicit bond symbol awaiting its right-hand atom
	pendingOff  int
	bondPresent bool
}

// Parse converts a line-notation string into a Molecule.  On failure the
// returned error is always a *ParseError carrying the kind and byte offset.
func Parse(input string) (*Molecule, error) {
	if strings.TrimSpace(input) == "" {
		return nil, parseErrf(ErrEmptyInput, 0, "notation string is empty")
	}

	p := &parser{
		input: input,
		prev:  -1,
		rings: make(map[byte]ringOpening),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return newMoleculeChecked(p.atoms, p.bonds)
}

// newMoleculeChecked wraps graph construction failures (which the parser
// rules should already have excluded) as internal dangling-bond errors so
// callers always see a *ParseError.
func newMoleculeChecked(atoms []Atom, bonds []Bond) (*Molecule, error) {
	m, err := newMolecule(atoms, bonds)
	if err != nil {
		return nil, parseErrf(ErrDanglingBond, 0, "inconsistent bond graph: %v", err)
	}
	return m, nil
}

func (p *parser) run() error {
	i := 0
	for i < len(p.input) {
		c := p.input[i]
		switch {
		case c == '(':
			if p.prev == -1 {
				return parseErrf(ErrUnbalancedBranch, i, "branch opened before any atom")
			}
			if p.bondPresent {
				return parseErrf(ErrDanglingBond, p.pendingOff, "bond symbol %q not followed by an atom", p.input[p.pendingOff])
			}
			p.branches = append(p.branches, p.prev)
			i++

		case c == ')':
			if len(p.branches) == 0 {
				return parseErrf(ErrUnbalancedBranch, i, "branch closed without a matching '('")
			}
			if p.bondPresent {
				return parseErrf(ErrDanglingBond, p.pendingOff, "bond symbol %q not followed by an atom", p.input[p.pendingOff])
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			i++

		case c == '-' || c == '=' || c == '#' || c == ':':
			if p.prev == -1 || p.bondPresent {
				return parseErrf(ErrDanglingBond, i, "bond symbol %q has no atom on its left", c)
			}
			p.pending = bondOrderForSymbol(c)
			p.pendingOff = i
			p.bondPresent = true
			i++

		case c >= '0' && c <= '9':
			if err := p.ringClosure(c-'0', i); err != nil {
				return err
			}
			i++

		case c == '%':
			// Two-digit ring closure label.
			if i+2 >= len(p.input) || !isDigit(p.input[i+1]) || !isDigit(p.input[i+2]) {
				return parseErrf(ErrUnclosedRing, i, "'%%' must be followed by two digits")
			}
			label := (p.input[i+1]-'0')*10 + (p.input[i+2] - '0')
			if err := p.ringClosure(label, i); err != nil {
				return err
			}
			i += 3

		case c == '[':
			next, err := p.bracketAtom(i)
			if err != nil {
				return err
			}
			i = next

		case isLetter(c):
			next, err := p.organicAtom(i)
			if err != nil {
				return err
			}
			i = next

		case c == ' ' || c == '\t':
			// Trailing whitespace is tolerated; interior whitespace is not.
			if strings.TrimSpace(p.input[i:]) == "" {
				i = len(p.input)
				continue
			}
			return parseErrf(ErrUnknownElement, i, "unexpected whitespace inside notation")

		default:
			return parseErrf(ErrUnknownElement, i, "unexpected character %q", c)
		}
	}

	if p.bondPresent {
		return parseErrf(ErrDanglingBond, p.pendingOff, "bond symbol %q at end of input", p.input[p.pendingOff])
	}
	if len(p.rings) > 0 {
		// Report the earliest opening so the caret points at the real culprit.
		first := ringOpening{offset: len(p.input)}
		var label byte
		for l, o := range p.rings {
			if o.offset < first.offset {
				first = o
				label = l
			}
		}
		return parseErrf(ErrUnclosedRing, first.offset, "ring closure %d opened but never closed", label)
	}
	if len(p.branches) > 0 {
		return parseErrf(ErrUnbalancedBranch, len(p.input), "%d branch(es) never closed", len(p.branches))
	}
	if len(p.atoms) == 0 {
		return parseErrf(ErrEmptyInput, 0, "notation contains no atoms")
	}
	return nil
}

// addAtom appends the atom and bonds it to the previous one, honoring any
// pending explicit bond symbol.
func (p *parser) addAtom(a Atom) {
	idx := len(p.atoms)
	p.atoms = append(p.atoms, a)
	if p.prev != -1 {
		order := BondSingle
		if p.bondPresent {
			order = p.pending
		} else if p.atoms[p.prev].Aromatic && a.Aromatic {
			order = BondAromatic
		}
		p.bonds = append(p.bonds, Bond{From: p.prev, To: idx, Order: order})
	}
	p.bondPresent = false
	p.pending = 0
	p.prev = idx
}

// ringClosure opens or closes the ring bond labelled by digit.
func (p *parser) ringClosure(label byte, offset int) error {
	if p.prev == -1 {
		return parseErrf(ErrDanglingBond, offset, "ring closure digit before any atom")
	}
	open, ok := p.rings[label]
	if !ok {
		order := BondOrder(0)
		if p.bondPresent {
			order = p.pending
			p.bondPresent = false
			p.pending = 0
		}
		p.rings[label] = ringOpening{atom: p.prev, order: order, offset: offset}
		return nil
	}
	delete(p.rings, label)
	if open.atom == p.prev {
		return parseErrf(ErrDanglingBond, offset, "ring closure %d closes on its opening atom", label)
	}
	order := BondSingle
	switch {
	case p.bondPresent && open.order != 0 && p.pending != open.order:
		return parseErrf(ErrDanglingBond, offset, "ring closure %d bond orders disagree", label)
	case p.bondPresent:
		order = p.pending
	case open.order != 0:
		order = open.order
	case p.atoms[open.atom].Aromatic && p.atoms[p.prev].Aromatic:
		order = BondAromatic
	}
	p.bondPresent = false
	p.pending = 0
	for _, b := range p.bonds {
		if (b.From == open.atom && b.To == p.prev) || (b.From == p.prev && b.To == open.atom) {
			return parseErrf(ErrDanglingBond, offset, "ring closure %d duplicates an existing bond", label)
		}
	}
	p.bonds = append(p.bonds, Bond{From: open.atom, To: p.prev, Order: order})
	return nil
}

// organicAtom consumes a bare (non-bracket) atom starting at i and returns
// the index just past it.
func (p *parser) organicAtom(i int) (int, error) {
	c := p.input[i]

	// Lowercase: aromatic organic-subset atom.
	if c >= 'a' && c <= 'z' {
		sym := strings.ToUpper(string(c))
		el, ok := LookupElement(sym)
		if !ok || !el.AromaticOK {
			return 0, parseErrf(ErrUnknownElement, i, "unknown aromatic element %q", c)
		}
		p.addAtom(Atom{Symbol: el.Symbol, Aromatic: true, explicitH: -1})
		return i + 1, nil
	}

	// Two-letter symbols (Cl, Br) win over their one-letter prefixes.
	if i+1 < len(p.input) && isLower(p.input[i+1]) {
		sym := p.input[i : i+2]
		if el, ok := LookupElement(sym); ok && el.Organic {
			p.addAtom(Atom{Symbol: el.Symbol, explicitH: -1})
			return i + 2, nil
		}
	}

	sym := string(c)
	el, ok := LookupElement(sym)
	if !ok || !el.Organic {
		return 0, parseErrf(ErrUnknownElement, i, "unknown element %q", sym)
	}
	p.addAtom(Atom{Symbol: el.Symbol, explicitH: -1})
	return i + 1, nil
}

// bracketAtom consumes "[isotope symbol Hcount charge]" starting at the '['
// and returns the index just past the ']'.
func (p *parser) bracketAtom(start int) (int, error) {
	j := start + 1
	end := strings.IndexByte(p.input[start:], ']')
	if end == -1 {
		return 0, parseErrf(ErrUnbalancedBranch, start, "bracket atom never closed")
	}
	end += start

	var atom Atom
	atom.explicitH = 0

	// Isotope prefix.
	for j < end && isDigit(p.input[j]) {
		atom.Isotope = atom.Isotope*10 + int(p.input[j]-'0')
		j++
	}

	// Element symbol: two-letter first, then one-letter, then lowercase
	// aromatic form.
	symStart := j
	switch {
	case j+1 < end && isUpper(p.input[j]) && isLower(p.input[j+1]) && SupportedElement(p.input[j:j+2]):
		atom.Symbol = p.input[j : j+2]
		j += 2
	case j < end && isUpper(p.input[j]) && SupportedElement(string(p.input[j])):
		atom.Symbol = string(p.input[j])
		j++
	case j < end && isLower(p.input[j]):
		sym := strings.ToUpper(string(p.input[j]))
		el, ok := LookupElement(sym)
		if !ok || !el.AromaticOK {
			return 0, parseErrf(ErrUnknownElement, j, "unknown aromatic element %q", p.input[j])
		}
		atom.Symbol = el.Symbol
		atom.Aromatic = true
		j++
	default:
		return 0, parseErrf(ErrUnknownElement, symStart, "bracket atom has no recognizable element symbol")
	}

	// Explicit hydrogen count.  "[OH]" means one, "[NH4+]" means four.
	// The symbol H itself ("[H+]") is handled above and skips this branch.
	if j < end && p.input[j] == 'H' && atom.Symbol != "H" {
		j++
		if j < end && isDigit(p.input[j]) {
			n := 0
			for j < end && isDigit(p.input[j]) {
				n = n*10 + int(p.input[j]-'0')
				j++
			}
			atom.explicitH = n
		} else {
			atom.explicitH = 1
		}
	}

	// Formal charge: "+", "-", "++", "+2", "-3".
	if j < end && (p.input[j] == '+' || p.input[j] == '-') {
		sign := 1
		if p.input[j] == '-' {
			sign = -1
		}
		count := 1
		mark := p.input[j]
		j++
		if j < end && isDigit(p.input[j]) {
			count = 0
			for j < end && isDigit(p.input[j]) {
				count = count*10 + int(p.input[j]-'0')
				j++
			}
		} else {
			for j < end && p.input[j] == mark {
				count++
				j++
			}
		}
		atom.Charge = sign * count
	}

	if j != end {
		return 0, parseErrf(ErrUnknownElement, j, "unexpected character %q inside bracket atom", p.input[j])
	}

	p.addAtom(atom)
	return end + 1, nil
}

func bondOrderForSymbol(c byte) BondOrder {
	switch c {
	case '=':
		return BondDouble
	case '#':
		return BondTriple
	case ':':
		return BondAromatic
	default:
		return BondSingle
	}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isUpper(c byte) bool  { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool  { return c >= 'a' && c <= 'z' }
func isLetter(c byte) bool { return isUpper(c) || isLower(c) }
