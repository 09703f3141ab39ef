package notation

// Element carries the per-element constants the parser and property
// calculator need: standard atomic weight and default valence.  The table is
// a closed set — the parser rejects any symbol not listed here, so later
// stages can assume every atom resolves.
type Element struct {
	Symbol  string
	Weight  float64
	Valence int
	// Organic reports whether the element may be written bare (outside
	// brackets) and therefore receives implicit hydrogens.
	Organic bool
	// AromaticOK reports whether the lowercase aromatic form is accepted.
	AromaticOK bool
}

// elements is the supported element set, keyed by symbol.  Weights follow the
// IUPAC 2021 standard atomic weights, rounded to three decimals.
var elements = map[string]Element{
	"H":  {Symbol: "H", Weight: 1.008, Valence: 1},
	"B":  {Symbol: "B", Weight: 10.811, Valence: 3, Organic: true, AromaticOK: true},
	"C":  {Symbol: "C", Weight: 12.011, Valence: 4, Organic: true, AromaticOK: true},
	"N":  {Symbol: "N", Weight: 14.007, Valence: 3, Organic: true, AromaticOK: true},
	"O":  {Symbol: "O", Weight: 15.999, Valence: 2, Organic: true, AromaticOK: true},
	"F":  {Symbol: "F", Weight: 18.998, Valence: 1, Organic: true},
	"Na": {Symbol: "Na", Weight: 22.990, Valence: 1},
	"Mg": {Symbol: "Mg", Weight: 24.305, Valence: 2},
	"Si": {Symbol: "Si", Weight: 28.086, Valence: 4},
	"P":  {Symbol: "P", Weight: 30.974, Valence: 3, Organic: true, AromaticOK: true},
	"S":  {Symbol: "S", Weight: 32.065, Valence: 2, Organic: true, AromaticOK: true},
	"Cl": {Symbol: "Cl", Weight: 35.453, Valence: 1, Organic: true},
	"K":  {Symbol: "K", Weight: 39.098, Valence: 1},
	"Ca": {Symbol: "Ca", Weight: 40.078, Valence: 2},
	"Fe": {Symbol: "Fe", Weight: 55.845, Valence: 2},
	"Zn": {Symbol: "Zn", Weight: 65.380, Valence: 2},
	"Br": {Symbol: "Br", Weight: 79.904, Valence: 1, Organic: true},
	"I":  {Symbol: "I", Weight: 126.904, Valence: 1, Organic: true},
}

// LookupElement returns the element entry for a symbol, case-sensitive.
func LookupElement(symbol string) (Element, bool) {
	e, ok := elements[symbol]
	return e, ok
}

// SupportedElement reports whether symbol names a supported element.
func SupportedElement(symbol string) bool {
	_, ok := elements[symbol]
	return ok
}

// hydrogenWeight is used when summing implicit hydrogens into the molecular
// weight without a table lookup per atom.
const hydrogenWeight = 1.008
