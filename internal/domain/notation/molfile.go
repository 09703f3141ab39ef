package notation

import (
	"strconv"
	"strings"

	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
)

// ParseMolfile reads a single MDL V2000 molfile and returns the molecular
// graph.  Coordinates in the atom block are ignored; the depiction engine
// computes its own layout.  Charges are taken from "M  CHG" property lines,
// which supersede the legacy charge column per the V2000 specification.
func ParseMolfile(data string) (*Molecule, error) {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	if len(lines) < 4 {
		return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile too short for header block")
	}

	counts := lines[3]
	if len(counts) < 6 {
		return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile counts line malformed")
	}
	nAtoms, err := strconv.Atoi(strings.TrimSpace(counts[0:3]))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "molfile atom count unreadable")
	}
	nBonds, err := strconv.Atoi(strings.TrimSpace(counts[3:6]))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "molfile bond count unreadable")
	}
	if len(lines) < 4+nAtoms+nBonds {
		return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile truncated before end of bond block")
	}

	atoms := make([]Atom, 0, nAtoms)
	for i := 0; i < nAtoms; i++ {
		line := lines[4+i]
		if len(line) < 34 {
			return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile atom line too short").
				WithDetail("line " + strconv.Itoa(4+i+1))
		}
		sym := strings.TrimSpace(line[31:34])
		if !SupportedElement(sym) {
			return nil, apperrors.New(apperrors.ErrCodeStructureUnsupported, "unsupported element in molfile").
				WithDetail(sym)
		}
		atoms = append(atoms, Atom{Symbol: sym, explicitH: -1})
	}

	bonds := make([]Bond, 0, nBonds)
	for i := 0; i < nBonds; i++ {
		line := lines[4+nAtoms+i]
		if len(line) < 9 {
			return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile bond line too short").
				WithDetail("line " + strconv.Itoa(4+nAtoms+i+1))
		}
		a1, err1 := strconv.Atoi(strings.TrimSpace(line[0:3]))
		a2, err2 := strconv.Atoi(strings.TrimSpace(line[3:6]))
		bt, err3 := strconv.Atoi(strings.TrimSpace(line[6:9]))
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile bond line unreadable").
				WithDetail("line " + strconv.Itoa(4+nAtoms+i+1))
		}
		if a1 < 1 || a1 > nAtoms || a2 < 1 || a2 > nAtoms {
			return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile bond references atom outside atom block")
		}
		var order BondOrder
		switch bt {
		case 1:
			order = BondSingle
		case 2:
			order = BondDouble
		case 3:
			order = BondTriple
		case 4:
			order = BondAromatic
			atoms[a1-1].Aromatic = true
			atoms[a2-1].Aromatic = true
		default:
			return nil, apperrors.New(apperrors.ErrCodeStructureUnsupported, "unsupported molfile bond type").
				WithDetail(strconv.Itoa(bt))
		}
		bonds = append(bonds, Bond{From: a1 - 1, To: a2 - 1, Order: order})
	}

	// Property block: "M  CHG  n aaa vvv aaa vvv ..." pairs, "M  END" stops.
	for _, line := range lines[4+nAtoms+nBonds:] {
		if strings.HasPrefix(line, "M  END") {
			break
		}
		if !strings.HasPrefix(line, "M  CHG") {
			continue
		}
		fields := strings.Fields(line[6:])
		if len(fields) < 1 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < 1+2*n {
			return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile charge property line malformed")
		}
		for p := 0; p < n; p++ {
			idx, err1 := strconv.Atoi(fields[1+2*p])
			chg, err2 := strconv.Atoi(fields[2+2*p])
			if err1 != nil || err2 != nil || idx < 1 || idx > nAtoms {
				return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "molfile charge property entry malformed")
			}
			atoms[idx-1].Charge = chg
		}
	}

	m, err := newMolecule(atoms, bonds)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "molfile bond graph inconsistent")
	}
	return m, nil
}

// ParseSDF splits an SD file into its records ("$$$$" delimited) and parses
// each leading molfile block.  Data fields between "M  END" and the record
// terminator are returned verbatim so callers can recover names and
// registry identifiers.
func ParseSDF(data string) ([]SDFRecord, error) {
	var records []SDFRecord
	for _, chunk := range strings.Split(data, "$$$$") {
		chunk = strings.TrimLeft(chunk, "\r\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		mol, err := ParseMolfile(chunk)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConversionFailed, "sdf record rejected").
				WithDetail("record " + strconv.Itoa(len(records)+1))
		}
		records = append(records, SDFRecord{
			Molecule: mol,
			Name:     strings.TrimSpace(strings.SplitN(chunk, "\n", 2)[0]),
			Fields:   parseSDFFields(chunk),
		})
	}
	if len(records) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeConversionFailed, "sdf contains no records")
	}
	return records, nil
}

// SDFRecord is one molecule of an SD file plus its named data fields.
type SDFRecord struct {
	Molecule *Molecule
	Name     string
	Fields   map[string]string
}

// parseSDFFields extracts "> <NAME>" data items following the molfile block.
func parseSDFFields(chunk string) map[string]string {
	fields := make(map[string]string)
	lines := strings.Split(chunk, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "> ") && !strings.HasPrefix(line, ">  ") {
			continue
		}
		open := strings.Index(line, "<")
		if open == -1 {
			continue
		}
		end := strings.Index(line[open:], ">")
		if end == -1 {
			continue
		}
		name := line[open+1 : open+end]
		var vals []string
		for j := i + 1; j < len(lines); j++ {
			v := strings.TrimRight(lines[j], "\r")
			if strings.TrimSpace(v) == "" {
				i = j
				break
			}
			vals = append(vals, v)
		}
		fields[name] = strings.Join(vals, "\n")
	}
	return fields
}
