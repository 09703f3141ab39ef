// Package chem defines the data transfer objects exchanged between the
// notation core and its callers (HTTP handlers, CLI commands, persistence,
// messaging).  These types mirror the domain results but carry no behaviour,
// so they can be serialized freely at every boundary.
package chem

import (
	"github.com/turtacn/ChemNotation/pkg/types/common"
)

// NotationErrorDTO describes a rejected notation string: the failure category,
// the byte offset of the offending token, and a human-readable message.
type NotationErrorDTO struct {
	Kind    string `json:"kind"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

// ValidationResultDTO is the cross-layer form of a validation outcome.
// Exactly one of the two shapes is populated: when Valid is true the
// canonical form and derived properties are set; when false, Error is set.
type ValidationResultDTO struct {
	Valid            bool              `json:"valid"`
	Notation         string            `json:"notation"`
	CanonicalForm    string            `json:"canonical_form,omitempty"`
	MolecularFormula string            `json:"molecular_formula,omitempty"`
	MolecularWeight  float64           `json:"molecular_weight,omitempty"`
	AtomCount        int               `json:"atom_count,omitempty"`
	BondCount        int               `json:"bond_count,omitempty"`
	RingCount        int               `json:"ring_count,omitempty"`
	FormalCharge     int               `json:"formal_charge,omitempty"`
	Error            *NotationErrorDTO `json:"error,omitempty"`
}

// DepictionFormat selects the encoding of a rendered depiction.
type DepictionFormat string

const (
	FormatSVG DepictionFormat = "svg"
	FormatPNG DepictionFormat = "png"
)

// IsValid checks if the depiction format is supported.
func (f DepictionFormat) IsValid() bool {
	switch f {
	case FormatSVG, FormatPNG:
		return true
	default:
		return false
	}
}

// ContentType returns the MIME type for the depiction format.
func (f DepictionFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	default:
		return "image/svg+xml"
	}
}

// StructureRecordDTO is the persistence-boundary form of a validated
// structure.  Only canonical form, formula, and weight ever cross the
// boundary — never inventory data such as stock quantities or locations.
type StructureRecordDTO struct {
	common.BaseEntity

	CanonicalForm    string  `json:"canonical_form"`
	MolecularFormula string  `json:"molecular_formula"`
	MolecularWeight  float64 `json:"molecular_weight"`
	SourceNotation   string  `json:"source_notation,omitempty"`
}

// StructureValidatedEvent is published to the messaging layer whenever a
// notation string validates successfully.
type StructureValidatedEvent struct {
	RecordID         common.ID        `json:"record_id,omitempty"`
	CanonicalForm    string           `json:"canonical_form"`
	MolecularFormula string           `json:"molecular_formula"`
	MolecularWeight  float64          `json:"molecular_weight"`
	OccurredAt       common.Timestamp `json:"occurred_at"`
}

// StructureImportedEvent is published once per completed molfile/SD import
// with the batch outcome.
type StructureImportedEvent struct {
	Format     string           `json:"format"`
	Total      int              `json:"total"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	OccurredAt common.Timestamp `json:"occurred_at"`
}

// CompoundSummaryDTO aggregates validation, properties, and depiction
// availability for a single notation string.
type CompoundSummaryDTO struct {
	Validation   ValidationResultDTO `json:"validation"`
	HasDepiction bool                `json:"has_depiction"`
	Degraded     bool                `json:"degraded,omitempty"`
	Backend      string              `json:"backend"`
}
