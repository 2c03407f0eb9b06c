// Package compound defines the ganglioside compound record and the structural
// name grammar: parsing a raw compound name into prefix, lipid-chain suffix,
// and sugar-composition descriptors.
package compound

import "fmt"

// SugarProfile is the sugar-count breakdown of a ganglioside prefix.
type SugarProfile struct {
	// SialicAcids is the sialic-acid count derived from the second prefix
	// letter (A/M/D/T/Q/P → 0..5).
	SialicAcids int `json:"sialic_acids"`

	// NeutralSugars is 5 minus the series digit.
	NeutralSugars int `json:"neutral_sugars"`

	// Additional counts sugar units contributed by modifier tokens
	// (+dHex, +HexNAc, ...).
	Additional int `json:"additional"`
}

// Total returns the total sugar count of the profile.
func (s SugarProfile) Total() int {
	return s.SialicAcids + s.NeutralSugars + s.Additional
}

// Modifications holds the counts of recognised modifier tokens in a prefix.
// A doubled token ("+2OAc") counts as two.
type Modifications struct {
	OAc    int `json:"oac,omitempty"`
	DHex   int `json:"dhex,omitempty"`
	HexNAc int `json:"hexnac,omitempty"`
}

// HasAny reports whether at least one modifier is present.
func (m Modifications) HasAny() bool {
	return m.OAc > 0 || m.DHex > 0 || m.HexNAc > 0
}

// Record is one compound measurement with its derived structural descriptors.
// Records are created once at ingestion and passed by index through the
// pipeline; no stage mutates a record after creation.
type Record struct {
	// Raw measurement columns.
	Name     string  `json:"name"`
	RT       float64 `json:"rt"`     // retention time, minutes
	Volume   float64 `json:"volume"` // peak volume
	LogP     float64 `json:"log_p"`  // hydrophobicity proxy
	IsAnchor bool    `json:"is_anchor"`

	// Derived from Name.
	Prefix       string        `json:"prefix"` // structural class, e.g. "GD1+dHex"
	BasePrefix   string        `json:"base_prefix"` // prefix without modifier tokens, e.g. "GD1"
	Suffix       string        `json:"suffix"` // lipid chain, e.g. "36:1;O2"
	CarbonCount  int           `json:"carbon_count"`
	Unsaturation int           `json:"unsaturation"`
	OxygenCount  int           `json:"oxygen_count"`
	Sugars       SugarProfile  `json:"sugars"`
	Mods         Modifications `json:"mods"`
}

// TotalSugars returns the record's total sugar count.
func (r *Record) TotalSugars() int {
	return r.Sugars.Total()
}

// String renders the record's identity for logs.
func (r *Record) String() string {
	return fmt.Sprintf("%s(rt=%.3f logP=%.2f anchor=%v)", r.Name, r.RT, r.LogP, r.IsAnchor)
}
