// Package scoring holds the property-to-pipeline dispatch core of molscore:
// the selector set, the tunable parameter bag, the immutable component
// templates, the overlay that resolves a selector into an engine component
// with its output column label, and the assembly of the engine job.
package scoring

import (
	"fmt"
	"strings"

	"github.com/turtacn/molscore/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Selector
// ─────────────────────────────────────────────────────────────────────────────

// Selector identifies the property requested for one scoring call.
type Selector string

const (
	SelectorAlerts      Selector = "alerts"
	SelectorQED         Selector = "qed"
	SelectorQEDRaw      Selector = "qed_raw"
	SelectorMW          Selector = "mw"
	SelectorMWRaw       Selector = "mw_raw"
	SelectorTanimoto    Selector = "tanimoto"
	SelectorTanimotoRaw Selector = "tanimoto_raw"
	SelectorPMI         Selector = "pmi"
	SelectorPMI2        Selector = "pmi2"
	SelectorPMIRaw      Selector = "pmi_raw"
	SelectorPMI2Raw     Selector = "pmi2_raw"
)

type selectorInfo struct {
	family      Family
	raw         bool
	description string
}

var selectors = map[Selector]selectorInfo{
	SelectorAlerts:      {FamilyAlerts, false, "Structural alerts (custom SMARTS filter)"},
	SelectorQED:         {FamilyQED, false, "Quantitative estimation of drug-likeness"},
	SelectorQEDRaw:      {FamilyQED, true, "Quantitative estimation of drug-likeness (raw)"},
	SelectorMW:          {FamilyMolecularWeight, false, "Molecular weight (double-sigmoid desirability)"},
	SelectorMWRaw:       {FamilyMolecularWeight, true, "Molecular weight in Dalton (raw)"},
	SelectorTanimoto:    {FamilyTanimoto, false, "Tanimoto similarity to reference molecules (ECFP6)"},
	SelectorTanimotoRaw: {FamilyTanimoto, true, "Tanimoto similarity to reference molecules (raw)"},
	SelectorPMI:         {FamilyPMI, false, "Normalized principal moments of inertia, NPR1"},
	SelectorPMI2:        {FamilyPMI, false, "Normalized principal moments of inertia, NPR2"},
	SelectorPMIRaw:      {FamilyPMI, true, "Normalized principal moments of inertia, NPR1 (raw)"},
	SelectorPMI2Raw:     {FamilyPMI, true, "Normalized principal moments of inertia, NPR2 (raw)"},
}

// orderedSelectors is the advertised order of the property catalogue.
var orderedSelectors = []Selector{
	SelectorAlerts,
	SelectorQED, SelectorQEDRaw,
	SelectorMW, SelectorMWRaw,
	SelectorTanimoto, SelectorTanimotoRaw,
	SelectorPMI, SelectorPMI2, SelectorPMIRaw, SelectorPMI2Raw,
}

func (s Selector) String() string { return string(s) }

// IsValid reports whether s is one of the declared selectors.  Matching is on
// the full string; a selector sharing only a leading fragment with a declared
// one is not valid.
func (s Selector) IsValid() bool {
	_, ok := selectors[s]
	return ok
}

// Family returns the property family s belongs to.
func (s Selector) Family() (Family, bool) {
	info, ok := selectors[s]
	return info.family, ok
}

// Raw reports whether s names the untransformed variant.
func (s Selector) Raw() bool {
	return selectors[s].raw
}

// Description returns the human-readable catalogue description of s.
func (s Selector) Description() string {
	return selectors[s].description
}

// ParseSelector normalises case and surrounding whitespace and resolves the
// result against the declared selector set.
func ParseSelector(s string) (Selector, error) {
	sel := Selector(strings.ToLower(strings.TrimSpace(s)))
	if sel.IsValid() {
		return sel, nil
	}
	return "", unknownSelector(sel)
}

// AllSelectors returns the declared selectors in catalogue order.
func AllSelectors() []Selector {
	out := make([]Selector, len(orderedSelectors))
	copy(out, orderedSelectors)
	return out
}

// unknownSelector builds the UnknownProperty error for sel.  Selectors that
// carry the shape family's stem get the family-specific message.
func unknownSelector(sel Selector) *errors.AppError {
	if strings.HasPrefix(string(sel), string(FamilyPMI)) {
		return errors.Newf(errors.ErrCodeUnknownProperty,
			"unknown %s variant %q; expected one of pmi, pmi2, pmi_raw, pmi2_raw", FamilyPMI, string(sel))
	}
	return errors.Newf(errors.ErrCodeUnknownProperty, "unknown property %q", string(sel)).
		WithDetail(fmt.Sprintf("supported: %s", strings.Join(selectorNames(), ", ")))
}

func selectorNames() []string {
	names := make([]string, len(orderedSelectors))
	for i, s := range orderedSelectors {
		names[i] = string(s)
	}
	return names
}

// ─────────────────────────────────────────────────────────────────────────────
// Family
// ─────────────────────────────────────────────────────────────────────────────

// Family names a group of selectors that share one component template.  The
// value doubles as the component key the engine expects.
type Family string

const (
	FamilyAlerts          Family = "custom_alerts"
	FamilyQED             Family = "QED"
	FamilyMolecularWeight Family = "MolecularWeight"
	FamilyTanimoto        Family = "TanimotoDistance"
	FamilyPMI             Family = "pmi"
)

func (f Family) String() string { return string(f) }

// AllFamilies returns every family with a template in the catalogue.
func AllFamilies() []Family {
	return []Family{FamilyAlerts, FamilyQED, FamilyMolecularWeight, FamilyTanimoto, FamilyPMI}
}

//Personal.AI order the ending
