package scoring

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// rawLabelSuffix is appended to the display name for raw variants.
const rawLabelSuffix = " (raw)"

// pmiLabels are the fixed output columns of the paired shape family.
var pmiLabels = map[Selector]string{
	SelectorPMI:     "pmi",
	SelectorPMI2:    "pmi.2",
	SelectorPMIRaw:  "pmi (raw)",
	SelectorPMI2Raw: "pmi (raw).2",
}

// ResolvedComponent is a template after parameter overlay, together with the
// output column the engine will write for the requested selector.
type ResolvedComponent struct {
	Selector  Selector
	Component Component
	Label     string

	// ScoringType and Parallel are carried from the parameter bag into the
	// job's scoring section.
	ScoringType string
	Parallel    bool
}

// Document renders the resolved component in the engine layout.
func (r ResolvedComponent) Document() map[string]any {
	return r.Component.Document()
}

// Resolve dispatches sel to its family, overlays params onto a fresh copy of
// the family template and derives the output column label.  Nothing is
// shared with params or the catalogue after it returns.
func Resolve(sel Selector, params Parameters) (ResolvedComponent, error) {
	family, ok := sel.Family()
	if !ok {
		return ResolvedComponent{}, unknownSelector(sel)
	}
	comp, err := Lookup(family)
	if err != nil {
		return ResolvedComponent{}, err
	}

	var label string
	switch family {
	case FamilyAlerts:
		ep := &comp.Endpoints[0]
		ep.Name = params.Alerts.Name
		ep.Params["smarts"] = NormalizeSMARTS(params.Alerts.SMARTS)
		label = params.Alerts.Name

	case FamilyQED:
		ep := &comp.Endpoints[0]
		ep.Name = params.QED.Name
		ep.Weight = weight(params.QED.Weight)
		label = displayLabel(params.QED.Name, sel)

	case FamilyMolecularWeight:
		ep := &comp.Endpoints[0]
		ep.Name = params.MW.Name
		ep.Weight = weight(params.MW.Weight)
		t := params.MW.Transform
		ep.Transform = &Transform{
			Type:    t.Type,
			High:    t.High,
			Low:     t.Low,
			CoefDiv: t.CoefDiv,
			CoefSi:  t.CoefSi,
			CoefSe:  t.CoefSe,
		}
		label = displayLabel(params.MW.Name, sel)

	case FamilyTanimoto:
		ep := &comp.Endpoints[0]
		ep.Name = params.Tanimoto.Name
		ep.Weight = weight(params.Tanimoto.Weight)
		smiles := cloneStrings(params.Tanimoto.SMILES)
		if smiles == nil {
			smiles = []string{}
		}
		ep.Params["smiles"] = smiles
		ep.Params["radius"] = params.Tanimoto.Radius
		ep.Params["use_counts"] = params.Tanimoto.UseCounts
		ep.Params["use_features"] = params.Tanimoto.UseFeatures
		label = displayLabel(params.Tanimoto.Name, sel)

	case FamilyPMI:
		l, ok := pmiLabels[sel]
		if !ok {
			return ResolvedComponent{}, unknownSelector(sel)
		}
		comp.Name = params.PMI.Name
		comp.Endpoints[0].Weight = weight(params.PMI.Weight1)
		comp.Endpoints[0].Params["property"] = params.PMI.Property1
		comp.Endpoints[1].Weight = weight(params.PMI.Weight2)
		comp.Endpoints[1].Params["property"] = params.PMI.Property2
		label = l

	default:
		return ResolvedComponent{}, unknownSelector(sel)
	}

	return ResolvedComponent{
		Selector:    sel,
		Component:   comp,
		Label:       label,
		ScoringType: params.ScoringType,
		Parallel:    params.Parallel,
	}, nil
}

func displayLabel(name string, sel Selector) string {
	if sel.Raw() {
		return name + rawLabelSuffix
	}
	return name
}

// NormalizeSMARTS passes each pattern through a JSON string round trip, which
// replaces invalid UTF-8 and canonicalises escapes, then applies NFC so
// visually identical patterns compare equal.  The result is never nil.
func NormalizeSMARTS(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, normalizeString(p))
	}
	return out
}

func normalizeString(s string) string {
	encoded, err := json.Marshal(s)
	if err != nil {
		return norm.NFC.String(strings.ToValidUTF8(s, "\ufffd"))
	}
	var decoded string
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return norm.NFC.String(strings.ToValidUTF8(s, "\ufffd"))
	}
	return norm.NFC.String(decoded)
}

//Personal.AI order the ending
