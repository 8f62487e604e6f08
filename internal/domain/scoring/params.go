package scoring

import (
	"fmt"
)

// Aggregation types accepted by the engine for combining components.
const (
	AggregationGeometricMean  = "geometric_mean"
	AggregationArithmeticMean = "arithmetic_mean"
)

// TransformDoubleSigmoid is the only transform the molecular-weight family
// uses.
const TransformDoubleSigmoid = "double_sigmoid"

// DefaultReferenceSMILES is the reference molecule for the similarity family
// when none is configured.
const DefaultReferenceSMILES = "n1(nc(c(c1C)-c2n[nH]c(c2)[C@@]3([C@@H](CN(CC3)Cc4nc5c(c(n4)C)cccc5)O)OC)C)C"

// Parameters is the bag of user-tunable values overlaid onto the component
// templates.  It is owned by configuration and read-only during a request;
// callers that need to change it build a new value (see Clone).
type Parameters struct {
	ScoringType string `mapstructure:"scoring_type" json:"scoring_type" yaml:"scoring_type"`
	Parallel    bool   `mapstructure:"parallel" json:"parallel" yaml:"parallel"`

	Alerts   AlertsParams          `mapstructure:"alerts" json:"alerts" yaml:"alerts"`
	QED      WeightedParams        `mapstructure:"qed" json:"qed" yaml:"qed"`
	MW       MolecularWeightParams `mapstructure:"mw" json:"mw" yaml:"mw"`
	Tanimoto TanimotoParams        `mapstructure:"tanimoto" json:"tanimoto" yaml:"tanimoto"`
	PMI      PMIParams             `mapstructure:"pmi" json:"pmi" yaml:"pmi"`
}

// AlertsParams tunes the structural-alert filter.
type AlertsParams struct {
	Name   string   `mapstructure:"name" json:"name" yaml:"name"`
	SMARTS []string `mapstructure:"smarts" json:"smarts" yaml:"smarts"`
}

// WeightedParams is a display name plus aggregation weight.
type WeightedParams struct {
	Name   string  `mapstructure:"name" json:"name" yaml:"name"`
	Weight float64 `mapstructure:"weight" json:"weight" yaml:"weight"`
}

// TransformParams are the double-sigmoid coefficients.
type TransformParams struct {
	Type    string  `mapstructure:"type" json:"type" yaml:"type"`
	High    float64 `mapstructure:"high" json:"high" yaml:"high"`
	Low     float64 `mapstructure:"low" json:"low" yaml:"low"`
	CoefDiv float64 `mapstructure:"coef_div" json:"coef_div" yaml:"coef_div"`
	CoefSi  float64 `mapstructure:"coef_si" json:"coef_si" yaml:"coef_si"`
	CoefSe  float64 `mapstructure:"coef_se" json:"coef_se" yaml:"coef_se"`
}

// MolecularWeightParams tunes the molecular-weight family.
type MolecularWeightParams struct {
	Name      string          `mapstructure:"name" json:"name" yaml:"name"`
	Weight    float64         `mapstructure:"weight" json:"weight" yaml:"weight"`
	Transform TransformParams `mapstructure:"transform" json:"transform" yaml:"transform"`
}

// TanimotoParams tunes the similarity family.
type TanimotoParams struct {
	Name        string   `mapstructure:"name" json:"name" yaml:"name"`
	Weight      float64  `mapstructure:"weight" json:"weight" yaml:"weight"`
	SMILES      []string `mapstructure:"smiles" json:"smiles" yaml:"smiles"`
	Radius      int      `mapstructure:"radius" json:"radius" yaml:"radius"`
	UseCounts   bool     `mapstructure:"use_counts" json:"use_counts" yaml:"use_counts"`
	UseFeatures bool     `mapstructure:"use_features" json:"use_features" yaml:"use_features"`
}

// PMIParams tunes the paired shape-descriptor family.
type PMIParams struct {
	Name      string  `mapstructure:"name" json:"name" yaml:"name"`
	Weight1   float64 `mapstructure:"weight_1" json:"weight_1" yaml:"weight_1"`
	Property1 string  `mapstructure:"property_1" json:"property_1" yaml:"property_1"`
	Weight2   float64 `mapstructure:"weight_2" json:"weight_2" yaml:"weight_2"`
	Property2 string  `mapstructure:"property_2" json:"property_2" yaml:"property_2"`
}

// DefaultParameters returns a fresh parameter bag holding the stock values.
func DefaultParameters() Parameters {
	return Parameters{
		ScoringType: AggregationGeometricMean,
		Parallel:    false,
		Alerts: AlertsParams{
			Name:   "Alerts",
			SMARTS: []string{"[*;r10]"},
		},
		QED: WeightedParams{Name: "QED", Weight: 0.25},
		MW: MolecularWeightParams{
			Name:   "MW",
			Weight: 0.25,
			Transform: TransformParams{
				Type:    TransformDoubleSigmoid,
				High:    500.0,
				Low:     200.0,
				CoefDiv: 500.0,
				CoefSi:  20.0,
				CoefSe:  20.0,
			},
		},
		Tanimoto: TanimotoParams{
			Name:        "Tanimoto similarity ECF6",
			Weight:      0.1,
			SMILES:      []string{DefaultReferenceSMILES},
			Radius:      3,
			UseCounts:   true,
			UseFeatures: true,
		},
		PMI: PMIParams{
			Name:      "PMI 3D-likeness",
			Weight1:   0.79,
			Property1: "npr1",
			Weight2:   0.21,
			Property2: "npr2",
		},
	}
}

// Clone returns a deep copy of p.
func (p Parameters) Clone() Parameters {
	out := p
	out.Alerts.SMARTS = cloneStrings(p.Alerts.SMARTS)
	out.Tanimoto.SMILES = cloneStrings(p.Tanimoto.SMILES)
	return out
}

// Validate checks the bag for values the engine would reject.
func (p Parameters) Validate() error {
	switch p.ScoringType {
	case AggregationGeometricMean, AggregationArithmeticMean:
	default:
		return fmt.Errorf("scoring_type %q is invalid; expected %s|%s",
			p.ScoringType, AggregationGeometricMean, AggregationArithmeticMean)
	}

	names := map[string]string{
		"alerts.name":   p.Alerts.Name,
		"qed.name":      p.QED.Name,
		"mw.name":       p.MW.Name,
		"tanimoto.name": p.Tanimoto.Name,
		"pmi.name":      p.PMI.Name,
	}
	for key, v := range names {
		if v == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	weights := map[string]float64{
		"qed.weight":      p.QED.Weight,
		"mw.weight":       p.MW.Weight,
		"tanimoto.weight": p.Tanimoto.Weight,
		"pmi.weight_1":    p.PMI.Weight1,
		"pmi.weight_2":    p.PMI.Weight2,
	}
	for key, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s must be >= 0, got %g", key, w)
		}
	}

	if p.MW.Transform.Type != TransformDoubleSigmoid {
		return fmt.Errorf("mw.transform.type %q is invalid; expected %s", p.MW.Transform.Type, TransformDoubleSigmoid)
	}
	if p.MW.Transform.Low > p.MW.Transform.High {
		return fmt.Errorf("mw.transform.low %g exceeds high %g", p.MW.Transform.Low, p.MW.Transform.High)
	}
	if p.Tanimoto.Radius < 1 {
		return fmt.Errorf("tanimoto.radius must be >= 1, got %d", p.Tanimoto.Radius)
	}
	if p.PMI.Property1 == "" || p.PMI.Property2 == "" {
		return fmt.Errorf("pmi.property_1 and pmi.property_2 are required")
	}
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

//Personal.AI order the ending
