package scoring

import (
	"github.com/turtacn/molscore/pkg/errors"
)

// Component is one engine scoring component: a family key, an optional
// component-level name, and its endpoints.
type Component struct {
	Key       Family
	Name      string
	Endpoints []Endpoint
}

// Endpoint is a single scored output of a component.
type Endpoint struct {
	Name      string
	Weight    *float64
	Params    map[string]any
	Transform *Transform
}

// Transform is the score transform attached to an endpoint.
type Transform struct {
	Type    string
	High    float64
	Low     float64
	CoefDiv float64
	CoefSi  float64
	CoefSe  float64
}

// Clone returns a deep copy of c; no slice, map or pointer is shared.
func (c Component) Clone() Component {
	out := Component{Key: c.Key, Name: c.Name}
	if c.Endpoints != nil {
		out.Endpoints = make([]Endpoint, len(c.Endpoints))
		for i, ep := range c.Endpoints {
			out.Endpoints[i] = ep.clone()
		}
	}
	return out
}

func (e Endpoint) clone() Endpoint {
	out := Endpoint{Name: e.Name}
	if e.Weight != nil {
		w := *e.Weight
		out.Weight = &w
	}
	if e.Params != nil {
		out.Params = cloneValue(e.Params).(map[string]any)
	}
	if e.Transform != nil {
		t := *e.Transform
		out.Transform = &t
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		return cloneStrings(x)
	default:
		return v
	}
}

// Document renders c in the engine's component layout:
//
//	{<key>: {"name": ..., "endpoint": [{...}, ...]}}
//
// The component-level name is emitted only when set.
func (c Component) Document() map[string]any {
	body := map[string]any{}
	if c.Name != "" {
		body["name"] = c.Name
	}
	endpoints := make([]any, 0, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		endpoints = append(endpoints, ep.document())
	}
	body["endpoint"] = endpoints
	return map[string]any{string(c.Key): body}
}

func (e Endpoint) document() map[string]any {
	doc := map[string]any{}
	if e.Name != "" {
		doc["name"] = e.Name
	}
	if e.Weight != nil {
		doc["weight"] = *e.Weight
	}
	if len(e.Params) > 0 {
		doc["params"] = cloneValue(e.Params)
	}
	if e.Transform != nil {
		doc["transform"] = map[string]any{
			"type":     e.Transform.Type,
			"high":     e.Transform.High,
			"low":      e.Transform.Low,
			"coef_div": e.Transform.CoefDiv,
			"coef_si":  e.Transform.CoefSi,
			"coef_se":  e.Transform.CoefSe,
		}
	}
	return doc
}

func weight(w float64) *float64 { return &w }

// templates is never handed out; Lookup clones.
var templates = map[Family]Component{
	FamilyAlerts: {
		Key: FamilyAlerts,
		Endpoints: []Endpoint{{
			Name:   "Alerts",
			Params: map[string]any{"smarts": []string{"[*;r10]"}},
		}},
	},
	FamilyQED: {
		Key:       FamilyQED,
		Endpoints: []Endpoint{{Name: "QED", Weight: weight(0.25)}},
	},
	FamilyMolecularWeight: {
		Key: FamilyMolecularWeight,
		Endpoints: []Endpoint{{
			Name:   "MW",
			Weight: weight(0.25),
			Transform: &Transform{
				Type:    TransformDoubleSigmoid,
				High:    500.0,
				Low:     200.0,
				CoefDiv: 500.0,
				CoefSi:  20.0,
				CoefSe:  20.0,
			},
		}},
	},
	FamilyTanimoto: {
		Key: FamilyTanimoto,
		Endpoints: []Endpoint{{
			Name:   "Tanimoto similarity ECF6",
			Weight: weight(0.1),
			Params: map[string]any{
				"smiles":       []string{},
				"radius":       3,
				"use_counts":   true,
				"use_features": true,
			},
		}},
	},
	FamilyPMI: {
		Key:  FamilyPMI,
		Name: "PMI 3D-likeness",
		Endpoints: []Endpoint{
			{Weight: weight(0.79), Params: map[string]any{"property": "npr1"}},
			{Weight: weight(0.21), Params: map[string]any{"property": "npr2"}},
		},
	},
}

// Lookup returns a private deep copy of the template for family.
func Lookup(family Family) (Component, error) {
	tmpl, ok := templates[family]
	if !ok {
		return Component{}, errors.Newf(errors.ErrCodeUnknownProperty, "no component template for family %q", string(family))
	}
	return tmpl.Clone(), nil
}

//Personal.AI order the ending
