package client

import (
	"context"
	"net/url"
)

// ScoreRequest asks for one molecule to be scored.  An empty Property uses
// the server's default.
type ScoreRequest struct {
	Molecule string `json:"molecule"`
	Property string `json:"property,omitempty"`
}

// ScoreResult is a scored molecule.  Value is the engine's cell verbatim;
// Score is set when it is a finite number.
type ScoreResult struct {
	RequestID  string   `json:"request_id"`
	Property   string   `json:"property"`
	Label      string   `json:"label"`
	Value      string   `json:"value"`
	Score      *float64 `json:"score,omitempty"`
	Cached     bool     `json:"cached"`
	DurationMS int64    `json:"duration_ms"`
}

// Property describes one scorable property.
type Property struct {
	Name        string `json:"name"`
	Family      string `json:"family"`
	Raw         bool   `json:"raw"`
	Description string `json:"description"`
}

// PropertyList is the server's catalogue.
type PropertyList struct {
	Default    string     `json:"default"`
	Properties []Property `json:"properties"`
}

// JobPreview is the run document the engine would receive for a property.
type JobPreview struct {
	Property string         `json:"property"`
	Label    string         `json:"label"`
	Job      map[string]any `json:"job"`
}

// Score scores one molecule.
func (c *Client) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	var res ScoreResult
	if err := c.do(ctx, "POST", "/api/v1/scores", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Properties lists the scorable properties.
func (c *Client) Properties(ctx context.Context) (*PropertyList, error) {
	var res PropertyList
	if err := c.do(ctx, "GET", "/api/v1/properties", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Preview returns the run document for property.
func (c *Client) Preview(ctx context.Context, property string) (*JobPreview, error) {
	var res JobPreview
	if err := c.do(ctx, "GET", "/api/v1/properties/"+url.PathEscape(property)+"/job", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

//Personal.AI order the ending
