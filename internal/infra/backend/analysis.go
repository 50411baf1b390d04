package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
)

// AnalyzeText implements analysis.Analyzer: runs the structured analysis and
// the ICD lookup, merged into one view model. Deployments that predate the
// structured endpoint are served through the legacy flat shape.
func (c *Client) AnalyzeText(ctx context.Context, text string) (*analysis.Result, error) {
	res, err := c.structuredAnalysis(ctx, text)
	if err != nil {
		// Only a shape mismatch falls back to the legacy endpoint;
		// transport failures and rejections surface as they are.
		if !errors.Is(err, analysis.ErrMalformedResponse) {
			return nil, err
		}
		res, err = c.legacyAnalysis(ctx, text)
		if err != nil {
			return nil, err
		}
	}

	codes, err := c.icdCodes(ctx, text)
	if err != nil {
		return nil, err
	}
	res.ICDCodes = mergeICD(res.ICDCodes, codes)
	res.Normalize()
	return res, nil
}

func (c *Client) structuredAnalysis(ctx context.Context, text string) (*analysis.Result, error) {
	var sr structuredAnalysisResponse
	if err := c.postJSON(ctx, "/summary/structured-analysis", textRequest{Text: text}, &sr); err != nil {
		return nil, err
	}
	if failed(sr.Success) {
		return nil, rejected(sr.Detail, sr.Error)
	}
	if sr.PrimaryDiagnosis == "" && len(sr.MedicalEntities) == 0 {
		return nil, malformed()
	}
	res := &analysis.Result{
		PrimaryDiagnosis:     sr.PrimaryDiagnosis,
		Medications:          sr.PrescribedMedication,
		FollowUpInstructions: sr.FollowupInstructions,
		Entities:             entitiesToDomain(sr.MedicalEntities),
	}
	res.Normalize()
	return res, nil
}

// legacyAnalysis adapts the flat /text/analyze shape: the diagnosis and the
// medication list are carved out of the entity array by category.
func (c *Client) legacyAnalysis(ctx context.Context, text string) (*analysis.Result, error) {
	var lr legacyAnalyzeResponse
	if err := c.postJSON(ctx, "/text/analyze", textRequest{Text: text}, &lr); err != nil {
		return nil, err
	}
	if failed(lr.Success) {
		return nil, rejected(lr.Error)
	}
	if len(lr.Entities) == 0 && len(lr.ICDCodes) == 0 {
		return nil, malformed()
	}

	res := &analysis.Result{
		Entities: entitiesToDomain(lr.Entities),
		ICDCodes: icdToDomain(lr.ICDCodes),
	}
	for _, e := range res.Entities {
		switch categoryGroup(e.Category) {
		case "medication":
			res.Medications = append(res.Medications, e.Text)
		case "disease":
			if res.PrimaryDiagnosis == "" {
				res.PrimaryDiagnosis = e.Text
			}
		}
	}
	res.Normalize()
	return res, nil
}

func (c *Client) icdCodes(ctx context.Context, text string) ([]analysis.ICDCode, error) {
	var ir icdResponse
	if err := c.postJSON(ctx, "/icd/analyze", textRequest{Text: text}, &ir); err != nil {
		return nil, err
	}
	if failed(ir.Success) {
		return nil, rejected(ir.Detail)
	}
	return icdToDomain(ir.ICDCodes), nil
}

// SuggestICD implements analysis.Suggester via GET /icd/search. The endpoint
// historically returned either a bare array or a {success, results} wrapper.
func (c *Client) SuggestICD(ctx context.Context, query string) ([]analysis.ICDCode, error) {
	params := url.Values{"query": {query}}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/icd/search", params, &raw); err != nil {
		return nil, err
	}

	var arr []wireICD
	if err := json.Unmarshal(raw, &arr); err == nil {
		return icdToDomain(arr), nil
	}
	var wrapped struct {
		Success *bool     `json:"success"`
		Results []wireICD `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, malformed()
	}
	if failed(wrapped.Success) {
		return nil, rejected()
	}
	return icdToDomain(wrapped.Results), nil
}

// mergeICD appends fetched codes onto any the analysis already carried,
// de-duplicated by code.
func mergeICD(existing, fetched []analysis.ICDCode) []analysis.ICDCode {
	seen := make(map[string]bool, len(existing))
	out := make([]analysis.ICDCode, 0, len(existing)+len(fetched))
	for _, c := range existing {
		if c.Code == "" || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	for _, c := range fetched {
		if c.Code == "" || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	return out
}

// categoryGroup collapses the NER model's label spellings into the two
// groups the legacy adapter cares about.
func categoryGroup(category string) string {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "medic"), strings.Contains(c, "drug"):
		return "medication"
	case strings.Contains(c, "disease"), strings.Contains(c, "diagnos"), strings.Contains(c, "disorder"):
		return "disease"
	default:
		return ""
	}
}
