package backend

import (
	"context"
	"io"

	"github.com/bryanwahyu/mediscan/internal/domain/blood"
)

// AnalyzeReport implements blood.Analyzer. Every field the backend may omit
// is defaulted here: missing summary means zero counts, missing arrays mean
// empty slices. Rendering downstream never sees null.
func (c *Client) AnalyzeReport(ctx context.Context, filename string, r io.Reader, size int64) (*blood.Report, error) {
	var br bloodResponse
	if err := c.postFile(ctx, "/blood/upload-blood-report", "file", filename, "application/pdf", r, &br); err != nil {
		return nil, err
	}
	if failed(br.Success) {
		return nil, rejected(br.Detail, br.Message)
	}

	rep := &blood.Report{
		Interpretation:  br.Interpretation,
		Recommendations: br.Recommendations,
	}
	if br.Summary != nil {
		rep.Summary = blood.Summary{
			NormalCount:   br.Summary.NormalCount,
			AbnormalCount: br.Summary.AbnormalCount,
			CriticalCount: br.Summary.CriticalCount,
		}
	}
	rep.Tests = make([]blood.Test, 0, len(br.Tests))
	for _, t := range br.Tests {
		rep.Tests = append(rep.Tests, blood.Test{
			Name:        t.name(),
			Value:       t.Value,
			Unit:        t.Unit,
			NormalRange: t.NormalRange,
			Status:      blood.Status(t.Status),
			Severity:    blood.Severity(t.Severity),
			Suggestion:  t.Suggestion,
		})
	}
	rep.Normalize()
	return rep, nil
}
