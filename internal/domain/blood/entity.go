package blood

// Status of a single test value relative to its reference range.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusLow      Status = "low"
	StatusHigh     Status = "high"
	StatusCritical Status = "critical"
)

// Severity of an abnormal value.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Test is one interpreted blood test row.
type Test struct {
	Name        string   `json:"testName"`
	Value       float64  `json:"value"`
	Unit        string   `json:"unit"`
	NormalRange string   `json:"normalRange"`
	Status      Status   `json:"status"`
	Severity    Severity `json:"severity,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// Summary counts over all tests in a report.
type Summary struct {
	NormalCount   int `json:"normalCount"`
	AbnormalCount int `json:"abnormalCount"`
	CriticalCount int `json:"criticalCount"`
}

// Report is the normalized view model for a blood-report analysis. Same
// lifecycle as analysis.Result: built once by the adapter, immutable after.
type Report struct {
	Tests           []Test   `json:"tests"`
	Summary         Summary  `json:"summary"`
	Interpretation  string   `json:"interpretation"`
	Recommendations []string `json:"recommendations"`
}

// Normalize fills the defaults a degraded backend response may omit, so
// rendering never sees nil slices. Missing summary counts stay zero.
func (r *Report) Normalize() {
	if r.Tests == nil {
		r.Tests = []Test{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	for i := range r.Tests {
		if r.Tests[i].Status == "" {
			r.Tests[i].Status = StatusNormal
		}
	}
}
