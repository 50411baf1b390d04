package reports

import (
	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	"github.com/bryanwahyu/mediscan/internal/domain/blood"
)

// Bundle is the analysis payload the backend renders into a PDF report.
// Field names follow the backend's report schema.
type Bundle struct {
	PatientInfo map[string]string  `json:"patient_info,omitempty"`
	Analysis    *analysis.Result   `json:"analysis_results"`
	Entities    []analysis.Entity  `json:"entities,omitempty"`
	ICDCodes    []analysis.ICDCode `json:"icd_codes,omitempty"`
	BloodTests  []blood.Test       `json:"blood_tests,omitempty"`
}
