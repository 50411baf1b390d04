package analysis

// Entity is a span of text tagged with a medical category and a confidence
// score, as recognized by the backend NER model.
type Entity struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ICDCode pairs a standardized diagnostic code with its description.
type ICDCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result is the normalized view model for a document analysis. It is built
// once by the backend adapter and never mutated afterwards; slice fields are
// always non-nil so rendering never has to guard against null.
type Result struct {
	PrimaryDiagnosis     string    `json:"primaryDiagnosis"`
	Medications          []string  `json:"medications"`
	FollowUpInstructions string    `json:"followUpInstructions"`
	Entities             []Entity  `json:"entities"`
	ICDCodes             []ICDCode `json:"icdCodes"`
}

// Normalize replaces nil slices with empty ones.
func (r *Result) Normalize() {
	if r.Medications == nil {
		r.Medications = []string{}
	}
	if r.Entities == nil {
		r.Entities = []Entity{}
	}
	if r.ICDCodes == nil {
		r.ICDCodes = []ICDCode{}
	}
}
