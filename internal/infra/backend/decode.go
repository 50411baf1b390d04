package backend

import (
	"encoding/json"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
)

// Wire shapes for every backend payload we have observed in production. All
// decoding goes through this file so the historical shape drift is handled in
// one place instead of per call site.

type textRequest struct {
	Text string `json:"text"`
}

// structuredAnalysisResponse is the current shape of
// POST /summary/structured-analysis.
type structuredAnalysisResponse struct {
	Success              *bool        `json:"success"`
	PrimaryDiagnosis     string       `json:"primary_diagnosis"`
	PrescribedMedication []string     `json:"prescribed_medication"`
	FollowupInstructions string       `json:"followup_instructions"`
	MedicalEntities      []wireEntity `json:"medical_entities"`
	Detail               string       `json:"detail"`
	Error                string       `json:"error"`
}

// legacyAnalyzeResponse is the older flat shape of POST /text/analyze:
// one entity array, categories mixed together, ICD codes alongside.
type legacyAnalyzeResponse struct {
	Success  *bool        `json:"success"`
	Entities []wireEntity `json:"entities"`
	ICDCodes []wireICD    `json:"icd_codes"`
	Error    string       `json:"error"`
}

// wireEntity tolerates the three field spellings seen across deployments:
// category, type (pydantic model) and entity_group (raw NER output), with
// confidence sometimes called score.
type wireEntity struct {
	Text        string  `json:"text"`
	Word        string  `json:"word"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	EntityGroup string  `json:"entity_group"`
	Confidence  float64 `json:"confidence"`
	Score       float64 `json:"score"`
}

func (e wireEntity) toDomain() analysis.Entity {
	text := e.Text
	if text == "" {
		text = e.Word
	}
	cat := e.Category
	if cat == "" {
		cat = e.Type
	}
	if cat == "" {
		cat = e.EntityGroup
	}
	conf := e.Confidence
	if conf == 0 {
		conf = e.Score
	}
	return analysis.Entity{Text: text, Category: cat, Confidence: conf}
}

func entitiesToDomain(in []wireEntity) []analysis.Entity {
	out := make([]analysis.Entity, 0, len(in))
	for _, e := range in {
		out = append(out, e.toDomain())
	}
	return out
}

type wireICD struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func icdToDomain(in []wireICD) []analysis.ICDCode {
	out := make([]analysis.ICDCode, 0, len(in))
	for _, c := range in {
		out = append(out, analysis.ICDCode{Code: c.Code, Description: c.Description})
	}
	return out
}

// icdResponse is the shape of POST /icd/analyze.
type icdResponse struct {
	Success  *bool     `json:"success"`
	ICDCodes []wireICD `json:"icd_codes"`
	Count    int       `json:"count"`
	Detail   string    `json:"detail"`
}

// extractResponse is the shape of POST /pdf/upload.
type extractResponse struct {
	Success   *bool  `json:"success"`
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	PageCount int    `json:"page_count"`
	Detail    string `json:"detail"`
}

// chatResponse covers both reply shapes: current deployments expose
// "message", older ones exposed "response".
type chatResponse struct {
	Success   *bool  `json:"success"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	Detail    string `json:"detail"`
}

func (r chatResponse) reply() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Response
}

type chatContextItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Text    string            `json:"text"`
	Context []chatContextItem `json:"context"`
}

// bloodResponse is the shape of POST /blood/upload-blood-report. Summary is
// a pointer so a missing object defaults to zero counts instead of failing.
type bloodResponse struct {
	Success         *bool             `json:"success"`
	Tests           []wireBloodTest   `json:"tests"`
	Summary         *wireBloodSummary `json:"summary"`
	Interpretation  string            `json:"interpretation"`
	Recommendations []string          `json:"recommendations"`
	Detail          string            `json:"detail"`
	Message         string            `json:"message"`
}

type wireBloodTest struct {
	TestName    string  `json:"testName"`
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	NormalRange string  `json:"normalRange"`
	Status      string  `json:"status"`
	Severity    string  `json:"severity"`
	Suggestion  string  `json:"suggestion"`
}

func (t wireBloodTest) name() string {
	if t.TestName != "" {
		return t.TestName
	}
	return t.Name
}

type wireBloodSummary struct {
	NormalCount   int `json:"normalCount"`
	AbnormalCount int `json:"abnormalCount"`
	CriticalCount int `json:"criticalCount"`
}

// failed reports an explicit success=false. An absent success field is not a
// failure; several endpoints never send one.
func failed(success *bool) bool {
	return success != nil && !*success
}

// errorDetail pulls the human-readable detail out of an error body. FastAPI
// sends {"detail": "..."} for plain errors and {"detail": [...]} for
// validation errors; some handlers use {"error": "..."} instead.
func errorDetail(data []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
