package analysis

import (
	"context"
	"io"
)

// Analyzer port: document text in, normalized view model out.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*Result, error)
}

// Suggester port for live ICD lookups while the user types.
type Suggester interface {
	SuggestICD(ctx context.Context, query string) ([]ICDCode, error)
}

// Extractor port: uploaded file in, extracted text out.
type Extractor interface {
	ExtractText(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}
