package blood

import (
	"context"
	"io"
)

// Analyzer port: blood-report PDF in, interpreted report out.
type Analyzer interface {
	AnalyzeReport(ctx context.Context, filename string, r io.Reader, size int64) (*Report, error)
}
