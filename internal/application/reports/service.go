package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/application"
	domain "github.com/bryanwahyu/mediscan/internal/domain/reports"
)

// Service renders analysis bundles into downloadable PDF reports through the
// backend, keeping an archive copy when object storage is configured.
type Service struct {
	Generator domain.Generator
	Archive   domain.Archive // optional; nil disables archiving
	Clock     application.Clock
	Log       zerolog.Logger
}

// Generate returns the PDF bytes plus a suggested download filename. An
// archive failure is logged and swallowed; the user still gets the download.
func (s *Service) Generate(ctx context.Context, b domain.Bundle) ([]byte, string, error) {
	pdf, err := s.Generator.Generate(ctx, b)
	if err != nil {
		return nil, "", err
	}

	now := s.Clock.Now()
	filename := fmt.Sprintf("medical-report-%s.pdf", now.Format("2006-01-02"))

	if s.Archive != nil {
		key := fmt.Sprintf("reports/%s/%s.pdf", now.Format("2006/01/02"), uuid.New().String())
		if url, aerr := s.Archive.Put(ctx, key, pdf); aerr != nil {
			s.Log.Warn().Err(aerr).Str("key", key).Msg("report archive failed")
		} else {
			s.Log.Info().Str("url", url).Msg("report archived")
		}
	}
	return pdf, filename, nil
}
