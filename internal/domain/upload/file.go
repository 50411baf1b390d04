package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
)

// MaxFileSize is the upload ceiling, checked before any network call.
const MaxFileSize = 10 << 20 // 10 MB

// Kind selects which whitelist applies to an upload.
type Kind string

const (
	KindDocument Kind = "document"
	KindBlood    Kind = "blood"
)

// documentTypes is the accepted set for document uploads. Blood reports
// accept PDF only.
var documentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
}

// FileMeta describes a selected file before its contents are read.
type FileMeta struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidateFile rejects wrong types and oversized files client-side. A
// rejection here means no request ever reaches the backend.
func ValidateFile(meta FileMeta, kind Kind) error {
	if meta.Size <= 0 {
		return &analysis.ValidationError{Reason: "Selected file is empty."}
	}
	if meta.Size > MaxFileSize {
		return &analysis.ValidationError{Reason: "File exceeds the 10 MB limit."}
	}
	ct := normalizeContentType(meta.ContentType, meta.Name)
	if kind == KindBlood {
		if ct != "application/pdf" {
			return &analysis.ValidationError{Reason: "Blood reports must be PDF files."}
		}
		return nil
	}
	if !documentTypes[ct] {
		return &analysis.ValidationError{
			Reason: fmt.Sprintf("Unsupported file type %q. Accepted: PDF, JPEG, PNG, GIF.", ct),
		}
	}
	return nil
}

// normalizeContentType lowercases the declared type and falls back to the
// filename extension when the browser sent nothing useful.
func normalizeContentType(ct, name string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			return "application/pdf"
		case ".jpg", ".jpeg":
			return "image/jpeg"
		case ".png":
			return "image/png"
		case ".gif":
			return "image/gif"
		}
	}
	return ct
}
