package backend

import (
	"context"
	"io"
	"strings"
)

// ExtractText implements analysis.Extractor: uploads the document and
// returns the text the backend pulled out of it.
func (c *Client) ExtractText(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	var er extractResponse
	if err := c.postFile(ctx, "/pdf/upload", "file", filename, contentType, r, &er); err != nil {
		return "", err
	}
	if failed(er.Success) {
		return "", rejected(er.Detail)
	}
	if strings.TrimSpace(er.Text) == "" {
		return "", malformed()
	}
	return er.Text, nil
}
