package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bryanwahyu/mediscan/internal/domain/reports"
)

// Generate implements reports.Generator: sends the analysis bundle and
// returns the rendered PDF bytes.
func (c *Client) Generate(ctx context.Context, b reports.Bundle) ([]byte, error) {
	buf, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/reports/generate"), bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}
	// A PDF stream starts with %PDF; anything else is a shape we don't know.
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, malformed()
	}
	return data, nil
}
