package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
)

// maxResponseBytes caps how much of a backend response we read. Report PDFs
// are the largest expected payload.
const maxResponseBytes = 32 << 20

// Client talks to the medical analysis backend under its /api prefix. All
// calls share one error classification: transport failures become
// analysis.ErrBackendUnavailable, non-2xx or success=false responses become
// analysis.ErrBackendRejected (carrying the backend detail when present),
// and responses missing required fields after defaulting become
// analysis.ErrMalformedResponse.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// New buat client ke backend analisis
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

func (c *Client) endpoint(path string) string {
	return c.base + "/api" + path
}

// postJSON sends a JSON body and decodes a JSON reply into out.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// getJSON issues a GET with query params and decodes the reply into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.endpoint(path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

// postFile sends one file as multipart/form-data and decodes the JSON reply.
// The caller has already validated type and size, so buffering is bounded.
func (c *Client) postFile(ctx context.Context, path, field, filename, contentType string, r io.Reader, out any) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

// do executes the request and applies the shared error classification.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", req.URL.Path).Msg("backend unreachable")
		return &analysis.BackendError{Kind: analysis.ErrBackendUnavailable}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &analysis.BackendError{Kind: analysis.ErrBackendUnavailable}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &analysis.BackendError{
			Kind:   analysis.ErrBackendRejected,
			Detail: errorDetail(data),
		}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &analysis.BackendError{Kind: analysis.ErrMalformedResponse}
		}
	}
	return nil
}

// doRaw executes the request and returns the response bytes unparsed. Used
// for binary payloads (the generated report PDF).
func (c *Client) doRaw(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", req.URL.Path).Msg("backend unreachable")
		return nil, &analysis.BackendError{Kind: analysis.ErrBackendUnavailable}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &analysis.BackendError{Kind: analysis.ErrBackendUnavailable}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &analysis.BackendError{
			Kind:   analysis.ErrBackendRejected,
			Detail: errorDetail(data),
		}
	}
	return data, nil
}

// rejected wraps a success=false body into the taxonomy.
func rejected(detail ...string) error {
	d := ""
	for _, s := range detail {
		if s != "" {
			d = s
			break
		}
	}
	return &analysis.BackendError{Kind: analysis.ErrBackendRejected, Detail: d}
}

func malformed() error {
	return &analysis.BackendError{Kind: analysis.ErrMalformedResponse}
}
