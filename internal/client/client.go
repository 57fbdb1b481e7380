// Package client talks to a running analysis endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/KaramelBytes/insightloom/internal/report"
)

// DefaultEndpoint is the analysis URL of a locally started server.
const DefaultEndpoint = "http://127.0.0.1:5000/analyze"

// Upload is one file plus the user's column choices.
type Upload struct {
	Filename    string
	Data        []byte
	ChartType   string
	Column      string
	ValueColumn string
	Sheet       string
}

// Response mirrors the endpoint's success body.
type Response struct {
	Summary   string `json:"summary"`
	Insight   string `json:"ai_insight"`
	ReportPDF string `json:"report_pdf"`
	RequestID string `json:"-"`
}

// Report decodes the base64 PDF carried in the response.
func (r *Response) Report() ([]byte, error) { return report.Decode(r.ReportPDF) }

// Client posts uploads to the endpoint. It never retries.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// New creates a client for endpoint. Empty values fall back to DefaultEndpoint and a 60s timeout.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}, endpoint: endpoint}
}

// Endpoint returns the URL uploads are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Analyze sends the upload and returns the decoded success body. Non-200 answers become
// *APIError; transport failures and timeouts become *UnreachableError.
func (c *Client) Analyze(ctx context.Context, up Upload) (*Response, error) {
	body, ctype, err := encodeForm(up)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Host: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()
	requestID := resp.Header.Get("X-Request-ID")

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw), RequestID: requestID}
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &UnreachableError{Host: req.URL.Host, Err: fmt.Errorf("decode response: %w", err)}
	}
	out.RequestID = requestID
	return &out, nil
}

func encodeForm(up Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(up.Data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	fields := []struct{ key, value string }{
		{"chart_type", up.ChartType},
		{"column", up.Column},
		{"value_column", up.ValueColumn},
		{"sheet", up.Sheet},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.key, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// errorMessage prefers the JSON "error" field and falls back to the body text or status text.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return http.StatusText(status)
}
