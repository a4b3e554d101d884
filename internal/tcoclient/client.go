package tcoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/renjithkumarmr-arch/enterprise-tco-optimizer/internal/tco"
)

// Client talks to a running tco-server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			// PDF rendering can take most of the server's 30s budget.
			Timeout: 45 * time.Second,
		},
	}
}

// StatusError is a non-2xx reply that does not carry an engine error code.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, e.Message)
}

// do sends the request and returns the body. Failures come back as
// *tco.Error for engine validation codes and *StatusError otherwise.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, http.Header, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, resp.Header, decodeError(resp.StatusCode, blob)
	}
	return blob, resp.Header, nil
}

func decodeError(status int, blob []byte) error {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(blob, &env); err != nil || env.Error.Code == "" {
		return &StatusError{Status: status, Message: strings.TrimSpace(string(blob))}
	}
	switch env.Error.Code {
	case tco.CodeInvalidEnum, tco.CodeOutOfRange, tco.CodeDivisionByZero:
		return &tco.Error{Code: env.Error.Code, Field: env.Error.Field, Message: env.Error.Message}
	}
	return &StatusError{Status: status, Code: env.Error.Code, Message: env.Error.Message}
}

func (c *Client) Health(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/v1/health", nil)
	return err
}

type VendorCatalog struct {
	Source         string              `json:"source"`
	Vendors        []tco.VendorProfile `json:"vendors"`
	DefaultPricing tco.StackPricing    `json:"default_pricing"`
}

func (c *Client) Vendors(ctx context.Context) (VendorCatalog, error) {
	var out VendorCatalog
	blob, _, err := c.do(ctx, http.MethodGet, "/v1/vendors", nil)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(blob, &out)
	return out, err
}

// Evaluate runs one evaluation remotely and returns its id and result.
func (c *Client) Evaluate(ctx context.Context, in tco.RawInputs) (string, tco.Result, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return "", tco.Result{}, err
	}
	blob, _, err := c.do(ctx, http.MethodPost, "/v1/evaluate", payload)
	if err != nil {
		return "", tco.Result{}, err
	}
	var resp struct {
		EvaluationID string     `json:"evaluation_id"`
		Result       tco.Result `json:"result"`
	}
	if err := json.Unmarshal(blob, &resp); err != nil {
		return "", tco.Result{}, fmt.Errorf("decode evaluation: %w", err)
	}
	if strings.TrimSpace(resp.EvaluationID) == "" {
		return "", tco.Result{}, fmt.Errorf("missing evaluation_id in response")
	}
	return resp.EvaluationID, resp.Result, nil
}

// Report renders a report remotely. format is markdown, html or pdf.
func (c *Client) Report(ctx context.Context, in tco.RawInputs, format string, narrative bool) ([]byte, string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, "", err
	}
	q := url.Values{}
	q.Set("format", format)
	if narrative {
		q.Set("narrative", "1")
	}
	blob, header, err := c.do(ctx, http.MethodPost, "/v1/report?"+q.Encode(), payload)
	if err != nil {
		return nil, "", err
	}
	return blob, header.Get("X-Evaluation-Id"), nil
}
