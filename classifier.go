package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	categoryProductive   = "produtivo"
	categoryUnproductive = "improdutivo"

	maxResponseBytes = 1 << 20
	pingTimeout      = 5 * time.Second
)

// analysisResult is the backend payload for a successful classification.
type analysisResult struct {
	Category       string  `json:"category" yaml:"category"`
	Confidence     float64 `json:"confidence" yaml:"confidence"`
	Reason         string  `json:"reason" yaml:"reason"`
	SuggestedReply string  `json:"suggested_reply" yaml:"suggested_reply"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// classifier abstracts the backend so the same model logic works against
// the real API (httpClassifier) and the offline demo (demoClassifier).
type classifier interface {
	analyze(ctx context.Context, text string) (analysisResult, error)
	ping(ctx context.Context) error
}

// ─── httpClassifier ──────────────────────────────────────────────────────────

type httpClassifier struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func newHTTPClassifier(baseURL string, timeout time.Duration, logger *slog.Logger) *httpClassifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &httpClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

// analyze sends one POST {base}/analyze with {"text": text} and maps every
// failure to a classifyError.
func (c *httpClassifier) analyze(ctx context.Context, text string) (analysisResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqID := uuid.NewString()
	start := time.Now()
	url := c.baseURL + "/analyze"

	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return analysisResult{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return analysisResult{}, errConnection(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	c.logger.Info("classifier.request", "req_id", reqID, "url", url, "content_length", len(body))

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("classifier.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return analysisResult{}, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Error("classifier.read_error", "req_id", reqID, "error", err)
		return analysisResult{}, transportError(err)
	}

	c.logger.Info("classifier.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return analysisResult{}, errBackend(resp.StatusCode, backendDetail(raw))
	}

	var res analysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return analysisResult{}, errInvalidResponse(err)
	}
	if err := validateResponse(raw); err != nil {
		c.logger.Warn("classifier.schema_mismatch", "req_id", reqID, "error", err)
	}
	return res, nil
}

// ping checks that the backend answers at all. FastAPI serves its schema at
// /openapi.json, which makes a cheap GET target.
func (c *httpClassifier) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/openapi.json", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= 500 {
		return errBackend(resp.StatusCode, "")
	}
	return nil
}

func transportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return errTimeout(err)
	}
	return errConnection(err)
}

// backendDetail returns the compact JSON encoding of the "detail" field of
// an error body, or "" when the field is absent or falsy.
func backendDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	d := bytes.TrimSpace(body.Detail)
	switch string(d) {
	case "", "null", `""`, "0", "false":
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, d); err != nil {
		return string(d)
	}
	return buf.String()
}

// ─── Response schema ─────────────────────────────────────────────────────────

func analyzeResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":        map[string]any{"type": "string", "enum": []string{categoryProductive, categoryUnproductive}},
			"confidence":      map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"reason":          map[string]any{"type": "string"},
			"suggested_reply": map[string]any{"type": "string"},
		},
		"required": []string{"category", "confidence", "reason", "suggested_reply"},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func responseSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(analyzeResponseSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analyze_response.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("analyze_response.json")
	})
	return compiledSchema, schemaErr
}

// validateResponse checks a success body against the AnalyzeResponse
// contract. Mismatches are only logged; rendering stays lenient.
func validateResponse(raw []byte) error {
	schema, err := responseSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
