// Package httprequest provides the http.request reaction, which calls an
// external URL and feeds the response to later steps.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/areaflow/pkg/models"
)

const defaultTimeout = 30 * time.Second

// ErrMissingURL is returned when the params carry no url.
var ErrMissingURL = errors.New("missing or invalid 'url' in params")

// Schema validates http.request params before dispatch.
const Schema = `{
	"type": "object",
	"properties": {
		"url": {"type": "string", "minLength": 1},
		"method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"]},
		"headers": {"type": "object", "additionalProperties": {"type": "string"}},
		"body": {"type": "string"},
		"timeout_seconds": {"type": "number", "minimum": 1}
	},
	"required": ["url"]
}`

type Handler struct {
	client *http.Client
}

func NewHandler() *Handler {
	return &Handler{client: &http.Client{Timeout: defaultTimeout}}
}

// NewHandlerWithClient lets tests inject a client.
func NewHandlerWithClient(client *http.Client) *Handler {
	return &Handler{client: client}
}

// Execute performs the request and records the response in the execution
// context under "http.status_code" and "http.body". JSON response bodies are
// decoded; everything else is stored as a string.
func (h *Handler) Execute(
	ctx context.Context,
	_ *models.Automation,
	params map[string]any,
	execCtx *models.ExecutionContext,
	logger *slog.Logger,
) error {
	url, ok := params["url"].(string)
	if !ok || url == "" {
		return ErrMissingURL
	}

	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)

	body, _ := params["body"].(string)

	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	if headers, ok := params["headers"].(map[string]any); ok {
		for key, value := range headers {
			if strVal, ok := value.(string); ok {
				req.Header.Set(key, strVal)
			}
		}
	}

	logger = logger.With("reaction", "http.request", "method", method, "url", url)
	logger.InfoContext(ctx, "Executing http request reaction")

	resp, err := h.clientFor(params).Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded any

	err = json.Unmarshal(bodyBytes, &decoded)
	if err != nil {
		decoded = string(bodyBytes)
	}

	execCtx.Merge(map[string]any{
		"http.status_code": resp.StatusCode,
		"http.body":        decoded,
	})

	logger.InfoContext(ctx, "Http request reaction completed", "status", resp.StatusCode, "body_length", len(bodyBytes))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("http request returned status %d", resp.StatusCode)
	}

	return nil
}

func (h *Handler) clientFor(params map[string]any) *http.Client {
	timeout, ok := params["timeout_seconds"].(float64)
	if !ok || timeout <= 0 {
		return h.client
	}

	client := *h.client
	client.Timeout = time.Duration(timeout * float64(time.Second))

	return &client
}
