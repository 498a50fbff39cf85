package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/ports"
)

// ErrMissingAPIKey signals that the credential environment variable was not
// set. Callers treat this as "scoring disabled", not as a fatal error.
var ErrMissingAPIKey = errors.New("llm api key is not set")

// Client implements ports.ChatCompleter against OpenRouter-compatible APIs.
// Responses are cached on disk keyed by a hash of the full request, so an
// identical request never hits the network twice.
type Client struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxRetries  int
	cacheDir    string
	httpClient  *http.Client
	backoffBase time.Duration
	logger      *slog.Logger
}

var _ ports.ChatCompleter = (*Client)(nil)

// NewClient builds a client from configuration. The API key is passed in
// explicitly; the environment lookup happens at the wiring boundary.
func NewClient(cfg config.LLMConfig, apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w (env %s)", ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", cfg.CacheDir, err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		apiKey:      apiKey,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		cacheDir:    cfg.CacheDir,
		httpClient:  &http.Client{Timeout: timeout},
		backoffBase: time.Second,
		logger:      logger,
	}, nil
}

// Complete sends the messages to the completion endpoint and returns the raw
// model text. A cache hit short-circuits the network call; transient
// failures are retried with bounded exponential backoff.
func (c *Client) Complete(ctx context.Context, messages []ports.Message, maxTokens int, wantsJSON bool) (string, error) {
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  maxTokens,
	}
	if wantsJSON {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	key, err := cacheKey(c.baseURL, payload)
	if err != nil {
		return "", fmt.Errorf("compute cache key: %w", err)
	}
	if content, ok := c.readCache(key); ok {
		return content, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		content, err := c.post(ctx, body)
		if err == nil {
			if cacheErr := c.writeCache(key, content); cacheErr != nil {
				c.warn("cache write failed", "error", cacheErr)
			}
			return content, nil
		}

		lastErr = err
		if !isTransient(err) || attempt == c.maxRetries {
			break
		}

		delay := backoffDelay(c.backoffBase, attempt)
		c.warn("transient completion failure", "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", fmt.Errorf("completion request failed: %w", lastErr)
}

// CompleteJSON completes and then parses a JSON object out of the model
// text, tolerating fenced code blocks and surrounding prose.
func (c *Client) CompleteJSON(ctx context.Context, messages []ports.Message, maxTokens int) (map[string]any, error) {
	text, err := c.Complete(ctx, messages, maxTokens, false)
	if err != nil {
		return nil, err
	}
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("parse completion output: %w", err)
	}
	return obj, nil
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// statusError is a non-200 API response; 429 and 5xx are worth retrying.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("completion api returned %d: %s", e.status, e.body)
}

func (e *statusError) transient() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.transient()
	}
	// Transport-level failures have no status to inspect; retry them.
	return true
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	shift := attempt
	if shift > 3 {
		shift = 3
	}
	return base * time.Duration(1<<shift)
}

// cacheKey hashes the endpoint identity plus the full request payload.
// json.Marshal sorts map keys, so the digest is stable across runs.
func cacheKey(baseURL string, payload map[string]any) (string, error) {
	keyed := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		keyed[k] = v
	}
	keyed["base_url"] = baseURL

	raw, err := json.Marshal(keyed)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

type cacheEntry struct {
	Content string `json:"content"`
}

func (c *Client) cachePath(key string) string {
	return filepath.Join(c.cacheDir, key+".json")
}

func (c *Client) readCache(key string) (string, bool) {
	raw, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return "", false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", false
	}
	return entry.Content, true
}

func (c *Client) writeCache(key, content string) error {
	raw, err := json.Marshal(cacheEntry{Content: content})
	if err != nil {
		return err
	}
	return os.WriteFile(c.cachePath(key), raw, 0o644)
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
