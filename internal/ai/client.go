package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrMissingAPIKey means the generative-model credential is absent; no
	// call was attempted.
	ErrMissingAPIKey = errors.New("llm api key not configured")
	// ErrUpstream wraps any failure talking to the model provider
	// (transport, non-2xx status, unparseable body).
	ErrUpstream = errors.New("upstream model request failed")
	// ErrUnreachable means the provider endpoint did not respond to the
	// pre-flight connectivity probe.
	ErrUnreachable = errors.New("no internet connection detected")
)

const embeddingBatchSize = 10 // provider APIs commonly limit batch input size

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the provider settings for one OpenAI-compatible endpoint.
// The same configured client embeds both indexed chunks and questions, so a
// query can never be embedded with a different model than the index.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float64
}

// Client talks to an OpenAI-compatible chat + embeddings API. Construct it
// once at bootstrap and share it; it is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	probe      *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		probe:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) EmbeddingModel() string { return c.cfg.EmbeddingModel }

func (c *Client) HasAPIKey() bool { return strings.TrimSpace(c.cfg.APIKey) != "" }

// CheckConnectivity probes the provider base URL before expensive local
// work begins. Any HTTP response counts as reachable.
func (c *Client) CheckConnectivity(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp.Body.Close()
	return nil
}

// Complete sends a non-streaming chat completion request and returns the
// first choice's content.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if !c.HasAPIKey() {
		return "", ErrMissingAPIKey
	}

	reqBody := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": c.cfg.Temperature,
		"stream":      false,
	}
	raw, err := c.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse completion json: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrUpstream)
	}
	return parsed.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: embedding input is empty", ErrUpstream)
	}
	vectors, err := c.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", ErrUpstream)
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts preserving order, splitting into provider-sized
// batches.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embed(ctx, texts[start:end]...)
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}
	if len(result) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch: got %d for %d texts", ErrUpstream, len(result), len(texts))
	}
	return result, nil
}

func (c *Client) embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	var input interface{} = texts
	if len(texts) == 1 {
		input = texts[0]
	}
	reqBody := map[string]interface{}{
		"model": c.cfg.EmbeddingModel,
		"input": input,
	}
	raw, err := c.post(ctx, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse embedding json: %v", ErrUpstream, err)
	}
	vectors := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		vectors[i] = parsed.Data[i].Embedding
	}
	return vectors, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrUpstream, err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(raw))
	}
	return raw, nil
}
