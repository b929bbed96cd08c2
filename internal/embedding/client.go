// Package embedding is a client for a CLIP-compatible image/text embedding server.
package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Embedder computes vectors for images and text in a shared space.
type Embedder interface {
	EmbedImage(ctx context.Context, png []byte) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Options configures Client.
type Options struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond int
	HTTPClient        *http.Client
}

// Client talks to POST /v1/embeddings/image and /v1/embeddings/text.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// HTTPError is a non-2xx answer from the embedding server.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("embedding http error: status=%d body=%s", e.StatusCode, e.Body)
}

type imageRequest struct {
	Model string `json:"model"`
	Image string `json:"image"`
}

type textRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("embedding baseURL required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      strings.TrimSpace(opts.Model),
		timeout:    timeout,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
		httpClient: hc,
	}, nil
}

// EmbedImage returns the embedding of a preprocessed PNG.
func (c *Client) EmbedImage(ctx context.Context, png []byte) ([]float32, error) {
	if len(png) == 0 {
		return nil, errors.New("empty image payload")
	}
	req := imageRequest{Model: c.model, Image: base64.StdEncoding.EncodeToString(png)}
	var resp embeddingResponse
	if err := c.doJSON(ctx, "/v1/embeddings/image", req, &resp); err != nil {
		return nil, err
	}
	return checkVector(resp.Embedding)
}

// EmbedText returns the embedding of text in the same space as EmbedImage.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	req := textRequest{Model: c.model, Input: text}
	var resp embeddingResponse
	if err := c.doJSON(ctx, "/v1/embeddings/text", req, &resp); err != nil {
		return nil, err
	}
	return checkVector(resp.Embedding)
}

func checkVector(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, errors.New("empty embedding")
	}
	return v, nil
}

func (c *Client) doJSON(ctx context.Context, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				return readErr
			}
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return json.Unmarshal(raw, out)
			case resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
				return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
			default:
				lastErr = &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	if lastErr == nil {
		lastErr = errors.New("request failed")
	}
	return lastErr
}
