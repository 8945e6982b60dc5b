// Package ocr extracts hymn lyrics from scanned hymnal images using an
// Ollama vision model, with a content-addressed result cache and a batch
// runner that mirrors the hymnal's numbering scheme.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultModel is the vision model used for OCR.
	DefaultModel = "deepseek-ocr:latest"

	// ocrTimeout bounds one chat call.
	ocrTimeout = 5 * time.Minute
)

// Client talks to an Ollama server's chat API with vision inputs.
type Client struct {
	client   *http.Client
	model    string
	endpoint string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Options  chatOptions   `json:"options"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatOptions struct {
	// Temperature stays 0 to keep the model reading the image instead of
	// inventing plausible lyrics.
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// NewClient creates a vision OCR client. An empty baseURL targets a local
// Ollama; an empty model selects DefaultModel.
func NewClient(model, baseURL string) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = "http://127.0.0.1:11434"
	}
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/api/chat") {
		url += "/api/chat"
	}

	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: &http.Client{
			Timeout: ocrTimeout,
		},
		model:    model,
		endpoint: url,
	}
}

// Model returns the model name the client queries.
func (c *Client) Model() string {
	return c.model
}

// Read performs OCR over one image, returning the model's raw text.
func (c *Client) Read(ctx context.Context, prompt string, image []byte) (string, error) {
	if strings.TrimSpace(c.model) == "" {
		return "", fmt.Errorf("ocr model is required")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: prompt,
			Images:  []string{base64.StdEncoding.EncodeToString(image)},
		}},
		Options: chatOptions{Temperature: 0.0, NumPredict: 2048},
		Stream:  false,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", fmt.Errorf("empty ocr response")
	}
	return parsed.Message.Content, nil
}
