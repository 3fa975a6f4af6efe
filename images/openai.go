package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "dall-e-3"
	defaultSize    = "1024x1024"

	// Generated images can run a few megabytes; anything past this is
	// not an image we want to mirror.
	maxImageBytes = 32 << 20
)

// Client renders images through an OpenAI-compatible images API. It
// implements the service.ImageGenerator interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	size       string
}

// NewClient creates an image-generation client. baseURL may be empty to
// use the OpenAI endpoint; any OpenAI-compatible host works.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("image api key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      defaultModel,
		size:       defaultSize,
	}, nil
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate renders one image and returns its provider-hosted URL. The
// URL is short-lived; callers that need durability must re-upload the
// bytes elsewhere.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generationRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
		Size:   c.size,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return "", fmt.Errorf("image provider rejected prompt: %s", decoded.Error.Message)
		}
		return "", fmt.Errorf("image provider returned status %d", resp.StatusCode)
	}

	if len(decoded.Data) == 0 || decoded.Data[0].URL == "" {
		return "", fmt.Errorf("image provider returned no image")
	}

	log.WithField("prompt", prompt).Info("Image generated")

	return decoded.Data[0].URL, nil
}

// Fetch downloads the rendered image bytes
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image fetch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	return data, nil
}
