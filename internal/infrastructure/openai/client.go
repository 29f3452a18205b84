// Package openai implements the text-generator port against the OpenAI
// chat-completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/ports"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// systemPrompt instructs the model to return the fixed seven-key schema.
const systemPrompt = `Enhance this product data. Objective: improve SEO, visibility and user engagement. Suggest updates for the product title, description, tags, SEO title and SEO description fields, making them optimized and engaging, following Shopify best practices.

Product Title: generate a compelling, clear title that includes relevant keywords, is concise, and reflects the product's unique features.
Product Description: rewrite the description to be engaging, informative and SEO-optimized, emphasizing key details and unique selling points.
Tags: generate relevant tags reflecting the product's category, characteristics and use cases.
SEO Title: concise, primary keywords, about 60 characters, no keyword stuffing.
SEO Description: informative and inviting, relevant keywords, 155-160 characters.
Category and Product Type: suggest values aligned with Shopify's taxonomy guidelines.

Expected output: a JSON object with exactly the keys newTitle, newDescription, newTags, newSeoTitle, newSeoDescription, newCategoryName, newProductType. ALWAYS USE THE SAME SCHEMA FOR THE RETURN, EVEN IF FIELDS ARE EMPTY.`

// Client calls the OpenAI chat-completions endpoint with a bounded timeout.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates an OpenAI text generator.
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) ports.TextGenerator {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateProductData sends the product snapshot to the model and returns the
// raw assistant response. Timeouts surface as domain.ErrProviderTimeout; the
// caller parses the response into the proposed-field schema.
func (c *Client) GenerateProductData(ctx context.Context, product domain.ProductSnapshot) (string, error) {
	productJSON, err := json.Marshal(product)
	if err != nil {
		return "", fmt.Errorf("failed to encode product: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(productJSON)},
		},
		Temperature: 1,
		MaxTokens:   2000,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug().
		Str("shop", domain.ShopDomainFromContext(ctx)).
		Uint64("productId", product.ID).
		Str("model", c.model).
		Msg("Requesting product enhancement")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if timedOut(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
		}
		return "", fmt.Errorf("provider call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Provider returned non-200 status")
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedAIResponse, err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no assistant response", domain.ErrMalformedAIResponse)
	}

	return chatResp.Choices[0].Message.Content, nil
}

func timedOut(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
