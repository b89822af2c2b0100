package genai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/recipify/diversity-guard/pkg/config"
)

// Client represents a Google GenAI client
type Client struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
}

// NewClient creates a new GenAI client
func NewClient(ctx context.Context, cfg *config.GenAIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{
		client:         client,
		modelName:      cfg.ModelName,
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

// Client returns the underlying GenAI client
func (c *Client) Client() *genai.Client {
	return c.client
}

// ModelName returns the generation model identifier
func (c *Client) ModelName() string {
	return c.modelName
}

// EmbeddingModel returns the embedding model identifier
func (c *Client) EmbeddingModel() string {
	return c.embeddingModel
}

// Close closes the GenAI client
func (c *Client) Close() error {
	// google.golang.org/genai's Client has no Close; nothing to release.
	return nil
}
