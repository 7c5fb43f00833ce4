package summarizer

import (
	"context"
	"fmt"
	"strings"

	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"
	"CatalogEnricher/utils"
)

// Summarizer defines a generic interface for any AI text-generation
// service used to produce product copy.
type Summarizer interface {
	// SummarizeStream sends a prompt to the AI and returns the response as a stream of text chunks.
	SummarizeStream(ctx context.Context, prompt string) (<-chan string, error)

	// Summarize performs a simple, non-streaming completion.
	Summarize(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt assembles the summarization prompt for one enriched record.
// Bullet points and description are flattened to plain text first.
func BuildPrompt(p models.Product) string {
	var builder strings.Builder
	builder.WriteString("Write a concise, factual two-sentence product summary for an e-commerce catalog. ")
	builder.WriteString("Do not invent features. Do not use marketing superlatives.\n\n")
	fmt.Fprintf(&builder, "Title: %s\n", p.Title)
	if p.Brand != "" {
		fmt.Fprintf(&builder, "Brand: %s\n", p.Brand)
	}
	if p.BulletPoints != "" {
		fmt.Fprintf(&builder, "Key points:\n%s\n", utils.StripHTML(p.BulletPoints))
	}
	if p.Description != "" {
		fmt.Fprintf(&builder, "Description:\n%s\n", utils.StripHTML(p.Description))
	}
	return builder.String()
}

// Chain tries each client in order until one returns a complete answer.
type Chain struct {
	Clients []Summarizer
	Logger  logger.Logger
}

// Summarize runs the prompt through the providers, falling back on error.
func (c *Chain) Summarize(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, client := range c.Clients {
		result, err := client.Summarize(ctx, prompt)
		if err != nil {
			lastErr = err
			c.Logger.Warnf("Provider #%d failed: %v", i+1, err)
			continue
		}
		return strings.TrimSpace(result), nil
	}
	return "", fmt.Errorf("all providers failed. last error: %w", lastErr)
}
