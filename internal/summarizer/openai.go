package summarizer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatibleClient is a client for any OpenAI-compatible
// chat-completions API.
type OpenAICompatibleClient struct {
	ApiURL     string
	ApiKey     string
	Model      string
	HttpClient *http.Client
}

// NewOpenAICompatibleClient creates a new client instance.
func NewOpenAICompatibleClient(apiURL, apiKey, model string) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		ApiURL: apiURL,
		ApiKey: apiKey,
		Model:  model,
		HttpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type (
	apiRequest struct {
		Model    string    `json:"model"`
		Messages []message `json:"messages"`
		Stream   bool      `json:"stream"`
	}
	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	streamChunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
)

// openStream posts the prompt and hands back the response body, already
// checked for a 200. The caller owns closing it.
func (c *OpenAICompatibleClient) openStream(ctx context.Context, prompt string) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(apiRequest{
		Model: c.Model,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.ApiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ApiKey)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}
	return resp.Body, nil
}

// parseChunk decodes one SSE line; done reports the end-of-stream marker.
func parseChunk(line string) (content string, done bool) {
	if !strings.HasPrefix(line, "data: ") {
		return "", false
	}
	jsonStr := strings.TrimPrefix(line, "data: ")
	if jsonStr == "[DONE]" {
		return "", true
	}
	var chunk streamChunk
	if err := json.Unmarshal([]byte(jsonStr), &chunk); err != nil || len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, false
}

// SummarizeStream sends a prompt and emits the response as text chunks.
func (c *OpenAICompatibleClient) SummarizeStream(ctx context.Context, prompt string) (<-chan string, error) {
	body, err := c.openStream(ctx, prompt)
	if err != nil {
		return nil, err
	}

	outChan := make(chan string)
	go func() {
		defer close(outChan)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			content, done := parseChunk(scanner.Text())
			if done {
				return
			}
			if content != "" {
				outChan <- content
			}
		}
	}()

	return outChan, nil
}

// Summarize reads the whole stream into one string. A transport error
// mid-stream fails the call rather than returning a truncated summary.
func (c *OpenAICompatibleClient) Summarize(ctx context.Context, prompt string) (string, error) {
	body, err := c.openStream(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var result strings.Builder
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		content, done := parseChunk(scanner.Text())
		if done {
			return result.String(), nil
		}
		result.WriteString(content)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("response stream interrupted: %w", err)
	}
	return result.String(), nil
}
