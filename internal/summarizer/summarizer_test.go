package summarizer

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICompatibleClientStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"A compact"}}]}` + "\n"))
		w.Write([]byte(`data: {"choices":[{"delta":{"content":" desk lamp."}}]}` + "\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(server.URL, "test-key", "test-model")
	result, err := client.Summarize(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "A compact desk lamp.", result)
}

func TestOpenAICompatibleClientStreamInterrupted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"A compact"}}]}` + "\n"))
		// An unterminated line longer than the scanner allows, as left by a
		// connection cut mid-chunk. No [DONE] marker follows.
		w.Write([]byte("data: " + strings.Repeat("x", bufio.MaxScanTokenSize+1)))
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(server.URL, "test-key", "test-model")
	_, err := client.Summarize(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream interrupted")
}

func TestOpenAICompatibleClientNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient(server.URL, "test-key", "test-model")
	_, err := client.Summarize(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

type stubSummarizer struct {
	result string
	err    error
}

func (s *stubSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	return s.result, s.err
}

func (s *stubSummarizer) SummarizeStream(ctx context.Context, prompt string) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- s.result
	close(ch)
	return ch, s.err
}

func TestChainFallsBack(t *testing.T) {
	chain := &Chain{
		Clients: []Summarizer{
			&stubSummarizer{err: errors.New("provider down")},
			&stubSummarizer{result: "  A fine product.  "},
		},
		Logger: logger.NewMockLogger(),
	}

	result, err := chain.Summarize(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "A fine product.", result)
}

func TestChainAllFail(t *testing.T) {
	chain := &Chain{
		Clients: []Summarizer{
			&stubSummarizer{err: errors.New("first down")},
			&stubSummarizer{err: errors.New("second down")},
		},
		Logger: logger.NewMockLogger(),
	}

	_, err := chain.Summarize(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
	assert.Contains(t, err.Error(), "second down")
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(models.Product{
		Title:        "USB-C Cable",
		Brand:        "Acme",
		BulletPoints: "<li>Fast charging</li>",
		Description:  "A <b>braided</b> cable.",
	})

	assert.Contains(t, prompt, "Title: USB-C Cable")
	assert.Contains(t, prompt, "Brand: Acme")
	assert.Contains(t, prompt, "Fast charging")
	assert.Contains(t, prompt, "A braided cable.")
	assert.NotContains(t, prompt, "<b>")
}
