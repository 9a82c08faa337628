package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const systemPrompt = `You label short personal notes with topical tags.
Reply with a JSON object of the form {"tags": ["tag-one", "tag-two"]} and nothing else.
Tags are lowercase, one or two words, most relevant first. Suggest at most %d tags.`

// DefaultMaxTags is the tag limit stated in the prompt.
const DefaultMaxTags = 5

// OpenAI suggests tags through an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	maxTags int
	client  *http.Client
}

// OpenAIOption configures an OpenAI suggester.
type OpenAIOption func(*OpenAI)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) { o.client = c }
}

// WithMaxTags sets the tag limit stated in the prompt.
func WithMaxTags(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n > 0 {
			o.maxTags = n
		}
	}
}

// NewOpenAI creates a suggester for baseURL (e.g. https://api.openai.com/v1).
func NewOpenAI(baseURL, apiKey, model string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		maxTags: DefaultMaxTags,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Suggest sends text to the model and parses the tags from its reply.
func (o *OpenAI) Suggest(ctx context.Context, text string) ([]string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, o.maxTags)},
			{Role: "user", Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("suggest: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("suggest: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suggest: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("suggest: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("suggest: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("suggest: response has no choices")
	}
	return ParseReply(out.Choices[0].Message.Content)
}
