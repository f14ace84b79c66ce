package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	groqAPIURL         = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel   = "llama3-8b-8192"
	defaultTemperature = 0.7
	defaultMaxTokens   = 4000
)

// GroqAPI implements Provider using Groq's OpenAI-compatible chat API.
type GroqAPI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGroqAPI creates a new Groq provider.
// If apiKey is empty, it reads from the GROQ_API_KEY environment variable.
func NewGroqAPI(apiKey string) *GroqAPI {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	return &GroqAPI{
		apiKey:  apiKey,
		baseURL: groqAPIURL,
		model:   defaultGroqModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithModel sets a specific model to use.
func (g *GroqAPI) WithModel(model string) *GroqAPI {
	g.model = model
	return g
}

// WithBaseURL overrides the API endpoint.
func (g *GroqAPI) WithBaseURL(baseURL string) *GroqAPI {
	g.baseURL = baseURL
	return g
}

// Name returns the provider name.
func (g *GroqAPI) Name() string {
	return "groq"
}

// Available checks if an API key is configured.
func (g *GroqAPI) Available() bool {
	return g.apiKey != ""
}

// Generate sends the prompts to the chat completions endpoint.
func (g *GroqAPI) Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error) {
	if !g.Available() {
		return "", ErrNoProvider
	}

	model := opts.Model
	if model == "" {
		model = g.model
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr chatErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}

	return apiResp.Choices[0].Message.Content, nil
}

// API request/response types

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
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

var _ Provider = (*GroqAPI)(nil)
