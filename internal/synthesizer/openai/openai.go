package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const answerSystemPrompt = "You are a retrieval-grounded assistant. Answer the question using only the " +
	"provided context. Cite nothing outside it. If the context is empty or does not " +
	"contain the answer, say that you cannot answer from the provided context."

const keywordSystemPrompt = "You extract keywords. Given a query and context passages, return the most " +
	"relevant keyword terms from the context as a comma-separated list, nothing else. " +
	"If the context is empty, return an empty response."

// Client is an OpenAI-compatible chat-completions client used as the answer
// synthesizer.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	system  string
	client  *http.Client
}

// Config configures the synthesizer client. The API key is read from the
// environment variable named by APIKeyEnv.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// Keywords selects the keyword-extraction prompt instead of the QA prompt.
	Keywords bool
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	system := answerSystemPrompt
	if cfg.Keywords {
		system = keywordSystemPrompt
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		system:  system,
		client:  &http.Client{Timeout: t},
	}, nil
}

// Complete sends the query and context block to the chat completions endpoint
// and returns the model's reply.
func (c *Client) Complete(query, contextBlock string) (string, error) {
	user := "Question: " + query + "\n\nContext:\n" + contextBlock
	if contextBlock == "" {
		user = "Question: " + query + "\n\nContext: (no supporting context was found)"
	}
	payload, _ := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": c.system},
			{"role": "user", "content": user},
		},
	})
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completion failed: %s", resp.Status)
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
