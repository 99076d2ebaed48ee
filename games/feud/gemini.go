package feud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

const systemInstruction = `You are a game show host for "Family Feud Philippines: Paskong Pinoy Edition".
Your task is to generate survey questions related to Filipino Christmas traditions, foods, habits, and culture.
The questions should be relatable to Filipinos (masa culture to corporate culture).
Use "Taglish" (Tagalog-English mix) for the questions to make them sound authentic and conversational.
Answers should be in English or Tagalog (whichever is more common).
Points should roughly total 100 for each question.
Provide 5-8 answers per question.`

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
	Temperature      float64        `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction geminiContent          `json:"systemInstruction"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the generateContent REST endpoint in JSON mode.
type GeminiClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

func NewGeminiClient(endpoint, model, apiKey string, timeout time.Duration) *GeminiClient {
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errors.New("no API key configured")
	}

	body, err := json.Marshal(geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
			Temperature:      req.Temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.endpoint + "/v1beta/models/" + url.PathEscape(c.model) + ":generateContent"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, string(data))
	}

	var gr geminiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, cand := range gr.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return []byte(part.Text), nil
			}
		}
	}

	return nil, errors.New("response contained no text")
}
