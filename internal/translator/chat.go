package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/hingeval/internal/postprocess"
)

const (
	DefaultChatBaseURL = "https://integrate.api.nvidia.com/v1"
	DefaultChatModel   = "meta/llama-3.1-8b-instruct"
)

const chatSystemPrompt = "You are a helpful translator. Translate Hinglish sentences to fluent English. Only provide the English translation, nothing else."

// ChatService talks to any OpenAI-compatible chat completions endpoint.
type ChatService struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

func NewChatService(apiKey, baseURL, model string) *ChatService {
	if baseURL == "" {
		baseURL = DefaultChatBaseURL
	}
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatService{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: 0.2,
		maxTokens:   100,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *ChatService) Name() string {
	return "chat"
}

func (s *ChatService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	apiKey := s.apiKey
	if apiKey == "" && cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		result.Error = "chat API key required"
		return result, fmt.Errorf("chat API key required")
	}

	model := s.model
	if cfg.Model != "" {
		model = cfg.Model
	}

	chatReq := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": chatSystemPrompt},
			{"role": "user", "content": fmt.Sprintf("Translate this Hinglish sentence to English: %s", req.Text)},
		},
		"temperature": s.temperature,
		"max_tokens":  s.maxTokens,
	}

	jsonData, err := json.Marshal(chatReq)
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return result, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		result.Error = fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return result, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		result.Error = fmt.Sprintf("failed to decode response: %v", err)
		return result, err
	}

	if len(chatResp.Choices) == 0 {
		result.Error = "empty response from API"
		return result, fmt.Errorf("empty response from API")
	}

	result.TranslatedText = postprocess.Clean(chatResp.Choices[0].Message.Content)
	result.Confidence = 0.7
	result.Metadata = map[string]string{
		"model":             model,
		"prompt_tokens":     fmt.Sprintf("%d", chatResp.Usage.PromptTokens),
		"completion_tokens": fmt.Sprintf("%d", chatResp.Usage.CompletionTokens),
	}

	return result, nil
}

func (s *ChatService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("chat API key not configured")
	}
	return nil
}

func (s *ChatService) Model() string {
	return s.model
}
