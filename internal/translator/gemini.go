package translator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/valpere/hingeval/internal/postprocess"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiService uses the Gemini API through the genai SDK with the same
// instructions as the chat provider.
type GeminiService struct {
	apiKey  string
	baseURL string
	model   string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiService(apiKey, baseURL, model string) *GeminiService {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiService{apiKey: apiKey, baseURL: baseURL, model: model}
}

func (s *GeminiService) Name() string {
	return "gemini"
}

func (s *GeminiService) getClient(ctx context.Context, cfg ServiceConfig) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	apiKey := s.apiKey
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *GeminiService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	client, err := s.getClient(ctx, cfg)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	model := s.model
	if cfg.Model != "" {
		model = cfg.Model
	}

	temperature := float32(0.2)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatSystemPrompt, genai.RoleUser),
		Temperature:       &temperature,
		MaxOutputTokens:   100,
	}

	prompt := fmt.Sprintf("Translate this Hinglish sentence to English: %s", req.Text)
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
	if err != nil {
		result.Error = fmt.Sprintf("generation failed: %v", err)
		return result, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		result.Error = "empty response from API"
		return result, fmt.Errorf("empty response from API")
	}

	result.TranslatedText = postprocess.Clean(text)
	result.Confidence = 0.7
	result.Metadata = map[string]string{"model": model}
	if resp.UsageMetadata != nil {
		result.Metadata["prompt_tokens"] = fmt.Sprintf("%d", resp.UsageMetadata.PromptTokenCount)
		result.Metadata["completion_tokens"] = fmt.Sprintf("%d", resp.UsageMetadata.CandidatesTokenCount)
	}

	return result, nil
}

func (s *GeminiService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

func (s *GeminiService) Model() string {
	return s.model
}
