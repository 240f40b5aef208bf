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
)

const (
	DefaultSeq2SeqBaseURL = "https://api-inference.huggingface.co/models"
	DefaultSeq2SeqModel   = "ar5entum/marianMT_hin_eng_cs"
)

// Seq2SeqService calls a hosted encoder-decoder model (MarianMT and the like)
// through the Hugging Face inference API.
type Seq2SeqService struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

func NewSeq2SeqService(apiKey, baseURL, model string) *Seq2SeqService {
	if baseURL == "" {
		baseURL = DefaultSeq2SeqBaseURL
	}
	if model == "" {
		model = DefaultSeq2SeqModel
	}
	return &Seq2SeqService{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		maxTokens: 40,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *Seq2SeqService) Name() string {
	return "seq2seq"
}

func buildSeq2SeqPrompt(text string) string {
	return fmt.Sprintf("Hindi-English code-switched sentence:\n\n%s\n", text)
}

func (s *Seq2SeqService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	apiKey := s.apiKey
	if apiKey == "" && cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}

	model := s.model
	if cfg.Model != "" {
		model = cfg.Model
	}

	payload := map[string]interface{}{
		"inputs": buildSeq2SeqPrompt(req.Text),
		"parameters": map[string]interface{}{
			"max_new_tokens": s.maxTokens,
			"do_sample":      false,
		},
		"options": map[string]interface{}{
			"wait_for_model": true,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal request: %v", err)
		return result, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+model, bytes.NewBuffer(jsonData))
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read response: %v", err)
		return result, err
	}

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return result, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	text, err := decodeSeq2SeqOutput(body)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.TranslatedText = strings.TrimSpace(text)
	result.Confidence = 0.7
	result.Metadata = map[string]string{"model": model}

	return result, nil
}

type seq2seqOutput struct {
	TranslationText string `json:"translation_text"`
	GeneratedText   string `json:"generated_text"`
}

func (o seq2seqOutput) text() string {
	if o.TranslationText != "" {
		return o.TranslationText
	}
	return o.GeneratedText
}

// decodeSeq2SeqOutput accepts both the list and the single-object response
// shapes of the inference API.
func decodeSeq2SeqOutput(body []byte) (string, error) {
	var list []seq2seqOutput
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("empty response from API")
		}
		return list[0].text(), nil
	}

	var single seq2seqOutput
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return single.text(), nil
}

func (s *Seq2SeqService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *Seq2SeqService) Model() string {
	return s.model
}
