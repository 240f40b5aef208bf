package translator

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService wraps the Cloud Translation v2 API. The client is created on
// first use and reused for the rest of the run.
type GoogleService struct {
	credentials string
	apiKey      string

	mu     sync.Mutex
	client *translate.Client
	opts   []option.ClientOption
}

func NewGoogleService(credentials, apiKey string, opts ...option.ClientOption) *GoogleService {
	return &GoogleService{credentials: credentials, apiKey: apiKey, opts: opts}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) getClient(ctx context.Context, cfg ServiceConfig) (*translate.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	opts := append([]option.ClientOption{}, s.opts...)
	credentials := s.credentials
	if credentials == "" {
		credentials = cfg.Credentials
	}
	apiKey := s.apiKey
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	switch {
	case credentials != "":
		opts = append(opts, option.WithCredentialsFile(credentials))
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetLang := req.TargetLang
	if targetLang == "" {
		targetLang = TargetLang
	}
	targetLangTag, err := language.Parse(targetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language: %w", err)
	}

	client, err := s.getClient(ctx, cfg)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	// Romanized Hinglish is left to auto-detection; forcing "hi" makes the
	// API expect Devanagari.
	opts := &translate.Options{Format: translate.Text}
	translations, err := client.Translate(ctx, []string{req.Text}, targetLangTag, opts)
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}

	if len(translations) == 0 {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	result.TranslatedText = html.UnescapeString(translations[0].Text)
	result.Confidence = 1.0
	result.Metadata = map[string]string{"detected_source": translations[0].Source.String()}

	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}

// Close releases the underlying client, if one was created.
func (s *GoogleService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
