package translator

import (
	"context"
	"time"

	"github.com/valpere/hingeval/internal/config"
)

// Language pair of the evaluation: code-mixed Hindi-English in, English out.
const (
	SourceLang = "hi"
	TargetLang = "en"
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
}

// ConfigFor derives the per-call service configuration from a provider spec.
func ConfigFor(spec config.ProviderSpec) ServiceConfig {
	return ServiceConfig{
		Credentials: spec.Credentials,
		APIKey:      spec.Key(),
		Model:       spec.Model,
		BaseURL:     spec.BaseURL,
		Timeout:     spec.Timeout,
		ProjectID:   spec.ProjectID,
	}
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// NewRequest builds a Hinglish to English request for text.
func NewRequest(text string) TranslateRequest {
	return TranslateRequest{Text: text, SourceLang: SourceLang, TargetLang: TargetLang}
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Confidence     float64           `json:"confidence"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
}
