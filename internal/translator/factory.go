package translator

import (
	"context"
	"fmt"

	"github.com/valpere/hingeval/internal/config"
	"github.com/valpere/hingeval/internal/logger"
)

// New builds the translation service for a provider spec.
func New(spec config.ProviderSpec) (TranslationService, error) {
	switch spec.Kind {
	case config.KindChat:
		return NewChatService(spec.Key(), spec.BaseURL, spec.Model), nil
	case config.KindGemini:
		return NewGeminiService(spec.Key(), spec.BaseURL, spec.Model), nil
	case config.KindOllama:
		return NewOllamaTranslator(spec.BaseURL, spec.Model), nil
	case config.KindSeq2Seq:
		return NewSeq2SeqService(spec.Key(), spec.BaseURL, spec.Model), nil
	case config.KindGoogle:
		return NewGoogleService(spec.Credentials, spec.Key()), nil
	case config.KindMyMemory:
		return NewMyMemoryService(spec.Key(), spec.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q for %s", spec.Kind, spec.Name)
	}
}

// ModelOf reports the model a service resolves to, or "" for services
// without a model notion.
func ModelOf(svc TranslationService) string {
	if m, ok := svc.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

// Text translates text and returns the cleaned output. Errors carried in
// the result are surfaced as errors.
func Text(ctx context.Context, svc TranslationService, cfg ServiceConfig, text string) (string, error) {
	res, err := svc.Translate(ctx, cfg, NewRequest(text))
	if err != nil {
		if res != nil && res.Error != "" {
			return "", fmt.Errorf("%s: %w (%s)", svc.Name(), err, res.Error)
		}
		return "", fmt.Errorf("%s: %w", svc.Name(), err)
	}
	if res == nil {
		return "", fmt.Errorf("%s: no result", svc.Name())
	}
	if res.Error != "" {
		return "", fmt.Errorf("%s: %s", svc.Name(), res.Error)
	}
	return res.TranslatedText, nil
}

// Safe adapts a service to the alignment rule of the result tables: a
// failed call is logged and yields "" so every input still gets an output.
func Safe(svc TranslationService, cfg ServiceConfig) func(ctx context.Context, text string) string {
	return func(ctx context.Context, text string) string {
		out, err := Text(ctx, svc, cfg, text)
		if err != nil {
			logger.Log.Warn("translation failed", "service", svc.Name(), "error", err)
			return ""
		}
		return out
	}
}
