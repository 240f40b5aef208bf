package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/translator"
)

// Cache is the subset of the store used to skip repeated provider calls.
type Cache interface {
	Get(ctx context.Context, provider, model, text string) (string, bool, error)
	Save(ctx context.Context, provider, model, text, translated string) error
}

// cachedService answers from the cache when it can and stores every
// non-empty result it had to fetch.
type cachedService struct {
	translator.TranslationService
	cache    Cache
	provider string
	model    string
	hits     int
}

func (s *cachedService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	text, ok, err := s.cache.Get(ctx, s.provider, s.model, req.Text)
	if err != nil {
		logger.Log.Warn("cache lookup failed", "provider", s.provider, "error", err)
	}
	if ok {
		s.hits++
		return &translator.ServiceResult{
			ServiceName:    s.Name(),
			TranslatedText: text,
			Confidence:     1.0,
			Metadata:       map[string]string{"cache": "hit"},
		}, nil
	}

	res, err := s.TranslationService.Translate(ctx, cfg, req)
	if err != nil || res == nil || res.Error != "" || res.TranslatedText == "" {
		return res, err
	}
	if err := s.cache.Save(ctx, s.provider, s.model, req.Text, res.TranslatedText); err != nil {
		logger.Log.Warn("cache save failed", "provider", s.provider, "error", err)
	}
	return res, nil
}

// retryingService retries failed calls up to attempts times, doubling the
// backoff after each failure.
type retryingService struct {
	translator.TranslationService
	attempts int
	backoff  time.Duration
}

func (s *retryingService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	wait := s.backoff
	var (
		res *translator.ServiceResult
		err error
	)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		res, err = s.TranslationService.Translate(ctx, cfg, req)
		if err == nil && (res == nil || res.Error == "") {
			return res, nil
		}
		if ctx.Err() != nil || attempt == s.attempts {
			break
		}
		logger.Log.Debug("retrying translation", "service", s.Name(), "attempt", attempt, "error", err)
		if wait > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}
	}
	if err == nil && res != nil && res.Error != "" {
		err = fmt.Errorf("%s", res.Error)
	}
	return res, err
}

// limitedService spaces provider calls by waiting on a token bucket.
type limitedService struct {
	translator.TranslationService
	limiter *rate.Limiter
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func (s *limitedService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return &translator.ServiceResult{ServiceName: s.Name(), Error: err.Error()}, err
	}
	return s.TranslationService.Translate(ctx, cfg, req)
}

// timedService bounds each provider call by timeout. A call that ignores
// its context is abandoned once the deadline passes.
type timedService struct {
	translator.TranslationService
	timeout time.Duration
}

type callResult struct {
	res *translator.ServiceResult
	err error
}

func (s *timedService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	if s.timeout <= 0 {
		return s.TranslationService.Translate(ctx, cfg, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		res, err := s.TranslationService.Translate(callCtx, cfg, req)
		done <- callResult{res: res, err: err}
	}()

	select {
	case r := <-done:
		return r.res, r.err
	case <-callCtx.Done():
		err := fmt.Errorf("%s: call timed out after %v: %w", s.Name(), s.timeout, callCtx.Err())
		return &translator.ServiceResult{ServiceName: s.Name(), Error: err.Error()}, err
	}
}
