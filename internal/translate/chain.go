package translate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Chain tries each provider in order and returns the first successful
// translation. Provider errors and timeouts are logged and absorbed; only
// when every provider fails does the caller see an error.
type Chain struct {
	providers []Translator
	log       *zap.Logger
}

// NewChain creates a provider chain. Order matters: earlier providers are
// preferred.
func NewChain(log *zap.Logger, providers ...Translator) *Chain {
	return &Chain{providers: providers, log: log}
}

func (c *Chain) Name() string { return "chain" }

// Translate implements Translator.
func (c *Chain) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	var lastErr error
	for _, p := range c.providers {
		start := time.Now()
		out, err := p.Translate(ctx, text, targetLang, sourceLang)
		if err == nil {
			c.log.Debug("translation ok",
				zap.String("provider", p.Name()),
				zap.String("source", sourceLang),
				zap.String("target", targetLang),
				zap.Duration("latency", time.Since(start)))
			return out, nil
		}
		lastErr = err
		c.log.Warn("translation provider failed",
			zap.String("provider", p.Name()),
			zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no translation providers configured")
	}
	return "", fmt.Errorf("all translation providers failed: %w", lastErr)
}

// FromConfig builds the default provider chain: Google Cloud (when an API
// key is configured), then LibreTranslate, then the unofficial endpoint.
func FromConfig(log *zap.Logger, apiKey, googleURL string, googleTimeout time.Duration,
	libreURL string, libreTimeout time.Duration,
	gtxURL string, gtxTimeout time.Duration) *Chain {
	var providers []Translator
	if apiKey != "" {
		providers = append(providers, NewGoogleProvider(apiKey, googleURL, googleTimeout))
	}
	providers = append(providers,
		NewLibreProvider(libreURL, libreTimeout),
		NewGtxProvider(gtxURL, gtxTimeout),
	)
	return NewChain(log, providers...)
}
