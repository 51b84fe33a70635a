package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LibreProvider calls a LibreTranslate instance. No API key required on the
// public instance.
type LibreProvider struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewLibreProvider creates a LibreTranslate provider.
func NewLibreProvider(baseURL string, timeout time.Duration) *LibreProvider {
	return &LibreProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (p *LibreProvider) Name() string { return "libretranslate" }

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate implements Translator.
func (p *LibreProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(libreRequest{Q: text, Source: sourceLang, Target: targetLang, Format: "text"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("libretranslate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("libretranslate: status %d", resp.StatusCode)
	}

	var out libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("libretranslate: decode: %w", err)
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("libretranslate: empty response")
	}
	return out.TranslatedText, nil
}
