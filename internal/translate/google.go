package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// GoogleProvider calls the Google Cloud Translation v2 REST API with an API
// key.
type GoogleProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewGoogleProvider creates a Google Cloud Translation provider.
func NewGoogleProvider(apiKey, baseURL string, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (p *GoogleProvider) Name() string { return "google-cloud" }

type googleRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Source string `json:"source"`
	Format string `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate implements Translator.
func (p *GoogleProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(googleRequest{Q: text, Target: targetLang, Source: sourceLang, Format: "text"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"?key="+url.QueryEscape(p.apiKey), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate: status %d", resp.StatusCode)
	}

	var out googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("google translate: decode: %w", err)
	}
	if len(out.Data.Translations) == 0 {
		return "", fmt.Errorf("google translate: empty response")
	}
	return out.Data.Translations[0].TranslatedText, nil
}
