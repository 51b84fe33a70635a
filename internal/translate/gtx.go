package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GtxProvider calls the unofficial Google Translate web endpoint. Last-resort
// provider: no key, no SLA.
type GtxProvider struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewGtxProvider creates the unofficial Google Translate provider.
func NewGtxProvider(baseURL string, timeout time.Duration) *GtxProvider {
	return &GtxProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (p *GtxProvider) Name() string { return "google-gtx" }

// Translate implements Translator. The endpoint answers with a nested JSON
// array; the translated text is split across the first elements of the first
// array: [[["hola"," hello",...],...],...].
func (p *GtxProvider) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gtx translate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gtx translate: status %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("gtx translate: decode: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("gtx translate: empty response")
	}
	var segments [][]json.RawMessage
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("gtx translate: decode segments: %w", err)
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gtx translate: empty translation")
	}
	return b.String(), nil
}
