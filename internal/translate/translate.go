// Package translate provides the text translation capability consumed by the
// transcript fan-out pipeline. Concrete providers are external HTTP services
// with their own latency and failure modes; the Chain collapses an ordered
// list of them into one Translator.
package translate

import "context"

// Translator converts text between languages. Language codes are ISO 639-1.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
	Name() string
}
