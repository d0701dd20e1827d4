package oracleworker

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultLanguage is the baseline: content is always generated and
// stored in it, with localized copies alongside when requested.
const DefaultLanguage = "en-US"

// languageCodes maps user language tags to provider language codes.
var languageCodes = map[string]string{
	"en-US": "en",
	"en-GB": "en",
	"es-ES": "es",
	"es-MX": "es",
	"es-DO": "es",
	"fr-FR": "fr",
	"fr-CA": "fr",
	"de-DE": "de",
	"it-IT": "it",
	"pt-BR": "pt-BR",
	"ja-JP": "ja",
	"zh-CN": "zh-cn",
}

// BaselineLanguage reports whether a language tag means "no translation
// needed".
func BaselineLanguage(tag string) bool {
	return tag == "" || tag == DefaultLanguage
}

// TranslationAdapter wraps the external translation capability with the
// guarantees the pipeline needs: it never fails (any underlying error
// degrades to the untranslated original) and it never exceeds the
// provider's per-request limit (long text is chunked on sentence
// boundaries and reassembled in order).
type TranslationAdapter struct {
	translator Translator
	maxChunk   int
	// pause spaces out chunk requests so a multi-chunk translation
	// does not trip the provider's rate limit.
	pause time.Duration
	log   *logrus.Entry
}

// NewTranslationAdapter builds an adapter with production defaults.
func NewTranslationAdapter(translator Translator) *TranslationAdapter {
	return &TranslationAdapter{
		translator: translator,
		maxChunk:   DefaultChunkSize,
		pause:      500 * time.Millisecond,
		log:        logrus.WithField("component", "translator"),
	}
}

// TranslatePair translates both granularities of a generation. The
// second return value is false when translation degraded and the
// returned pair is (partly or wholly) the original text.
func (a *TranslationAdapter) TranslatePair(ctx context.Context, pair ContentPair, language string) (ContentPair, bool) {
	if BaselineLanguage(language) {
		return pair, true
	}
	code, ok := languageCodes[language]
	if !ok {
		a.log.WithField("language", language).Warn("unsupported language, returning original")
		translationFallbacks.Inc()
		return pair, false
	}

	full, okFull := a.translateText(ctx, pair.Full, code)
	brief, okBrief := a.translateText(ctx, pair.Brief, code)
	return ContentPair{Full: full, Brief: brief}, okFull && okBrief
}

// translateText chunks, translates and reassembles one text. Always
// returns usable text; the flag reports whether every chunk translated.
func (a *TranslationAdapter) translateText(ctx context.Context, text, code string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return text, true
	}

	chunks := ChunkSentences(text, a.maxChunk)
	translated := make([]string, 0, len(chunks))
	clean := true

	for i, chunk := range chunks {
		out, err := a.translator.TranslateText(ctx, chunk, code)
		if err != nil || strings.TrimSpace(out) == "" {
			if err != nil {
				a.log.WithError(err).WithField("chunk", i).
					Warn("chunk translation failed, keeping original text")
			}
			translationFallbacks.Inc()
			out = chunk
			clean = false
		}
		translated = append(translated, out)

		if i < len(chunks)-1 && a.pause > 0 {
			select {
			case <-time.After(a.pause):
			case <-ctx.Done():
				// Shutdown mid-translation: keep the rest untranslated.
				translated = append(translated, chunks[i+1:]...)
				return strings.Join(translated, " "), false
			}
		}
	}
	return strings.Join(translated, " "), clean
}
