package oracleworker

import (
	"regexp"
	"strings"
)

// Sentence-aware chunking for the translation adapter. The underlying
// provider enforces a per-request character limit; chunks must break at
// sentence boundaries so translations stay coherent, and reassembly
// must preserve order.

// DefaultChunkSize leaves headroom under the provider's 500-char limit.
const DefaultChunkSize = 450

var (
	// A fragment ending in one of these abbreviations did not really
	// end a sentence; it is merged with the following fragment.
	abbreviationEndRe = regexp.MustCompile(`\b(Dr|Mr|Mrs|Ms|Prof|St|Jr|Sr|etc|e\.g|i\.e|vs|Co|Inc|Ltd)\.$`)
	sentenceRe        = regexp.MustCompile(`[^.!?]*[.!?]+(?:\s+|$)`)
)

// splitSentences extracts sentences from text. Fragments produced by an
// abbreviation's trailing period are rejoined with their successor.
func splitSentences(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var sentences []string
	var pending string
	for _, m := range matches {
		fragment := strings.TrimSpace(m)
		if fragment == "" {
			continue
		}
		if pending != "" {
			fragment = pending + " " + fragment
			pending = ""
		}
		if abbreviationEndRe.MatchString(fragment) {
			pending = fragment
			continue
		}
		sentences = append(sentences, fragment)
	}
	if pending != "" {
		sentences = append(sentences, pending)
	}
	return sentences
}

// ChunkSentences splits text into ordered chunks of at most maxLen
// characters, breaking at sentence boundaries. A single sentence longer
// than maxLen is split at word boundaries as a last resort.
func ChunkSentences(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var current string

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}

	for _, sentence := range splitSentences(text) {
		if len(sentence) > maxLen {
			flush()
			chunks = append(chunks, splitWords(sentence, maxLen)...)
			continue
		}
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if len(candidate) > maxLen {
			flush()
			current = sentence
		} else {
			current = candidate
		}
	}
	flush()
	return chunks
}

// splitWords breaks an overlong sentence at word boundaries.
func splitWords(sentence string, maxLen int) []string {
	var chunks []string
	var current string
	for _, word := range strings.Fields(sentence) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if len(candidate) > maxLen && current != "" {
			chunks = append(chunks, current)
			current = word
		} else {
			current = candidate
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
