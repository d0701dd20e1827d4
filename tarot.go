package oracleworker

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The fixed 78-card catalog used to recover structured card references
// from the oracle's free-form prose.

var majorArcana = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress",
	"The Emperor", "The Hierophant", "The Lovers", "The Chariot",
	"Strength", "The Hermit", "Wheel of Fortune", "Justice",
	"The Hanged Man", "Death", "Temperance", "The Devil",
	"The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

var (
	minorRanks = []string{
		"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
		"Eight", "Nine", "Ten", "Page", "Knight", "Queen", "King",
	}
	minorSuits = []string{"Wands", "Cups", "Swords", "Pentacles"}
)

// TarotDeck returns the full catalog, major arcana first.
func TarotDeck() []string {
	deck := make([]string, 0, 78)
	deck = append(deck, majorArcana...)
	for _, suit := range minorSuits {
		for _, rank := range minorRanks {
			deck = append(deck, fmt.Sprintf("%s of %s", rank, suit))
		}
	}
	return deck
}

// CardReference is one card the oracle named in a reading.
type CardReference struct {
	Name     string `json:"name"`
	Reversed bool   `json:"reversed"`
}

// reversalWindow is how far past a card name the reversal marker may
// appear, e.g. "The Tower (Reversed)" or "Eight of Cups, inverted".
const reversalWindow = 30

// ExtractCards finds named tarot cards in a response. Matching is
// case-insensitive and tolerates a dropped "The" prefix ("High
// Priestess" matches "The High Priestess"). A "reversed" or "inverted"
// marker within a short window after the name flags the card reversed.
// Each card is reported once, in order of first appearance.
func ExtractCards(text string) []CardReference {
	lower := strings.ToLower(text)

	type hit struct {
		ref CardReference
		pos int
	}
	var hits []hit
	seen := make(map[string]bool)

	for _, card := range TarotDeck() {
		names := []string{strings.ToLower(card)}
		if trimmed := strings.TrimPrefix(card, "The "); trimmed != card {
			names = append(names, strings.ToLower(trimmed))
		}

		best, bestLen := -1, 0
		for _, name := range names {
			idx := indexWordMatch(lower, name)
			if idx >= 0 && (best < 0 || idx < best) {
				best, bestLen = idx, len(name)
			}
		}
		if best < 0 || seen[card] {
			continue
		}
		seen[card] = true

		end := best + bestLen
		window := lower[end:min(end+reversalWindow, len(lower))]
		reversed := strings.Contains(window, "reversed") || strings.Contains(window, "inverted")

		hits = append(hits, hit{ref: CardReference{Name: card, Reversed: reversed}, pos: best})
	}

	// Order by first appearance in the prose.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	refs := make([]CardReference, len(hits))
	for i, h := range hits {
		refs[i] = h.ref
	}
	return refs
}

// indexWordMatch finds name in text at a word boundary, so "the sun"
// never matches inside "the sunset".
func indexWordMatch(text, name string) int {
	from := 0
	for {
		idx := strings.Index(text[from:], name)
		if idx < 0 {
			return -1
		}
		idx += from
		end := idx + len(name)
		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end >= len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return idx
		}
		from = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// AppendCardBlock attaches the structured card list to a reading so the
// client can render the drawn cards without re-parsing prose. No-op for
// readings without cards.
func AppendCardBlock(text string, refs []CardReference) string {
	if len(refs) == 0 {
		return text
	}
	encoded, err := json.Marshal(refs)
	if err != nil {
		return text
	}
	return text + "\n<!--cards:" + string(encoded) + "-->"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
