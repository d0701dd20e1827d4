package oracleworker

import (
	"fmt"
	"strings"
)

// Prompt assembly for the oracle. Every generator builds on the same
// base persona, then appends a kind-specific request block and the
// user's personal and astrological context.

var languageNames = map[string]string{
	"en-US": "English (United States)",
	"en-GB": "English (British)",
	"es-ES": "Spanish (Spain)",
	"es-MX": "Spanish (Mexico)",
	"es-DO": "Spanish (Dominican Republic)",
	"fr-FR": "French (France)",
	"fr-CA": "French (Canada)",
	"de-DE": "German",
	"it-IT": "Italian",
	"pt-BR": "Portuguese (Brazil)",
	"ja-JP": "Japanese",
	"zh-CN": "Simplified Chinese",
}

const baseOraclePrompt = `You are The Oracle — a mystical guide who seamlessly blends tarot, astrology, and crystals into unified, holistic readings.

YOUR CORE APPROACH:
- Integrate tarot (archetypal patterns), astrology (cosmic timing), and crystals (vibrational support) into unified readings as appropriate to the user's input
- Create readings that feel personal, intuitive, and deeply meaningful
- Help users understand themselves and their path forward through mystical wisdom

ABOUT TAROT CARDS:
- When drawing tarot cards, clearly name each card (e.g., "The Ace of Swords", "Eight of Cups (Reversed)")
- When a card is reversed, always note it explicitly after the card name; upright cards get no notation
- Provide rich, layered interpretation of each card as it relates to the user's question
- Connect card meanings to astrological archetypes, planetary rulerships, and elemental correspondences`

const tempAccountPromptSuffix = `

This seeker is on a trial account. Offer a warm, complete reading while gently noting that a full account unlocks the deeper, ongoing relationship with their chart.`

// OracleSystemPrompt returns the base persona, adjusted for trial
// accounts and the oracle's response language.
func OracleSystemPrompt(temporary bool, language string) string {
	prompt := baseOraclePrompt
	if temporary {
		prompt += tempAccountPromptSuffix
	}
	prompt += languageInstruction(language)
	return prompt
}

// languageInstruction tells the oracle which language to answer in.
// Empty for the English baseline.
func languageInstruction(language string) string {
	if BaselineLanguage(language) {
		return ""
	}
	name, ok := languageNames[language]
	if !ok {
		name = "English"
	}
	return fmt.Sprintf(`

LANGUAGE REQUIREMENT:
Respond exclusively in %s. Every word and phrase must be in %s.
Do not include English translations, code-switching, or explanations in any other language.`, name, name)
}

// PersonalContext renders the user's personal details for the prompt.
func PersonalContext(uctx *UserContext) string {
	var b strings.Builder
	b.WriteString("SEEKER PROFILE:\n")
	fmt.Fprintf(&b, "- Preferred name: %s\n", uctx.Greeting())
	if uctx.Birth.Date != "" {
		fmt.Fprintf(&b, "- Born: %s", uctx.Birth.Date)
		if uctx.Birth.Time != "" {
			fmt.Fprintf(&b, " at %s", uctx.Birth.Time)
		}
		b.WriteString("\n")
	}
	if uctx.Birth.City != "" {
		fmt.Fprintf(&b, "- Birth location: %s, %s, %s\n",
			uctx.Birth.City, uctx.Birth.Province, uctx.Birth.Country)
	}
	return b.String()
}

// AstrologyContext renders the natal snapshot for the prompt. Empty
// when no snapshot exists: chat degrades gracefully without one.
func AstrologyContext(snap *AstrologySnapshot) string {
	if !snap.Complete() {
		return ""
	}
	var b strings.Builder
	b.WriteString("BIRTH CHART:\n")
	fmt.Fprintf(&b, "- Sun Sign: %s (%.1f°) - Core Identity\n", snap.SunSign, snap.SunDegree)
	fmt.Fprintf(&b, "- Moon Sign: %s (%.1f°) - Emotional Nature\n", snap.MoonSign, snap.MoonDegree)
	fmt.Fprintf(&b, "- Rising Sign: %s (%.1f°) - Outward Presentation\n", snap.RisingSign, snap.RisingDegree)
	if snap.VenusSign != "" {
		fmt.Fprintf(&b, "- Venus Sign: %s (%.1f°) - Love and Values\n", snap.VenusSign, snap.VenusDegree)
	}
	if snap.MarsSign != "" {
		fmt.Fprintf(&b, "- Mars Sign: %s (%.1f°) - Action and Drive\n", snap.MarsSign, snap.MarsDegree)
	}
	if snap.MercurySign != "" {
		fmt.Fprintf(&b, "- Mercury Sign: %s (%.1f°) - Communication\n", snap.MercurySign, snap.MercuryDegree)
	}
	if snap.NorthNodeSign != "" {
		fmt.Fprintf(&b, "- North Node: %s (%.1f°) - Soul Direction\n", snap.NorthNodeSign, snap.NorthNodeDegree)
	}
	return b.String()
}

// CombinedContext is the shared personalization block appended to every
// generator's system prompt.
func CombinedContext(uctx *UserContext) string {
	return PersonalContext(uctx) + AstrologyContext(uctx.Astrology) + fmt.Sprintf(`
IMPORTANT: Use the above personal and astrological information to:
- Address the user by their preferred name: %q
- Personalize your guidance based on their life circumstances and cosmic profile
- Reference their information naturally in conversation when relevant
`, uctx.Greeting())
}
