package oracleworker

import (
	"context"
	"fmt"
	"strings"
)

// Moon phase names accepted on jobs and stored as idempotency tags.
var moonPhases = []string{
	"newMoon", "waxingCrescent", "firstQuarter", "waxingGibbous",
	"fullMoon", "waningGibbous", "lastQuarter", "waningCrescent",
}

const defaultMoonPhase = "fullMoon"

// NormalizeMoonPhase maps free-form phase text to a canonical phase
// name, defaulting when nothing matches.
func NormalizeMoonPhase(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range moonPhases {
		if strings.EqualFold(p, lower) || strings.ToLower(p) == strings.ReplaceAll(lower, " ", "") {
			return p
		}
	}
	return defaultMoonPhase
}

// MoonPhaseStrategy generates a short personalized insight on how the
// current lunar phase lands on the user's chart. Keyed per phase: a
// fullMoon insight does not satisfy the guard for waningGibbous.
type MoonPhaseStrategy struct{}

func (MoonPhaseStrategy) Kind() JobKind { return JobKindMoonPhase }
func (MoonPhaseStrategy) Role() string  { return RoleMoonPhase }

func (MoonPhaseStrategy) Tags(job *Job) MessageTags {
	return MessageTags{MoonPhase: NormalizeMoonPhase(job.MoonPhase)}
}

func (s MoonPhaseStrategy) BuildPrompt(_ context.Context, uctx *UserContext, job *Job) (string, string, []ChatTurn, error) {
	if !uctx.Astrology.Complete() {
		return "", "", nil, ErrAstrologyDataMissing
	}
	phase := s.Tags(job).MoonPhase

	system := OracleSystemPrompt(uctx.Temporary, uctx.OracleLanguage) + "\n\n" + CombinedContext(uctx) + fmt.Sprintf(`
SPECIAL REQUEST - MOON PHASE INSIGHT:
Generate a brief, personalized insight about how the current %s moon phase affects %s based on their birth chart.
Consider their Sun sign (core identity), Moon sign (emotional nature), and Rising sign (how they present to the world).
Keep it concise and practical.
Focus on how this specific phase influences them emotionally and spiritually.
Do NOT include tarot cards - this is purely lunar and astrological insight.
`, phase, uctx.Greeting())

	astro := uctx.Astrology
	var b strings.Builder
	fmt.Fprintf(&b, "Generate personalized insight for %s about the %s moon phase:\n\n", uctx.Greeting(), phase)
	fmt.Fprintf(&b, "Birth Chart:\n")
	fmt.Fprintf(&b, "- Sun Sign: %s (%.1f°) - Core Identity & Will\n", astro.SunSign, astro.SunDegree)
	fmt.Fprintf(&b, "- Moon Sign: %s (%.1f°) - Inner Emotional World\n", astro.MoonSign, astro.MoonDegree)
	fmt.Fprintf(&b, "- Rising Sign: %s (%.1f°) - Outward Personality\n\n", astro.RisingSign, astro.RisingDegree)
	fmt.Fprintf(&b, "Current Lunar Phase: %s\n\n", phase)
	b.WriteString("Consider:\n")
	b.WriteString("- How does this moon phase interact with their Moon sign (emotional response)?\n")
	b.WriteString("- How does it influence their Sun sign (core drive and identity)?\n")
	b.WriteString("- What does their Rising sign need during this phase?\n")
	b.WriteString("- Practical guidance for working with this lunar energy\n\n")
	b.WriteString("Keep the insight personal, brief, and actionable.")

	return system, b.String(), nil, nil
}
