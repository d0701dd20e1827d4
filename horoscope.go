package oracleworker

import (
	"context"
	"fmt"
	"strings"
)

// HoroscopeStrategy generates daily and weekly horoscopes. Each range
// is its own idempotency key: a daily horoscope never satisfies the
// guard for a weekly one.
type HoroscopeStrategy struct{}

func (HoroscopeStrategy) Kind() JobKind { return JobKindHoroscope }
func (HoroscopeStrategy) Role() string  { return RoleHoroscope }

func (HoroscopeStrategy) Tags(job *Job) MessageTags {
	r := job.HoroscopeRange
	if r == "" {
		r = HoroscopeRangeDaily
	}
	return MessageTags{HoroscopeRange: r}
}

func (s HoroscopeStrategy) BuildPrompt(_ context.Context, uctx *UserContext, job *Job) (string, string, []ChatTurn, error) {
	if !uctx.Astrology.Complete() {
		return "", "", nil, ErrAstrologyDataMissing
	}
	r := s.Tags(job).HoroscopeRange

	system := OracleSystemPrompt(uctx.Temporary, uctx.OracleLanguage) + "\n\n" + CombinedContext(uctx) + fmt.Sprintf(`
SPECIAL REQUEST - HOROSCOPE GENERATION:
Generate a rich, personalized %s horoscope addressing the user as "Dear %s" based on their birth chart and current cosmic energy.
Reference their Sun sign (core identity), Moon sign (emotional nature), and Rising sign (how they appear to the world).
Focus on practical guidance blended with cosmic timing.
Include crystal recommendations aligned with their chart and this %s period.
Do NOT include tarot cards in this response - this is purely astrological guidance enriched by their unique birth chart.
`, r, uctx.Greeting(), r)

	return system, buildHoroscopePrompt(uctx, r), nil, nil
}

func buildHoroscopePrompt(uctx *UserContext, r string) string {
	astro := uctx.Astrology
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a personalized %s horoscope for %s:\n\n", r, uctx.Greeting())
	fmt.Fprintf(&b, "Birth Chart:\n")
	fmt.Fprintf(&b, "- Sun Sign: %s (%.1f°) - Core Identity\n", astro.SunSign, astro.SunDegree)
	fmt.Fprintf(&b, "- Moon Sign: %s (%.1f°) - Emotional Nature\n", astro.MoonSign, astro.MoonDegree)
	fmt.Fprintf(&b, "- Rising Sign: %s (%.1f°) - Outward Presentation\n", astro.RisingSign, astro.RisingDegree)
	if uctx.Birth.City != "" {
		fmt.Fprintf(&b, "- Birth Location: %s, %s, %s\n", uctx.Birth.City, uctx.Birth.Province, uctx.Birth.Country)
	}

	fmt.Fprintf(&b, "\nFor the %s, consider:\n", r)
	switch r {
	case HoroscopeRangeWeekly:
		b.WriteString("- What themes are emerging THIS WEEK?\n")
		b.WriteString("- How do current planetary positions affect their trajectory?\n")
		b.WriteString("- What should they focus on or prepare for?\n")
	default:
		b.WriteString("- What energies are prominent TODAY for this person?\n")
		b.WriteString("- What actions or reflections would be most valuable right now?\n")
		b.WriteString("- What crystals or practices would support them today?\n")
	}
	b.WriteString("\nProvide practical, personalized guidance that honors their unique birth chart.")
	return b.String()
}
