package oracleworker

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// CosmicWeatherStrategy generates a daily forecast from the current
// transiting planet positions, read live from the chart service, laid
// over the user's natal chart.
type CosmicWeatherStrategy struct {
	Charts ChartService
}

func (CosmicWeatherStrategy) Kind() JobKind         { return JobKindCosmicWeather }
func (CosmicWeatherStrategy) Role() string          { return RoleCosmicWeather }
func (CosmicWeatherStrategy) Tags(*Job) MessageTags { return MessageTags{} }

func (s CosmicWeatherStrategy) BuildPrompt(ctx context.Context, uctx *UserContext, _ *Job) (string, string, []ChatTurn, error) {
	if !uctx.Astrology.Complete() {
		return "", "", nil, ErrAstrologyDataMissing
	}
	planets, err := s.Charts.CurrentPlanets(ctx)
	if err != nil {
		return "", "", nil, errors.Wrap(err, "fetching current planets")
	}

	system := OracleSystemPrompt(uctx.Temporary, uctx.OracleLanguage) + "\n\n" + CombinedContext(uctx) + fmt.Sprintf(`
SPECIAL REQUEST - COSMIC WEATHER:
Generate today's cosmic weather for %s using their complete birth chart and current planetary alignments.
Reference their Sun sign (identity), Moon sign (emotions), and Rising sign (presentation).
Incorporate how today's planetary movements interact with their natal chart.
Include retrograde effects if any planets are retrograde.
Provide practical guidance for working with today's cosmic energies, with crystal or ritual recommendations.
Focus on TODAY's energies with specific, personal insight.
Do NOT include tarot cards - this is pure astrological forecasting enriched by their unique birth chart.
`, uctx.Greeting())

	return system, buildCosmicWeatherPrompt(uctx, planets), nil, nil
}

func buildCosmicWeatherPrompt(uctx *UserContext, planets []PlanetPosition) string {
	astro := uctx.Astrology
	var b strings.Builder
	fmt.Fprintf(&b, "Generate today's comprehensive cosmic weather for %s:\n\n", uctx.Greeting())

	b.WriteString("COMPLETE BIRTH CHART:\n")
	fmt.Fprintf(&b, "- Sun Sign: %s (%.1f°) - Core Identity, Life Purpose\n", astro.SunSign, astro.SunDegree)
	fmt.Fprintf(&b, "- Moon Sign: %s (%.1f°) - Inner Emotional World\n", astro.MoonSign, astro.MoonDegree)
	fmt.Fprintf(&b, "- Rising Sign: %s (%.1f°) - Personal Magnetism\n", astro.RisingSign, astro.RisingDegree)
	if astro.VenusSign != "" {
		fmt.Fprintf(&b, "- Venus Sign: %s (%.1f°) - Love, Values, Attraction\n", astro.VenusSign, astro.VenusDegree)
	}
	if astro.MarsSign != "" {
		fmt.Fprintf(&b, "- Mars Sign: %s (%.1f°) - Action, Drive, Passion\n", astro.MarsSign, astro.MarsDegree)
	}
	if astro.MercurySign != "" {
		fmt.Fprintf(&b, "- Mercury Sign: %s (%.1f°) - Communication, Thinking Style\n", astro.MercurySign, astro.MercuryDegree)
	}

	b.WriteString("\nTODAY'S CALCULATED PLANETARY POSITIONS:\n")
	for _, p := range planets {
		retro := ""
		if p.Retrograde {
			retro = " RETROGRADE"
		}
		icon := p.Icon
		if icon != "" {
			icon += " "
		}
		fmt.Fprintf(&b, "- %s%s at %.1f° in %s%s\n", icon, p.Name, p.Degree, p.Sign, retro)
	}

	b.WriteString("\nIdentify which life areas (relationships, career, health, creativity, spirituality) are most activated by today's transits.\n")
	b.WriteString("Show how today's transits either support or challenge their natal chart strengths.")
	return b.String()
}
