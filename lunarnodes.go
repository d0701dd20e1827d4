package oracleworker

import (
	"context"
	"fmt"
	"strings"
)

// LunarNodesStrategy generates an insight on the user's karmic axis:
// the north node (soul direction) and its opposite south node (familiar
// patterns), read from the natal snapshot.
type LunarNodesStrategy struct{}

func (LunarNodesStrategy) Kind() JobKind         { return JobKindLunarNodes }
func (LunarNodesStrategy) Role() string          { return RoleLunarNodes }
func (LunarNodesStrategy) Tags(*Job) MessageTags { return MessageTags{} }

// oppositeSigns pairs each sign with the one opposing it on the wheel,
// used to derive the south node from the stored north node.
var oppositeSigns = map[string]string{
	"Aries": "Libra", "Libra": "Aries",
	"Taurus": "Scorpio", "Scorpio": "Taurus",
	"Gemini": "Sagittarius", "Sagittarius": "Gemini",
	"Cancer": "Capricorn", "Capricorn": "Cancer",
	"Leo": "Aquarius", "Aquarius": "Leo",
	"Virgo": "Pisces", "Pisces": "Virgo",
}

func (LunarNodesStrategy) BuildPrompt(_ context.Context, uctx *UserContext, _ *Job) (string, string, []ChatTurn, error) {
	if !uctx.Astrology.Complete() {
		return "", "", nil, ErrAstrologyDataMissing
	}
	astro := uctx.Astrology

	system := OracleSystemPrompt(uctx.Temporary, uctx.OracleLanguage) + "\n\n" + CombinedContext(uctx) + fmt.Sprintf(`
SPECIAL REQUEST - LUNAR NODES INSIGHT:
Generate a personalized insight for %s about their lunar nodes - the karmic axis of their birth chart.
The north node shows the soul's growth direction; the south node shows familiar patterns to release.
Connect the node placements to their Sun, Moon, and Rising signs.
Keep it reflective and practical: what to lean into, what to let go of.
Do NOT include tarot cards - this is purely karmic astrology.
`, uctx.Greeting())

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a lunar nodes insight for %s:\n\n", uctx.Greeting())
	if astro.NorthNodeSign != "" {
		fmt.Fprintf(&b, "- North Node: %s (%.1f°) - Soul Direction\n", astro.NorthNodeSign, astro.NorthNodeDegree)
		if south, ok := oppositeSigns[astro.NorthNodeSign]; ok {
			fmt.Fprintf(&b, "- South Node: %s - Patterns to Release\n", south)
		}
	} else {
		b.WriteString("- Node placements not calculated; derive themes from the core chart below\n")
	}
	fmt.Fprintf(&b, "- Sun Sign: %s (%.1f°)\n", astro.SunSign, astro.SunDegree)
	fmt.Fprintf(&b, "- Moon Sign: %s (%.1f°)\n", astro.MoonSign, astro.MoonDegree)
	fmt.Fprintf(&b, "- Rising Sign: %s (%.1f°)\n\n", astro.RisingSign, astro.RisingDegree)
	b.WriteString("Explore what their node axis asks of them right now, in this season of their life.")

	return system, b.String(), nil, nil
}
