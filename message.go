package oracleworker

import (
	"context"
	"time"
)

// Message roles. Generated content is stored under the role matching its
// content kind; chat turns use RoleUser/RoleChat so history replay can
// filter out the non-conversational rows.
const (
	RoleUser          = "user"
	RoleChat          = "chat"
	RoleHoroscope     = "horoscope"
	RoleMoonPhase     = "moon_phase"
	RoleLunarNodes    = "lunar_nodes"
	RoleCosmicWeather = "cosmic_weather"
	RoleTranslating   = "system_translating"
)

// chatHistoryRoles are the only roles replayed as oracle conversation
// history. Generated content rows (horoscopes etc.) are not dialogue.
var chatHistoryRoles = map[string]bool{
	RoleUser: true,
	RoleChat: true,
}

// MessageTags are the kind-specific idempotency tags: a daily and a
// weekly horoscope generated on the same local day are distinct rows,
// as are insights for two different moon phases.
type MessageTags struct {
	HoroscopeRange string
	MoonPhase      string
}

// StoredMessage is one append-only row of generated content. Rows are
// never mutated; a newer local date supersedes, never replaces.
type StoredMessage struct {
	UserIDHash   string
	Role         string
	ContentFull  string
	ContentBrief string
	// LanguageCode is empty for the English baseline. The localized
	// pair is populated only when LanguageCode is set.
	LanguageCode          string
	ContentFullLocalized  string
	ContentBriefLocalized string
	HoroscopeRange        string
	MoonPhase             string
	CreatedAt             time.Time
	// CreatedAtLocalDate is the generator's notion of "today" in the
	// user's timezone, the key the regeneration guard compares.
	CreatedAtLocalDate string
}

// MessageStore persists generated content keyed by hashed user id.
type MessageStore interface {
	// Append writes one immutable row.
	Append(ctx context.Context, msg *StoredMessage) error
	// Latest returns the most recent row for (user, role, tags), or
	// nil when none exists.
	Latest(ctx context.Context, userIDHash, role string, tags MessageTags) (*StoredMessage, error)
	// History returns the most recent rows for a user in
	// chronological order, all roles included.
	History(ctx context.Context, userIDHash string, limit int) ([]StoredMessage, error)
}

// ChatHistory filters stored rows down to replayable oracle dialogue.
func ChatHistory(msgs []StoredMessage) []ChatTurn {
	turns := make([]ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		if !chatHistoryRoles[m.Role] {
			continue
		}
		role := "assistant"
		if m.Role == RoleUser {
			role = "user"
		}
		turns = append(turns, ChatTurn{Role: role, Content: m.ContentFull})
	}
	return turns
}
