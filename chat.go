package oracleworker

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// defaultHistoryLimit bounds how many stored rows feed chat history.
const defaultHistoryLimit = 30

// ChatStrategy answers free-text messages. Unlike the calendar-keyed
// kinds it always generates; idempotency comes from the queue, not the
// regeneration guard. It replays recent dialogue, extracts tarot card
// references from the reply for structured display, and records
// compliance-only violation rows when the oracle's reply shows it
// deflected a medical question or offered crisis resources.
type ChatStrategy struct {
	Messages     MessageStore
	Enforcement  *EnforcementEngine
	HistoryLimit int
}

func (ChatStrategy) Kind() JobKind         { return JobKindChat }
func (ChatStrategy) Role() string          { return RoleChat }
func (ChatStrategy) Tags(*Job) MessageTags { return MessageTags{} }

func (s ChatStrategy) BuildPrompt(ctx context.Context, uctx *UserContext, job *Job) (string, string, []ChatTurn, error) {
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.Messages.History(ctx, uctx.IDHash, limit)
	if err != nil {
		return "", "", nil, errors.Wrap(err, "loading chat history")
	}

	system := OracleSystemPrompt(uctx.Temporary, uctx.OracleLanguage) + "\n\n" + CombinedContext(uctx)
	return system, job.Message, ChatHistory(rows), nil
}

// ProcessResponse attaches extracted card references and logs
// compliance signals. It never fails the generation.
func (s ChatStrategy) ProcessResponse(ctx context.Context, uctx *UserContext, pair ContentPair) ContentPair {
	if s.Enforcement != nil {
		if detectHealthRefusal(pair.Full) {
			s.Enforcement.RecordComplianceOnly(ctx, uctx.IDHash, ViolationHealthAdvice, pair.Full)
		} else if detectCrisisSupport(pair.Full) {
			// The oracle offered crisis resources unprompted; logged
			// for monitoring, never enforced.
			s.Enforcement.RecordComplianceOnly(ctx, uctx.IDHash, ViolationSelfHarm, pair.Full)
		}
	}

	cards := ExtractCards(pair.Full)
	if len(cards) > 0 {
		logrus.WithField("component", "chat").
			WithField("cards", len(cards)).
			Debug("tarot cards extracted from reading")
	}
	return ContentPair{
		Full:  AppendCardBlock(pair.Full, cards),
		Brief: AppendCardBlock(pair.Brief, cards),
	}
}

// Refusal phrase vocabularies. These inspect the oracle's reply, not
// the user's message, so substring matching is acceptable here.

var healthRefusalPhrases = []string{
	"can't provide medical", "cannot provide medical",
	"can't offer medical", "cannot offer medical",
	"consult a healthcare", "consult a doctor",
	"seek medical", "see a doctor",
	"medical professional", "healthcare professional",
	"not a medical", "not qualified to provide medical",
}

var crisisSupportPhrases = []string{
	"988", "national suicide prevention", "crisis helpline",
	"suicide prevention lifeline", "crisis text line",
	"you are not alone", "reach out for support",
	"talk to someone who can help",
}

func detectHealthRefusal(response string) bool {
	lower := strings.ToLower(response)
	for _, p := range healthRefusalPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func detectCrisisSupport(response string) bool {
	lower := strings.ToLower(response)
	for _, p := range crisisSupportPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Inline content requests: a user can ask for a horoscope or forecast
// in plain chat; the router re-dispatches those to the matching
// generator instead of paying for a free-form reading.

var inlineRequestKinds = []struct {
	kind     JobKind
	keywords []string
}{
	{JobKindHoroscope, []string{"horoscope", "daily reading", "weekly reading", "what's my horoscope"}},
	{JobKindMoonPhase, []string{"moon phase", "lunar phase", "current moon", "lunar energy"}},
	{JobKindCosmicWeather, []string{"cosmic weather", "planetary energy", "planet positions"}},
}

// DetectInlineRequest classifies a chat message that is really a
// content request. Returns JobKindChat when it is ordinary dialogue.
func DetectInlineRequest(message string) JobKind {
	lower := strings.ToLower(message)
	for _, entry := range inlineRequestKinds {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.kind
			}
		}
	}
	return JobKindChat
}
