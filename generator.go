package oracleworker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// GeneratorStrategy parameterizes the one generic content generator per
// content kind: which role it stores under, which idempotency tags it
// carries, and how its prompt is built.
type GeneratorStrategy interface {
	Kind() JobKind
	// Role is the storage role and regeneration-guard key.
	Role() string
	// Tags returns the kind-specific idempotency tags for a job.
	Tags(job *Job) MessageTags
	// BuildPrompt assembles the system prompt, user prompt and any
	// replayed history. Returns ErrAstrologyDataMissing and friends
	// for permanent data insufficiency.
	BuildPrompt(ctx context.Context, uctx *UserContext, job *Job) (system, user string, history []ChatTurn, err error)
}

// responseProcessor is implemented by strategies that post-process the
// oracle's reply before storage (chat: card extraction, compliance
// logging).
type responseProcessor interface {
	ProcessResponse(ctx context.Context, uctx *UserContext, pair ContentPair) ContentPair
}

// ContentGenerator runs the shared pipeline: regeneration guard, one
// oracle call producing both granularities, best-effort translation,
// one store append, one ready notification.
type ContentGenerator struct {
	oracle     Oracle
	messages   MessageStore
	translator *TranslationAdapter
	notifier   ReadyNotifier
	now        func() time.Time
	log        *logrus.Entry
}

// NewContentGenerator wires the pipeline to its collaborators.
func NewContentGenerator(oracle Oracle, messages MessageStore, translator *TranslationAdapter, notifier ReadyNotifier) *ContentGenerator {
	return &ContentGenerator{
		oracle:     oracle,
		messages:   messages,
		translator: translator,
		notifier:   notifier,
		now:        time.Now,
		log:        logrus.WithField("component", "generator"),
	}
}

// Generate produces and stores content for one job. The regeneration
// guard runs before any external call: content still fresh for the
// user's local day costs no oracle or translation traffic. Chat is
// exempt — every chat message deserves a reply.
func (g *ContentGenerator) Generate(ctx context.Context, strat GeneratorStrategy, uctx *UserContext, job *Job) error {
	role := strat.Role()
	tags := strat.Tags(job)
	today := LocalDateForTimezone(g.now(), uctx.Timezone)

	if strat.Kind() != JobKindChat {
		prev, err := g.messages.Latest(ctx, uctx.IDHash, role, tags)
		if err != nil {
			return errors.Wrap(err, "checking existing content")
		}
		if prev != nil && !NeedsRegeneration(prev.CreatedAtLocalDate, today) {
			generationsSkipped.WithLabelValues(role).Inc()
			g.log.WithFields(logrus.Fields{
				"role":       role,
				"local_date": today,
			}).Debug("content still fresh, skipping generation")
			return nil
		}
	}

	system, user, history, err := strat.BuildPrompt(ctx, uctx, job)
	if err != nil {
		return err
	}

	pair, err := g.oracle.Generate(ctx, system, history, user)
	if err != nil {
		return errors.Wrap(err, "oracle generation")
	}
	if proc, ok := strat.(responseProcessor); ok {
		pair = proc.ProcessResponse(ctx, uctx, pair)
	}

	msg := &StoredMessage{
		UserIDHash:         uctx.IDHash,
		Role:               role,
		ContentFull:        pair.Full,
		ContentBrief:       pair.Brief,
		HoroscopeRange:     tags.HoroscopeRange,
		MoonPhase:          tags.MoonPhase,
		CreatedAt:          g.now(),
		CreatedAtLocalDate: today,
	}
	if !BaselineLanguage(uctx.Language) {
		if strat.Kind() != JobKindChat {
			g.storeTranslatingNotice(ctx, uctx, today)
		}
		localized, _ := g.translator.TranslatePair(ctx, pair, uctx.Language)
		msg.LanguageCode = uctx.Language
		msg.ContentFullLocalized = localized.Full
		msg.ContentBriefLocalized = localized.Brief
	}

	if err := g.messages.Append(ctx, msg); err != nil {
		return errors.Wrap(err, "storing generated content")
	}
	g.notifier.NotifyReady(ctx, uctx.IDHash, role)
	return nil
}

// storeTranslatingNotice appends the placeholder row clients show while
// the localized pair is produced. Best effort: the content row follows
// either way and supersedes it.
func (g *ContentGenerator) storeTranslatingNotice(ctx context.Context, uctx *UserContext, today string) {
	notice := &StoredMessage{
		UserIDHash:         uctx.IDHash,
		Role:               RoleTranslating,
		ContentFull:        "I am now translating your reading...",
		ContentBrief:       "Translating...",
		CreatedAt:          g.now(),
		CreatedAtLocalDate: today,
	}
	if err := g.messages.Append(ctx, notice); err != nil {
		g.log.WithError(err).Warn("failed to store translating notice")
		return
	}
	g.notifier.NotifyReady(ctx, uctx.IDHash, RoleTranslating)
}
