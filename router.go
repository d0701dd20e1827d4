package oracleworker

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// contextCacheTTL bounds how long a resolved user context is reused.
// Kept short: suspension and astrology state must not go stale across
// jobs for long.
const contextCacheTTL = time.Minute

// Router classifies jobs, runs the moderation gate and dispatches to
// the matching generator. The moderation chain for chat jobs is:
// account-status gate, pending-redemption sweep, violation detection,
// enforcement. System-directive jobs are not user-authored free text
// and bypass moderation entirely.
type Router struct {
	users       UserDirectory
	charts      ChartService
	messages    MessageStore
	violations  ViolationStore
	enforcement *EnforcementEngine
	redemption  *RedemptionManager
	generator   *ContentGenerator
	notifier    ReadyNotifier
	strategies  map[JobKind]GeneratorStrategy
	contexts    *cache.Cache
	now         func() time.Time
	log         *logrus.Entry
}

// NewRouter wires the router and registers the generator strategies.
func NewRouter(
	users UserDirectory,
	charts ChartService,
	messages MessageStore,
	violations ViolationStore,
	generator *ContentGenerator,
	notifier ReadyNotifier,
) *Router {
	enforcement := NewEnforcementEngine(violations, users)
	r := &Router{
		users:       users,
		charts:      charts,
		messages:    messages,
		violations:  violations,
		enforcement: enforcement,
		redemption:  NewRedemptionManager(violations),
		generator:   generator,
		notifier:    notifier,
		strategies:  make(map[JobKind]GeneratorStrategy),
		contexts:    cache.New(contextCacheTTL, 5*time.Minute),
		now:         time.Now,
		log:         logrus.WithField("component", "router"),
	}
	for _, strat := range []GeneratorStrategy{
		ChatStrategy{Messages: messages, Enforcement: enforcement},
		HoroscopeStrategy{},
		MoonPhaseStrategy{},
		LunarNodesStrategy{},
		CosmicWeatherStrategy{Charts: charts},
	} {
		r.strategies[strat.Kind()] = strat
	}
	return r
}

// Route processes one job end to end. A moderation block is a
// successful outcome, not an error; errors mean the job failed and is
// dropped.
func (r *Router) Route(ctx context.Context, job *Job) error {
	uctx, err := r.resolveContext(ctx, job.UserID)
	if err != nil {
		return err
	}
	log := r.log.WithFields(logrus.Fields{"kind": job.Kind})

	if !uctx.Temporary {
		blocked, response, err := r.accountGate(ctx, uctx)
		if err != nil {
			return err
		}
		if blocked {
			log.Info("job blocked by account status")
			r.deliverBlockingResponse(ctx, uctx, response)
			return nil
		}
	}

	kind := job.Kind
	if kind == JobKindChat {
		r.storeUserMessage(ctx, uctx, job.Message)

		// Lazy chart calculation runs before the moderation chain, so
		// a blocked message still leaves the chart in place. Best
		// effort: chat proceeds without astrology context on failure.
		if !uctx.Astrology.Complete() && uctx.Birth.Complete() {
			if err := r.computeAndStoreChart(ctx, uctx); err != nil {
				log.WithError(err).Warn("lazy chart calculation failed, continuing without astrology")
			}
		}

		// Stale warnings lift before detection so a cooled-off user
		// is judged clean.
		r.redemption.ApplyPendingRedemptions(ctx, uctx.IDHash)

		if match := DetectViolation(job.Message); match != nil {
			decision, err := r.enforcement.Enforce(ctx, uctx, match, job.Message)
			if err != nil {
				return err
			}
			r.contexts.Delete(uctx.UserID)
			log.WithFields(logrus.Fields{
				"action": decision.Action,
				"type":   match.Type,
			}).Info("moderation gate blocked job")
			r.deliverBlockingResponse(ctx, uctx, decision.Response)
			return nil
		}

		if inline := DetectInlineRequest(job.Message); inline != JobKindChat {
			log.WithField("inline_kind", inline).Info("chat message re-dispatched as content request")
			kind = inline
		}
	}

	switch kind {
	case JobKindAstrologyCalc:
		return r.computeAndStoreChart(ctx, uctx)
	default:
		strat, ok := r.strategies[kind]
		if !ok {
			return errors.Wrapf(ErrMalformedJob, "no generator for kind %q", kind)
		}
		if err := r.generator.Generate(ctx, strat, uctx, job); err != nil {
			if kind == JobKindChat {
				// Internal detail never reaches the user.
				r.deliverBlockingResponse(ctx, uctx, genericFailureResponse)
			}
			return err
		}
		return nil
	}
}

// resolveContext fetches the user context with a short TTL cache in
// front of the directory.
func (r *Router) resolveContext(ctx context.Context, userID string) (*UserContext, error) {
	if cached, ok := r.contexts.Get(userID); ok {
		return cached.(*UserContext), nil
	}
	uctx, err := r.users.Resolve(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "resolving user context")
	}
	r.contexts.SetDefault(userID, uctx)
	return uctx, nil
}

// accountGate enforces terminal and time-boxed account blocks. A
// suspension whose end has passed lifts lazily here, on the next job.
func (r *Router) accountGate(ctx context.Context, uctx *UserContext) (bool, string, error) {
	disabled, err := r.violations.Disabled(ctx, uctx.IDHash)
	if err != nil {
		return false, "", errors.Wrap(err, "checking disabled flag")
	}
	if disabled {
		return true, disabledAccountResponse, nil
	}

	if uctx.Suspended {
		if uctx.SuspensionEnd != nil && r.now().After(*uctx.SuspensionEnd) {
			if err := r.users.LiftSuspension(ctx, uctx.UserID); err != nil {
				return false, "", errors.Wrap(err, "lifting expired suspension")
			}
			uctx.Suspended = false
			uctx.SuspensionEnd = nil
			r.contexts.Delete(uctx.UserID)
			r.log.Info("expired suspension lifted")
			return false, "", nil
		}
		return true, suspendedAccountResponse, nil
	}
	return false, "", nil
}

// deliverBlockingResponse stores a gate or failure reply as the chat
// answer and notifies. Best effort: the decision itself already stands.
func (r *Router) deliverBlockingResponse(ctx context.Context, uctx *UserContext, response string) {
	msg := &StoredMessage{
		UserIDHash:         uctx.IDHash,
		Role:               RoleChat,
		ContentFull:        response,
		ContentBrief:       response,
		CreatedAt:          r.now(),
		CreatedAtLocalDate: LocalDateForTimezone(r.now(), uctx.Timezone),
	}
	if err := r.messages.Append(ctx, msg); err != nil {
		r.log.WithError(err).Warn("failed to store blocking response")
		return
	}
	r.notifier.NotifyReady(ctx, uctx.IDHash, RoleChat)
}

// storeUserMessage appends the incoming chat turn so history replay
// sees both sides of the dialogue.
func (r *Router) storeUserMessage(ctx context.Context, uctx *UserContext, message string) {
	msg := &StoredMessage{
		UserIDHash:         uctx.IDHash,
		Role:               RoleUser,
		ContentFull:        message,
		ContentBrief:       message,
		CreatedAt:          r.now(),
		CreatedAtLocalDate: LocalDateForTimezone(r.now(), uctx.Timezone),
	}
	if err := r.messages.Append(ctx, msg); err != nil {
		r.log.WithError(err).Warn("failed to store user message")
	}
}

// computeAndStoreChart runs the external chart calculation and persists
// the snapshot. Incomplete results are an error; callers on the lazy
// path tolerate it, the astrology-calc job surfaces it.
func (r *Router) computeAndStoreChart(ctx context.Context, uctx *UserContext) error {
	if !uctx.Birth.Complete() {
		return ErrAstrologyDataMissing
	}
	result, err := r.charts.ComputeChart(ctx, uctx.Birth)
	if err != nil {
		return errors.Wrap(err, "chart calculation")
	}
	if !result.Success || !result.AstrologySnapshot.Complete() {
		return errors.Errorf("chart calculation incomplete: %s", result.Error)
	}

	snap := result.AstrologySnapshot
	snap.CalculatedAt = r.now()
	if err := r.users.SaveAstrology(ctx, uctx.UserID, &snap); err != nil {
		return errors.Wrap(err, "persisting astrology snapshot")
	}
	uctx.Astrology = &snap
	r.contexts.Delete(uctx.UserID)
	return nil
}
