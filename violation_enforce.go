package oracleworker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EnforcementAction is the tier applied to a violating message.
type EnforcementAction string

const (
	ActionWarning     EnforcementAction = "WARNING"
	ActionSuspended   EnforcementAction = "SUSPENDED_7_DAYS"
	ActionDisabled    EnforcementAction = "ACCOUNT_DISABLED_PERMANENT"
	ActionTempDeleted EnforcementAction = "TEMP_ACCOUNT_DELETED"
)

// suspensionDuration is the fixed second-tier suspension window.
const suspensionDuration = 7 * 24 * time.Hour

// EnforcementDecision is derived fresh from the violation history on
// every violating message; it is never persisted itself.
type EnforcementDecision struct {
	Action         EnforcementAction
	ViolationCount int
	Response       string
	SuspensionEnd  *time.Time
}

// EnforcementEngine runs the per-(user, violation type) counter machine:
// CLEAN -> WARNED (count 1) -> SUSPENDED (count 2) -> DISABLED (count 3+,
// terminal). Counters are independent across types; a user can be warned
// for abusive language while clean for everything else. Temporary
// accounts get no tiers: any enforced violation deletes the account.
type EnforcementEngine struct {
	violations ViolationStore
	users      UserDirectory
	now        func() time.Time
	log        *logrus.Entry
}

// NewEnforcementEngine wires the engine to its stores.
func NewEnforcementEngine(violations ViolationStore, users UserDirectory) *EnforcementEngine {
	return &EnforcementEngine{
		violations: violations,
		users:      users,
		now:        time.Now,
		log:        logrus.WithField("component", "enforcement"),
	}
}

// Enforce records the violation and returns the action to apply. The
// count increment is read-then-write rather than assumed race-free:
// multiple consumer processes may serve the same queue.
func (e *EnforcementEngine) Enforce(ctx context.Context, uctx *UserContext, match *ViolationMatch, message string) (*EnforcementDecision, error) {
	prev, err := e.violations.Latest(ctx, uctx.IDHash, match.Type)
	if err != nil {
		return nil, errors.Wrap(err, "reading violation history")
	}
	count := 1
	if prev != nil {
		count = prev.Count + 1
	}

	rec := &ViolationRecord{
		UserIDHash:      uctx.IDHash,
		Type:            match.Type,
		Count:           count,
		Message:         TruncateViolationMessage(message),
		Severity:        match.Severity,
		LastViolationAt: e.now(),
	}
	if err := e.violations.Append(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "recording violation")
	}
	violationsRecorded.WithLabelValues(string(match.Type)).Inc()

	e.log.WithFields(logrus.Fields{
		"type":  match.Type,
		"count": count,
	}).Info("violation recorded")

	decision, err := e.decide(ctx, uctx, match.Type, count)
	if err != nil {
		return nil, err
	}
	if match.Type == ViolationSelfHarm {
		// Crisis resources always lead the reply.
		decision.Response = SelfHarmHotlineResponse() + "\n\n" + decision.Response
	}
	return decision, nil
}

func (e *EnforcementEngine) decide(ctx context.Context, uctx *UserContext, vtype ViolationType, count int) (*EnforcementDecision, error) {
	if uctx.Temporary {
		// Zero tolerance: no warning tier for trial accounts.
		if err := e.users.DeleteTemporary(ctx, uctx.UserID); err != nil {
			e.log.WithError(err).Warn("failed to delete temporary account")
		}
		return &EnforcementDecision{
			Action:         ActionTempDeleted,
			ViolationCount: count,
			Response:       TempAccountViolationResponse(vtype),
		}, nil
	}

	switch {
	case count <= 1:
		response := WarningResponse(vtype)
		if p := PolicyFor(vtype); p != nil && p.Redemption.Redeemable {
			response += RedemptionPathMessage(vtype)
		}
		return &EnforcementDecision{
			Action:         ActionWarning,
			ViolationCount: count,
			Response:       response,
		}, nil

	case count == 2:
		end := e.now().Add(suspensionDuration)
		if err := e.users.SetSuspension(ctx, uctx.UserID, end); err != nil {
			return nil, errors.Wrap(err, "setting suspension")
		}
		return &EnforcementDecision{
			Action:         ActionSuspended,
			ViolationCount: count,
			Response:       SuspensionResponse(vtype),
			SuspensionEnd:  &end,
		}, nil

	default:
		// Terminal. Re-disabling an already disabled account is a
		// no-op; the reported action stays DISABLED forever.
		if err := e.violations.DisableAccount(ctx, uctx.IDHash); err != nil {
			return nil, errors.Wrap(err, "disabling account")
		}
		return &EnforcementDecision{
			Action:         ActionDisabled,
			ViolationCount: count,
			Response:       PermanentBanResponse(vtype),
		}, nil
	}
}

// RecordComplianceOnly appends an informational violation row with no
// enforcement. Used when the oracle's reply shows it deflected a
// medical question or offered crisis resources unprompted.
func (e *EnforcementEngine) RecordComplianceOnly(ctx context.Context, userIDHash string, vtype ViolationType, message string) {
	rec := &ViolationRecord{
		UserIDHash:      userIDHash,
		Type:            vtype,
		Count:           1,
		Message:         TruncateViolationMessage(message),
		Severity:        SeverityInfo,
		LastViolationAt: e.now(),
	}
	if err := e.violations.Append(ctx, rec); err != nil {
		e.log.WithError(err).Warn("failed to record compliance violation")
	}
}
