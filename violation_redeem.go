package oracleworker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RedemptionCheck is the outcome of a redemption eligibility test.
type RedemptionCheck struct {
	CanRedeem bool
	Reason    string
	// HoursRemaining is set when the only obstacle is an active
	// cooling-off period.
	HoursRemaining int
}

// RedemptionManager grants time-gated forgiveness: a violation counter
// returns to zero automatically once its cooling-off period passes with
// no new infractions. Consulted before detection on every chat job so a
// stale warning cannot block an otherwise clean user indefinitely.
//
// Only two types are redeemable (policy table in violation.go):
// abusive language after 24 hours, unlimited times; sexual content
// after 7 days, first offense only. Self-harm and harm-to-others never
// redeem.
type RedemptionManager struct {
	violations ViolationStore
	now        func() time.Time
	log        *logrus.Entry
}

// NewRedemptionManager wires the manager to the violation store.
func NewRedemptionManager(violations ViolationStore) *RedemptionManager {
	return &RedemptionManager{
		violations: violations,
		now:        time.Now,
		log:        logrus.WithField("component", "redemption"),
	}
}

// CheckRedemption tests whether the latest violation of a type is
// eligible for reset. It never mutates state.
func (r *RedemptionManager) CheckRedemption(ctx context.Context, userIDHash string, vtype ViolationType) (RedemptionCheck, error) {
	policy := PolicyFor(vtype)
	if policy == nil || !policy.Redemption.Redeemable {
		return RedemptionCheck{Reason: fmt.Sprintf("%s cannot be redeemed", vtype)}, nil
	}

	rec, err := r.violations.Latest(ctx, userIDHash, vtype)
	if err != nil {
		return RedemptionCheck{}, errors.Wrap(err, "reading violation record")
	}
	if rec == nil || rec.Count == 0 {
		return RedemptionCheck{Reason: "no active violation to redeem"}, nil
	}

	if rec.RedeemedAt != nil && policy.Redemption.MaxRedemptions == 1 {
		return RedemptionCheck{Reason: "maximum redemptions reached (first offense only)"}, nil
	}
	if policy.Redemption.MaxRedemptions == 1 && rec.Count > 1 {
		return RedemptionCheck{Reason: fmt.Sprintf("only the first %s offense can be redeemed", vtype)}, nil
	}

	elapsed := r.now().Sub(rec.LastViolationAt).Hours()
	cooling := float64(policy.Redemption.CoolingHours)
	if elapsed < cooling {
		remaining := int(math.Ceil(cooling - elapsed))
		return RedemptionCheck{
			Reason:         fmt.Sprintf("cooling-off period still active, %d hours remaining", remaining),
			HoursRemaining: remaining,
		}, nil
	}

	return RedemptionCheck{CanRedeem: true, Reason: "cooling-off period satisfied"}, nil
}

// ResetViolationCount zeroes the counter and stamps the redemption
// time, restoring the user to CLEAN for that type.
func (r *RedemptionManager) ResetViolationCount(ctx context.Context, userIDHash string, vtype ViolationType) (bool, error) {
	ok, err := r.violations.ResetCount(ctx, userIDHash, vtype, r.now())
	if err != nil {
		return false, errors.Wrap(err, "resetting violation count")
	}
	return ok, nil
}

// ApplyPendingRedemptions sweeps every redeemable type for a user and
// resets those that have cooled off. Returns the types redeemed.
// Errors degrade to "nothing redeemed": a redemption sweep must never
// block message processing.
func (r *RedemptionManager) ApplyPendingRedemptions(ctx context.Context, userIDHash string) []ViolationType {
	var redeemed []ViolationType
	for i := range violationPolicies {
		policy := &violationPolicies[i]
		if !policy.Redemption.Redeemable {
			continue
		}
		check, err := r.CheckRedemption(ctx, userIDHash, policy.Type)
		if err != nil {
			r.log.WithError(err).WithField("type", policy.Type).
				Warn("redemption check failed")
			continue
		}
		if !check.CanRedeem {
			continue
		}
		ok, err := r.ResetViolationCount(ctx, userIDHash, policy.Type)
		if err != nil {
			r.log.WithError(err).WithField("type", policy.Type).
				Warn("redemption reset failed")
			continue
		}
		if ok {
			r.log.WithField("type", policy.Type).Info("violation redeemed")
			redeemed = append(redeemed, policy.Type)
		}
	}
	return redeemed
}
