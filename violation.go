package oracleworker

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// ViolationType classifies a moderation violation.
type ViolationType string

const (
	ViolationSelfHarm        ViolationType = "self_harm"
	ViolationHarmOthers      ViolationType = "harm_others"
	ViolationSexualContent   ViolationType = "sexual_content"
	ViolationAbusiveLanguage ViolationType = "abusive_language"

	// ViolationHealthAdvice is recorded for compliance monitoring only
	// when the oracle's own reply shows it deflected a medical
	// question. It never triggers enforcement.
	ViolationHealthAdvice ViolationType = "health_medical_advice"
)

// Violation severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityInfo     = "info"
)

// RedemptionPolicy defines whether and how a violation type cools off.
// MaxRedemptions of -1 means unlimited.
type RedemptionPolicy struct {
	Redeemable     bool
	CoolingHours   int
	MaxRedemptions int
}

// ViolationPolicy is one entry of the data-driven moderation table:
// detection vocabulary, severity and redemption rules for a type.
// Keywords are matched as substrings; Patterns carry word boundaries
// for short words that are substrings of ordinary vocabulary, so that
// "assistant", "compass" or "dictionary" never trip the filter.
type ViolationPolicy struct {
	Type       ViolationType
	Severity   string
	Keywords   []string
	Patterns   []*regexp.Regexp
	Redemption RedemptionPolicy
}

// violationPolicies is ordered by priority. Detection returns the first
// match only: a message containing both a self-harm phrase and
// profanity must classify as self-harm, never as the lesser type.
var violationPolicies = []ViolationPolicy{
	{
		Type:     ViolationSelfHarm,
		Severity: SeverityCritical,
		Keywords: []string{
			"suicide", "kill myself", "end my life", "hurt myself",
			"self harm", "self-harm", "cut myself", "overdose",
			"jump off", "hang myself",
		},
		Redemption: RedemptionPolicy{Redeemable: false},
	},
	{
		Type:     ViolationHarmOthers,
		Severity: SeverityCritical,
		Keywords: []string{
			"kill someone", "murder", "assault someone", "torture",
			"bomb making", "school shooting", "mass shooting",
			"terrorist attack", "incite violence", "harm people",
			"hurt people", "attack people",
		},
		Redemption: RedemptionPolicy{Redeemable: false},
	},
	{
		Type:     ViolationSexualContent,
		Severity: SeverityHigh,
		Keywords: []string{
			"porn", "xxx", "sexually explicit", "orgy",
			"escort service", "sexual assault", "sex slave",
		},
		Redemption: RedemptionPolicy{Redeemable: true, CoolingHours: 168, MaxRedemptions: 1},
	},
	{
		Type:     ViolationAbusiveLanguage,
		Severity: SeverityMedium,
		Keywords: []string{
			"fuck", "shit", "motherfucker", "cunt", "bitch",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bass\b`),
			regexp.MustCompile(`(?i)\bdick\b`),
			regexp.MustCompile(`(?i)\bcock\b`),
			regexp.MustCompile(`(?i)\btwat\b`),
		},
		Redemption: RedemptionPolicy{Redeemable: true, CoolingHours: 24, MaxRedemptions: -1},
	},
}

// PolicyFor returns the moderation policy for a violation type, or nil
// for untabled types such as compliance-only records.
func PolicyFor(t ViolationType) *ViolationPolicy {
	for i := range violationPolicies {
		if violationPolicies[i].Type == t {
			return &violationPolicies[i]
		}
	}
	return nil
}

// ViolationMatch is the outcome of detection: which policy entry fired
// and on what token.
type ViolationMatch struct {
	Type     ViolationType
	Severity string
	Keyword  string
}

// DetectViolation classifies free text against the policy table. Pure
// function; returns nil when the text is clean. This is a heuristic
// filter, not a safety-critical classifier: precision on ordinary words
// matters more than recall.
func DetectViolation(text string) *ViolationMatch {
	lower := strings.ToLower(text)
	for i := range violationPolicies {
		p := &violationPolicies[i]
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				return &ViolationMatch{Type: p.Type, Severity: p.Severity, Keyword: kw}
			}
		}
		for _, re := range p.Patterns {
			if m := re.FindString(text); m != "" {
				return &ViolationMatch{Type: p.Type, Severity: p.Severity, Keyword: strings.ToLower(m)}
			}
		}
	}
	return nil
}

// ViolationRecord is one persisted row of a user's violation history.
// Count is monotonic per type and only returns to zero through an
// explicit redemption reset.
type ViolationRecord struct {
	UserIDHash string
	Type       ViolationType
	Count      int
	// Message holds the truncated offending text for audit.
	Message         string
	Severity        string
	LastViolationAt time.Time
	RedeemedAt      *time.Time
	AccountDisabled bool
}

// violationMessageLimit bounds the audit copy of the offending text.
const violationMessageLimit = 500

// ViolationStore persists violation history keyed by hashed user id.
type ViolationStore interface {
	// Latest returns the most recent record for (user, type), or nil
	// when the user has none.
	Latest(ctx context.Context, userIDHash string, vtype ViolationType) (*ViolationRecord, error)
	// Append writes a new violation row.
	Append(ctx context.Context, rec *ViolationRecord) error
	// ResetCount zeroes the latest record's count and stamps the
	// redemption time. Returns false when no record existed.
	ResetCount(ctx context.Context, userIDHash string, vtype ViolationType, redeemedAt time.Time) (bool, error)
	// DisableAccount sets the terminal disabled flag. Nothing in this
	// subsystem ever clears it.
	DisableAccount(ctx context.Context, userIDHash string) error
	// Disabled reports whether the account carries the terminal flag.
	Disabled(ctx context.Context, userIDHash string) (bool, error)
}

// TruncateViolationMessage bounds offending text before persistence.
func TruncateViolationMessage(msg string) string {
	if len(msg) <= violationMessageLimit {
		return msg
	}
	return msg[:violationMessageLimit]
}
