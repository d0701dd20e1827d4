package oracleworker

import (
	"strings"
	"testing"
)

func TestDetect_CleanText(t *testing.T) {
	for _, msg := range []string{
		"what do the cards say about my career?",
		"tell me about my moon sign",
		"will I find love this year?",
	} {
		if m := DetectViolation(msg); m != nil {
			t.Fatalf("clean message %q flagged as %s", msg, m.Type)
		}
	}
}

func TestDetect_WordBoundaryFalsePositives(t *testing.T) {
	// Ordinary words containing profanity substrings must never trip
	// the filter.
	for _, msg := range []string{
		"my assistant helped me book the reading",
		"I lost my compass on the hike",
		"I looked it up in the dictionary",
		"your prediction was spot on",
		"the assassin card is not in a tarot deck",
	} {
		if m := DetectViolation(msg); m != nil {
			t.Fatalf("message %q flagged as %s via %q", msg, m.Type, m.Keyword)
		}
	}
}

func TestDetect_BoundedWordsStillMatch(t *testing.T) {
	m := DetectViolation("you are an ass")
	if m == nil || m.Type != ViolationAbusiveLanguage {
		t.Fatalf("expected abusive_language, got %+v", m)
	}
}

func TestDetect_PriorityOrdering(t *testing.T) {
	// A message matching multiple types classifies as the most severe.
	m := DetectViolation("fuck it, I want to kill myself")
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Type != ViolationSelfHarm {
		t.Fatalf("expected self_harm to win, got %s", m.Type)
	}

	m = DetectViolation("this porn shit is everywhere")
	if m == nil || m.Type != ViolationSexualContent {
		t.Fatalf("expected sexual_content to outrank abusive, got %+v", m)
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	m := DetectViolation("I want to KILL MYSELF")
	if m == nil || m.Type != ViolationSelfHarm {
		t.Fatalf("expected self_harm, got %+v", m)
	}
}

func TestPolicyFor(t *testing.T) {
	p := PolicyFor(ViolationSexualContent)
	if p == nil {
		t.Fatal("expected a policy")
	}
	if !p.Redemption.Redeemable || p.Redemption.CoolingHours != 168 || p.Redemption.MaxRedemptions != 1 {
		t.Fatalf("unexpected sexual content redemption policy: %+v", p.Redemption)
	}
	if PolicyFor(ViolationHealthAdvice) != nil {
		t.Fatal("compliance-only type must have no policy entry")
	}
	for _, vt := range []ViolationType{ViolationSelfHarm, ViolationHarmOthers} {
		if p := PolicyFor(vt); p == nil || p.Redemption.Redeemable {
			t.Fatalf("%s must never be redeemable", vt)
		}
	}
}

func TestTruncateViolationMessage(t *testing.T) {
	short := "short message"
	if got := TruncateViolationMessage(short); got != short {
		t.Fatalf("short message changed: %q", got)
	}
	long := strings.Repeat("a", 600)
	if got := TruncateViolationMessage(long); len(got) != 500 {
		t.Fatalf("expected 500 chars, got %d", len(got))
	}
}
