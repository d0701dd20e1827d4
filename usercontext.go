package oracleworker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// HashUserID returns the one-way identity key used everywhere content or
// violations are persisted. The raw user id never reaches the store.
func HashUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// BirthDetails is the birth data required for chart calculation.
type BirthDetails struct {
	Date     string
	Time     string
	Country  string
	Province string
	City     string
	Timezone string
}

// Complete reports whether enough birth data exists to compute a chart.
func (b BirthDetails) Complete() bool {
	return b.Date != "" && b.Time != "" && b.Country != "" && b.Province != "" && b.City != ""
}

// AstrologySnapshot is the computed natal chart stored per user and fed
// into every generator prompt.
type AstrologySnapshot struct {
	SunSign         string
	SunDegree       float64
	MoonSign        string
	MoonDegree      float64
	RisingSign      string
	RisingDegree    float64
	VenusSign       string
	VenusDegree     float64
	MarsSign        string
	MarsDegree      float64
	MercurySign     string
	MercuryDegree   float64
	NorthNodeSign   string
	NorthNodeDegree float64
	Latitude        float64
	Longitude       float64
	Timezone        string
	CalculatedAt    time.Time
}

// Complete reports whether the snapshot carries the three core placements
// generators depend on.
func (a *AstrologySnapshot) Complete() bool {
	return a != nil && a.SunSign != "" && a.MoonSign != "" && a.RisingSign != ""
}

// UserContext is the read-only user snapshot resolved per job. It is
// owned by the user-data service; the worker only lazily fills in the
// astrology snapshot when birth data allows.
type UserContext struct {
	UserID        string
	IDHash        string
	FirstName     string
	PreferredName string
	Birth         BirthDetails
	Astrology     *AstrologySnapshot
	// Language is the display language for stored translations,
	// OracleLanguage the language the oracle is asked to answer in.
	// Empty or DefaultLanguage means the English baseline.
	Language       string
	OracleLanguage string
	Timezone       string
	Temporary      bool
	Suspended      bool
	SuspensionEnd  *time.Time
}

// Greeting returns the name the oracle should address the user by.
func (u *UserContext) Greeting() string {
	if u.PreferredName != "" {
		return u.PreferredName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Seeker"
}

// UserDirectory resolves and maintains user state the worker depends on.
// Backed by the user-data tables in production, by fakes in tests.
type UserDirectory interface {
	// Resolve returns the current context for a user, or
	// ErrPersonalInfoMissing when the user is unknown.
	Resolve(ctx context.Context, userID string) (*UserContext, error)
	// SaveAstrology persists a freshly computed natal snapshot.
	SaveAstrology(ctx context.Context, userID string, snap *AstrologySnapshot) error
	// SetSuspension marks the account suspended until the given time.
	SetSuspension(ctx context.Context, userID string, until time.Time) error
	// LiftSuspension clears an expired suspension.
	LiftSuspension(ctx context.Context, userID string) error
	// DeleteTemporary removes a temporary account after a violation.
	DeleteTemporary(ctx context.Context, userID string) error
	// RecentUserIDs lists non-temporary users active within the last
	// year, used by the startup generation sweep.
	RecentUserIDs(ctx context.Context) ([]string, error)
}
