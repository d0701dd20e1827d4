package oracleworker

import "context"

// External capabilities the worker composes but does not implement.
// Production wiring provides HTTP/process-backed clients; tests provide
// fakes.

// ChatTurn is one prior exchange replayed to the oracle.
type ChatTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

// ContentPair is the two granularities every generation produces from a
// single oracle call.
type ContentPair struct {
	Full  string
	Brief string
}

// Oracle is the opaque text-generation capability.
type Oracle interface {
	Generate(ctx context.Context, systemPrompt string, history []ChatTurn, userMessage string) (ContentPair, error)
}

// ChartResult is the outcome of a natal chart calculation.
type ChartResult struct {
	Success bool
	Error   string
	AstrologySnapshot
}

// PlanetPosition is one transiting planet used by the cosmic weather
// generator.
type PlanetPosition struct {
	Name       string
	Icon       string
	Sign       string
	Degree     float64
	Retrograde bool
}

// ChartService is the external ephemeris/calculation capability.
type ChartService interface {
	ComputeChart(ctx context.Context, birth BirthDetails) (*ChartResult, error)
	CurrentPlanets(ctx context.Context) ([]PlanetPosition, error)
}

// Translator is the raw text-translation capability wrapped by the
// TranslationAdapter. Implementations may enforce per-request length
// limits; the adapter chunks around them.
type Translator interface {
	TranslateText(ctx context.Context, text, targetLangCode string) (string, error)
}

// ReadyNotifier emits best-effort "content ready" hints after a store
// write. Failures are non-fatal; consumers only use the hint to
// re-fetch, never as the source of truth.
type ReadyNotifier interface {
	NotifyReady(ctx context.Context, userIDHash, messageType string)
}

// Cleaner removes stale temporary accounts. Invoked on a timer as a
// best-effort housekeeping call against the account service.
type Cleaner interface {
	CleanupTempAccounts(ctx context.Context) error
}
