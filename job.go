package oracleworker

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// JobKind identifies what a queued job asks the worker to produce.
// Producers tag jobs explicitly; an empty kind means a free-text chat
// message for backward compatibility with older producers.
type JobKind string

const (
	JobKindChat          JobKind = "chat"
	JobKindAstrologyCalc JobKind = "astrology_calc"
	JobKindHoroscope     JobKind = "horoscope"
	JobKindMoonPhase     JobKind = "moon_phase"
	JobKindLunarNodes    JobKind = "lunar_nodes"
	JobKindCosmicWeather JobKind = "cosmic_weather"
)

// Job is the wire shape popped from the queue. Jobs have no identity
// beyond FIFO position and are consumed at most once.
//
// Wire example:
//
//	{"userId": "u_42", "kind": "horoscope", "horoscopeRange": "weekly"}
//	{"userId": "u_42", "message": "what do the cards say about my job?"}
type Job struct {
	UserID         string  `json:"userId"`
	Kind           JobKind `json:"kind,omitempty"`
	Message        string  `json:"message,omitempty"`
	HoroscopeRange string  `json:"horoscopeRange,omitempty"`
	MoonPhase      string  `json:"moonPhase,omitempty"`
}

// ErrMalformedJob is returned by ParseJob for payloads the worker
// cannot act on. Malformed jobs are logged and dropped, never requeued.
var ErrMalformedJob = errors.New("malformed job payload")

// ParseJob decodes a raw queue payload into a Job, applying defaults:
// missing kind is a chat message, missing horoscope range is daily.
func ParseJob(raw []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, errors.Wrap(ErrMalformedJob, err.Error())
	}
	if job.UserID == "" {
		return nil, errors.Wrap(ErrMalformedJob, "missing userId")
	}
	if job.Kind == "" {
		job.Kind = JobKindChat
	}
	switch job.Kind {
	case JobKindChat, JobKindAstrologyCalc, JobKindHoroscope,
		JobKindMoonPhase, JobKindLunarNodes, JobKindCosmicWeather:
	default:
		return nil, errors.Wrapf(ErrMalformedJob, "unknown kind %q", job.Kind)
	}
	if job.Kind == JobKindHoroscope && job.HoroscopeRange == "" {
		job.HoroscopeRange = HoroscopeRangeDaily
	}
	if job.Kind == JobKindChat && job.Message == "" {
		return nil, errors.Wrap(ErrMalformedJob, "chat job without message")
	}
	return &job, nil
}

// Horoscope ranges carried as idempotency tags on stored horoscopes.
const (
	HoroscopeRangeDaily  = "daily"
	HoroscopeRangeWeekly = "weekly"
)
