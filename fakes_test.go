package oracleworker

import (
	"context"
	"time"
)

// In-memory collaborators shared across the package tests.

type memMessageStore struct {
	msgs      []StoredMessage
	appendErr error
}

func (s *memMessageStore) Append(_ context.Context, msg *StoredMessage) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.msgs = append(s.msgs, *msg)
	return nil
}

func (s *memMessageStore) Latest(_ context.Context, userIDHash, role string, tags MessageTags) (*StoredMessage, error) {
	for i := len(s.msgs) - 1; i >= 0; i-- {
		m := s.msgs[i]
		if m.UserIDHash != userIDHash || m.Role != role {
			continue
		}
		if tags.HoroscopeRange != "" && m.HoroscopeRange != tags.HoroscopeRange {
			continue
		}
		if tags.MoonPhase != "" && m.MoonPhase != tags.MoonPhase {
			continue
		}
		out := m
		return &out, nil
	}
	return nil, nil
}

func (s *memMessageStore) History(_ context.Context, userIDHash string, limit int) ([]StoredMessage, error) {
	var out []StoredMessage
	for _, m := range s.msgs {
		if m.UserIDHash == userIDHash {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memMessageStore) byRole(role string) []StoredMessage {
	var out []StoredMessage
	for _, m := range s.msgs {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

type memViolationStore struct {
	recs     []ViolationRecord
	disabled map[string]bool
}

func newMemViolationStore() *memViolationStore {
	return &memViolationStore{disabled: make(map[string]bool)}
}

func (s *memViolationStore) Latest(_ context.Context, userIDHash string, vtype ViolationType) (*ViolationRecord, error) {
	for i := len(s.recs) - 1; i >= 0; i-- {
		r := s.recs[i]
		if r.UserIDHash == userIDHash && r.Type == vtype {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memViolationStore) Append(_ context.Context, rec *ViolationRecord) error {
	s.recs = append(s.recs, *rec)
	return nil
}

func (s *memViolationStore) ResetCount(_ context.Context, userIDHash string, vtype ViolationType, redeemedAt time.Time) (bool, error) {
	for i := len(s.recs) - 1; i >= 0; i-- {
		if s.recs[i].UserIDHash == userIDHash && s.recs[i].Type == vtype {
			s.recs[i].Count = 0
			t := redeemedAt
			s.recs[i].RedeemedAt = &t
			return true, nil
		}
	}
	return false, nil
}

func (s *memViolationStore) DisableAccount(_ context.Context, userIDHash string) error {
	s.disabled[userIDHash] = true
	return nil
}

func (s *memViolationStore) Disabled(_ context.Context, userIDHash string) (bool, error) {
	return s.disabled[userIDHash], nil
}

type memDirectory struct {
	users       map[string]*UserContext
	deleted     []string
	suspensions map[string]time.Time
	lifted      []string
	saved       map[string]*AstrologySnapshot
	recent      []string
}

func newMemDirectory(users ...*UserContext) *memDirectory {
	d := &memDirectory{
		users:       make(map[string]*UserContext),
		suspensions: make(map[string]time.Time),
		saved:       make(map[string]*AstrologySnapshot),
	}
	for _, u := range users {
		d.users[u.UserID] = u
	}
	return d
}

func (d *memDirectory) Resolve(_ context.Context, userID string) (*UserContext, error) {
	u, ok := d.users[userID]
	if !ok {
		return nil, ErrPersonalInfoMissing
	}
	return u, nil
}

func (d *memDirectory) SaveAstrology(_ context.Context, userID string, snap *AstrologySnapshot) error {
	d.saved[userID] = snap
	if u, ok := d.users[userID]; ok {
		u.Astrology = snap
	}
	return nil
}

func (d *memDirectory) SetSuspension(_ context.Context, userID string, until time.Time) error {
	d.suspensions[userID] = until
	return nil
}

func (d *memDirectory) LiftSuspension(_ context.Context, userID string) error {
	d.lifted = append(d.lifted, userID)
	delete(d.suspensions, userID)
	return nil
}

func (d *memDirectory) DeleteTemporary(_ context.Context, userID string) error {
	d.deleted = append(d.deleted, userID)
	delete(d.users, userID)
	return nil
}

func (d *memDirectory) RecentUserIDs(context.Context) ([]string, error) {
	return d.recent, nil
}

type fakeOracle struct {
	response    ContentPair
	err         error
	calls       int
	lastSystem  string
	lastUser    string
	lastHistory []ChatTurn
}

func (o *fakeOracle) Generate(_ context.Context, system string, history []ChatTurn, user string) (ContentPair, error) {
	o.calls++
	o.lastSystem = system
	o.lastUser = user
	o.lastHistory = history
	if o.err != nil {
		return ContentPair{}, o.err
	}
	return o.response, nil
}

type fakeCharts struct {
	result  *ChartResult
	err     error
	planets []PlanetPosition
	calls   int
}

func (c *fakeCharts) ComputeChart(context.Context, BirthDetails) (*ChartResult, error) {
	c.calls++
	return c.result, c.err
}

func (c *fakeCharts) CurrentPlanets(context.Context) ([]PlanetPosition, error) {
	return c.planets, nil
}

type fakeTranslator struct {
	prefix string
	err    error
	calls  int
}

func (t *fakeTranslator) TranslateText(_ context.Context, text, _ string) (string, error) {
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	return t.prefix + text, nil
}

type recordingNotifier struct {
	roles []string
}

func (n *recordingNotifier) NotifyReady(_ context.Context, _, messageType string) {
	n.roles = append(n.roles, messageType)
}

// completeSnapshot returns a chart snapshot that passes Complete().
func completeSnapshot() *AstrologySnapshot {
	return &AstrologySnapshot{
		SunSign: "Leo", SunDegree: 15.2,
		MoonSign: "Pisces", MoonDegree: 3.7,
		RisingSign: "Virgo", RisingDegree: 22.1,
		VenusSign: "Cancer", MarsSign: "Aries", MercurySign: "Leo",
		NorthNodeSign: "Taurus",
	}
}

func testUser(id string) *UserContext {
	return &UserContext{
		UserID:    id,
		IDHash:    HashUserID(id),
		FirstName: "Luna",
		Timezone:  "UTC",
	}
}
