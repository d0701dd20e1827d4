package oracleworker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type routerFixture struct {
	router     *Router
	oracle     *fakeOracle
	charts     *fakeCharts
	messages   *memMessageStore
	violations *memViolationStore
	users      *memDirectory
	notifier   *recordingNotifier
}

func newRouterFixture(users ...*UserContext) *routerFixture {
	f := &routerFixture{
		oracle:     &fakeOracle{response: ContentPair{Full: "a mystical answer", Brief: "answer"}},
		charts:     &fakeCharts{},
		messages:   &memMessageStore{},
		violations: newMemViolationStore(),
		users:      newMemDirectory(users...),
		notifier:   &recordingNotifier{},
	}
	generator := NewContentGenerator(f.oracle, f.messages, newTestAdapter(&fakeTranslator{}, 450), f.notifier)
	f.router = NewRouter(f.users, f.charts, f.messages, f.violations, generator, f.notifier)
	return f
}

func (f *routerFixture) lastChatMessage(t *testing.T) StoredMessage {
	t.Helper()
	chats := f.messages.byRole(RoleChat)
	if len(chats) == 0 {
		t.Fatal("no chat rows stored")
	}
	return chats[len(chats)-1]
}

func TestRoute_ChatGeneratesReply(t *testing.T) {
	user := astroUser("u1")
	f := newRouterFixture(user)

	err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "will I find peace?"})
	if err != nil {
		t.Fatal(err)
	}

	if len(f.messages.byRole(RoleUser)) != 1 {
		t.Fatal("incoming message not stored")
	}
	if got := f.lastChatMessage(t); got.ContentFull != "a mystical answer" {
		t.Fatalf("reply %q", got.ContentFull)
	}
	if f.oracle.calls != 1 {
		t.Fatalf("oracle calls %d", f.oracle.calls)
	}
}

func TestRoute_DisabledAccountBlocked(t *testing.T) {
	user := astroUser("u1")
	f := newRouterFixture(user)
	if err := f.violations.DisableAccount(context.Background(), user.IDHash); err != nil {
		t.Fatal(err)
	}

	err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "hello?"})
	if err != nil {
		t.Fatal(err)
	}
	if f.oracle.calls != 0 {
		t.Fatal("disabled account reached the oracle")
	}
	if got := f.lastChatMessage(t); !strings.Contains(got.ContentFull, "permanently disabled") {
		t.Fatalf("reply %q", got.ContentFull)
	}
}

func TestRoute_ActiveSuspensionBlocked(t *testing.T) {
	user := astroUser("u1")
	end := time.Now().Add(48 * time.Hour)
	user.Suspended = true
	user.SuspensionEnd = &end
	f := newRouterFixture(user)

	if err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "hello?"}); err != nil {
		t.Fatal(err)
	}
	if f.oracle.calls != 0 {
		t.Fatal("suspended account reached the oracle")
	}
	if got := f.lastChatMessage(t); !strings.Contains(got.ContentFull, "suspended") {
		t.Fatalf("reply %q", got.ContentFull)
	}
}

func TestRoute_ExpiredSuspensionLiftsLazily(t *testing.T) {
	user := astroUser("u1")
	end := time.Now().Add(-time.Hour)
	user.Suspended = true
	user.SuspensionEnd = &end
	f := newRouterFixture(user)

	if err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "I'm back"}); err != nil {
		t.Fatal(err)
	}
	if len(f.users.lifted) != 1 || f.users.lifted[0] != "u1" {
		t.Fatalf("suspension not lifted: %v", f.users.lifted)
	}
	if f.oracle.calls != 1 {
		t.Fatal("returning user got no reply")
	}
}

func TestRoute_ViolationBlocksGeneration(t *testing.T) {
	user := astroUser("u1")
	f := newRouterFixture(user)

	err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "fuck this reading"})
	if err != nil {
		t.Fatal(err)
	}
	if f.oracle.calls != 0 {
		t.Fatal("violating message reached the oracle")
	}
	if got := f.lastChatMessage(t); !strings.Contains(got.ContentFull, "formal warning") {
		t.Fatalf("reply %q", got.ContentFull)
	}
	if len(f.violations.recs) != 1 {
		t.Fatalf("violations %v", f.violations.recs)
	}
}

func TestRoute_TempAccountViolationDeletes(t *testing.T) {
	user := testUser("guest1")
	user.Temporary = true
	f := newRouterFixture(user)

	err := f.router.Route(context.Background(), &Job{UserID: "guest1", Kind: JobKindChat, Message: "this is shit"})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.users.deleted) != 1 {
		t.Fatalf("deleted %v", f.users.deleted)
	}
	if got := f.lastChatMessage(t); !strings.Contains(got.ContentFull, "trial account") {
		t.Fatalf("reply %q", got.ContentFull)
	}
}

func TestRoute_InlineHoroscopeRequest(t *testing.T) {
	user := astroUser("u1")
	f := newRouterFixture(user)

	err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "what's my horoscope today?"})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.messages.byRole(RoleHoroscope)) != 1 {
		t.Fatal("inline request did not produce a horoscope")
	}
	if len(f.messages.byRole(RoleChat)) != 0 {
		t.Fatal("inline request also produced a chat reply")
	}
}

func TestRoute_AstrologyCalcJob(t *testing.T) {
	user := testUser("u1")
	user.Birth = BirthDetails{Date: "1990-07-04", Time: "14:30", Country: "US", Province: "IL", City: "Chicago"}
	f := newRouterFixture(user)
	f.charts.result = &ChartResult{Success: true, AstrologySnapshot: *completeSnapshot()}

	if err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindAstrologyCalc}); err != nil {
		t.Fatal(err)
	}
	if f.charts.calls != 1 {
		t.Fatal("chart service not called")
	}
	if f.users.saved["u1"] == nil {
		t.Fatal("snapshot not persisted")
	}
}

func TestRoute_AstrologyCalcWithoutBirthData(t *testing.T) {
	f := newRouterFixture(testUser("u1"))
	err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindAstrologyCalc})
	if !errors.Is(err, ErrAstrologyDataMissing) {
		t.Fatalf("got %v", err)
	}
}

func TestRoute_LazyChartForChat(t *testing.T) {
	user := testUser("u1")
	user.Birth = BirthDetails{Date: "1990-07-04", Time: "14:30", Country: "US", Province: "IL", City: "Chicago"}
	f := newRouterFixture(user)
	f.charts.result = &ChartResult{Success: true, AstrologySnapshot: *completeSnapshot()}

	if err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "hello"}); err != nil {
		t.Fatal(err)
	}
	if f.charts.calls != 1 {
		t.Fatal("lazy chart not computed")
	}
	if user.Astrology == nil {
		t.Fatal("context not updated with snapshot")
	}
}

func TestRoute_LazyChartComputedEvenWhenMessageViolates(t *testing.T) {
	user := testUser("u1")
	user.Birth = BirthDetails{Date: "1990-07-04", Time: "14:30", Country: "US", Province: "IL", City: "Chicago"}
	f := newRouterFixture(user)
	f.charts.result = &ChartResult{Success: true, AstrologySnapshot: *completeSnapshot()}

	err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "fuck this reading"})
	if err != nil {
		t.Fatal(err)
	}
	if f.charts.calls != 1 {
		t.Fatal("blocked message skipped the lazy chart calculation")
	}
	if f.users.saved["u1"] == nil {
		t.Fatal("snapshot not persisted")
	}
	if f.oracle.calls != 0 {
		t.Fatal("violating message reached the oracle")
	}
}

func TestRoute_LazyChartFailureDoesNotBlockChat(t *testing.T) {
	user := testUser("u1")
	user.Birth = BirthDetails{Date: "1990-07-04", Time: "14:30", Country: "US", Province: "IL", City: "Chicago"}
	f := newRouterFixture(user)
	f.charts.err = errors.New("ephemeris down")

	if err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "hello"}); err != nil {
		t.Fatal(err)
	}
	if f.oracle.calls != 1 {
		t.Fatal("chat blocked by chart failure")
	}
}

func TestRoute_ChatGenerationFailureStoresGenericReply(t *testing.T) {
	user := astroUser("u1")
	f := newRouterFixture(user)
	f.oracle.err = errors.New("model overloaded")

	err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	got := f.lastChatMessage(t)
	if strings.Contains(got.ContentFull, "overloaded") {
		t.Fatal("internal error leaked to the user")
	}
	if !strings.Contains(got.ContentFull, "unable to respond") {
		t.Fatalf("reply %q", got.ContentFull)
	}
}

func TestRoute_UnknownUser(t *testing.T) {
	f := newRouterFixture()
	err := f.router.Route(context.Background(), &Job{UserID: "ghost", Kind: JobKindChat, Message: "hello"})
	if !errors.Is(err, ErrPersonalInfoMissing) {
		t.Fatalf("got %v", err)
	}
}

func TestRoute_RedemptionSweepRunsBeforeDetection(t *testing.T) {
	user := astroUser("u1")
	f := newRouterFixture(user)
	seedViolation(f.violations, user.IDHash, ViolationAbusiveLanguage, 1, time.Now().Add(-48*time.Hour))

	// A clean message after the cooling-off period resets the counter.
	if err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "sorry about before"}); err != nil {
		t.Fatal(err)
	}
	rec, _ := f.violations.Latest(context.Background(), user.IDHash, ViolationAbusiveLanguage)
	if rec.Count != 0 {
		t.Fatalf("stale warning not redeemed: %+v", rec)
	}

	// The next offense restarts at warning, not suspension.
	if err := f.router.Route(context.Background(), &Job{UserID: "u1", Kind: JobKindChat, Message: "fuck it"}); err != nil {
		t.Fatal(err)
	}
	rec, _ = f.violations.Latest(context.Background(), user.IDHash, ViolationAbusiveLanguage)
	if rec.Count != 1 {
		t.Fatalf("count after redeemed offense = %d", rec.Count)
	}
	if got := f.lastChatMessage(t); !strings.Contains(got.ContentFull, "formal warning") {
		t.Fatalf("reply %q", got.ContentFull)
	}
}
