package display

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/game"
	"github.com/qnkhuat/quizterm/pkg/protocol"
	"github.com/qnkhuat/quizterm/pkg/score"
)

type recordingScreen struct {
	mu        sync.Mutex
	waiting   []string
	countdown []int
	finals    int
}

func (r *recordingScreen) RenderIntro() {}
func (r *recordingScreen) RenderBoard(categories []string, asked game.AskedSet) {}
func (r *recordingScreen) RenderScores(standings []score.Standing) {}
func (r *recordingScreen) RenderThanks() {}

func (r *recordingScreen) RenderQuestion(lines []string, remaining int) {
	r.mu.Lock()
	r.countdown = append(r.countdown, remaining)
	r.mu.Unlock()
}

func (r *recordingScreen) RenderFinal(standings []score.Standing) {
	r.mu.Lock()
	r.finals++
	r.mu.Unlock()
}

func (r *recordingScreen) RenderWaiting(address string) {
	r.mu.Lock()
	r.waiting = append(r.waiting, address)
	r.mu.Unlock()
}

func (r *recordingScreen) waits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiting)
}

func testRaw() bank.Raw {
	raw := bank.Raw{Teams: []string{"A", "B", "C"}}
	for _, c := range []string{"Eins", "Zwei", "Drei", "Vier", "Fuenf"} {
		rc := bank.RawCategory{Name: c}
		for _, v := range bank.Values {
			rc.Questions = append(rc.Questions, bank.RawQuestion{
				Value:         v,
				HasTimer:      v < 100,
				TimeAllowance: 30,
				Text:          fmt.Sprintf("%s %d", c, v),
			})
		}
		raw.Categories = append(raw.Categories, rc)
	}
	return raw
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startEngine(t *testing.T, opts ...Option) (*Engine, *recordingScreen, context.Context) {
	t.Helper()

	screen := &recordingScreen{}
	e := NewEngine(screen, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("run returned %v", err)
		}
	})
	return e, screen, ctx
}

func mustCommand(t *testing.T, ctx context.Context, e *Engine, cmd game.Command) {
	t.Helper()
	if _, err := e.Command(ctx, cmd); err != nil {
		t.Fatalf("command %s: %s", cmd, err)
	}
}

func remaining(t *testing.T, ctx context.Context, e *Engine) int {
	st, ok, err := e.State(ctx)
	if err != nil || !ok || st.Active == nil {
		t.Fatalf("no active question: %v %t", err, ok)
	}
	return st.Active.Remaining
}

func TestEngineCountdown(t *testing.T) {
	fake := clockwork.NewFakeClock()
	e, screen, ctx := startEngine(t, WithClock(fake))

	if err := e.Hello(ctx, protocol.MessageHello{SessionName: "test", Bank: testRaw()}); err != nil {
		t.Fatalf("hello: %s", err)
	}
	mustCommand(t, ctx, e, game.Simple(game.KindShowBoard))
	mustCommand(t, ctx, e, game.Select("Zwei", 60))

	if err := fake.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 35; i++ {
		fake.Advance(time.Second)
		want := 30 - i
		if want < 0 {
			want = 0
		}
		eventually(t, fmt.Sprintf("countdown %d", want), func() bool {
			return remaining(t, ctx, e) == want
		})
	}

	st, _, _ := e.State(ctx)
	if st.Phase != game.PhaseQuestionShown {
		t.Errorf("countdown changed phase to %s", st.Phase)
	}

	screen.mu.Lock()
	defer screen.mu.Unlock()
	for _, r := range screen.countdown {
		if r < 0 {
			t.Errorf("negative countdown rendered: %v", screen.countdown)
			break
		}
	}
}

func TestEngineSubSecondInterval(t *testing.T) {
	screen := &recordingScreen{}
	e := NewEngine(screen, WithTickInterval(250*time.Millisecond))

	b, err := bank.Load(testRaw())
	if err != nil {
		t.Fatal(err)
	}
	e.session, err = game.NewSession(b, screen)
	if err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []game.Command{game.Simple(game.KindShowBoard), game.Select("Eins", 20)} {
		if _, err := e.session.Apply(cmd); err != nil {
			t.Fatal(err)
		}
	}

	for i := 1; i <= 10; i++ {
		e.tick()
		if got, want := e.session.Snapshot().Active.Remaining, 30-i/4; got != want {
			t.Fatalf("after %d ticks: remaining %d, want %d", i, got, want)
		}
	}
}

func TestEngineRejectsBadBank(t *testing.T) {
	e, _, ctx := startEngine(t)

	raw := testRaw()
	raw.Teams = raw.Teams[:2]
	err := e.Hello(ctx, protocol.MessageHello{Bank: raw})
	if !errors.Is(err, bank.ErrTeamCountMismatch) {
		t.Fatalf("got %v", err)
	}
	if _, ok, _ := e.State(ctx); ok {
		t.Error("session created from a rejected bank")
	}
}

func TestEngineAfterStop(t *testing.T) {
	e := NewEngine(&recordingScreen{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	cancel()
	<-done

	if _, err := e.Command(context.Background(), game.Simple(game.KindShowBoard)); !errors.Is(err, ErrStopped) {
		t.Errorf("command after stop: %v", err)
	}
}

func TestEngineAcceptLifecycle(t *testing.T) {
	e, screen, ctx := startEngine(t)

	l, err := protocol.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	accepted := make(chan error, 1)
	go func() { accepted <- e.Accept(ctx, l) }()

	b, err := bank.Load(testRaw())
	if err != nil {
		t.Fatal(err)
	}

	eventually(t, "waiting screen", func() bool { return screen.waits() == 1 })

	tr, err := protocol.Dial(ctx, l.Addr())
	if err != nil {
		t.Fatal(err)
	}
	c, err := protocol.Connect(ctx, tr, b)
	if err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []game.Command{
		game.Simple(game.KindShowBoard),
		game.Select("Drei", 80),
		game.Answer("C", true),
	} {
		if _, err := c.Issue(ctx, cmd); err != nil {
			t.Fatalf("issue %s: %s", cmd, err)
		}
	}

	// Dropping the connection returns the display to its waiting screen.
	tr.Close()
	eventually(t, "second waiting screen", func() bool { return screen.waits() == 2 })
	if _, ok, _ := e.State(ctx); ok {
		t.Error("session survived a lost connection")
	}

	tr, err = protocol.Dial(ctx, l.Addr())
	if err != nil {
		t.Fatal(err)
	}
	c, err = protocol.Connect(ctx, tr, b)
	if err != nil {
		t.Fatal(err)
	}

	st, ok, err := e.State(ctx)
	if err != nil || !ok {
		t.Fatalf("no session after hello: %v", err)
	}
	if st.Phase != game.PhaseIntro || len(st.Asked) != 0 {
		t.Errorf("new connection did not start fresh: %+v", st)
	}

	if _, err := c.Issue(ctx, game.Simple(game.KindShowBoard)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Issue(ctx, game.Simple(game.KindShowFinal)); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(ctx, "stop"); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-accepted:
		if err != nil {
			t.Errorf("accept returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("accept did not return after bye")
	}

	screen.mu.Lock()
	if screen.finals != 1 {
		t.Errorf("final rendered %d times", screen.finals)
	}
	screen.mu.Unlock()
}
