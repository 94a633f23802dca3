// Package display runs the audience side of a quiz.
//
// One goroutine owns the session. Protocol handling and the countdown
// ticker hand work to it as jobs, so the screen is only ever touched from
// that goroutine and a slow connection never stalls a redraw.
package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/game"
	"github.com/qnkhuat/quizterm/pkg/protocol"
)

const (
	DefaultTickInterval = time.Second
	JobQueueSize        = 16
)

var ErrStopped = errors.New("display stopped")

// Screen is a render sink that can also show the waiting screen between
// sessions.
type Screen interface {
	game.Sink
	RenderWaiting(address string)
}

type Engine struct {
	screen   Screen
	clock    clockwork.Clock
	interval time.Duration

	jobs    chan func()
	stopped chan struct{}

	// Owned by the Run goroutine.
	session *game.Session
	name    string
	pending time.Duration
}

type Option func(*Engine)

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

func NewEngine(screen Screen, opts ...Option) *Engine {
	e := &Engine{
		screen:   screen,
		clock:    clockwork.NewRealClock(),
		interval: DefaultTickInterval,
		jobs:     make(chan func(), JobQueueSize),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run applies queued jobs and countdown ticks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-e.jobs:
			job()
		case <-ticker.Chan():
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	if e.session == nil {
		e.pending = 0
		return
	}

	e.pending += e.interval
	elapsed := int(e.pending / time.Second)
	if elapsed == 0 {
		return
	}
	e.pending -= time.Duration(elapsed) * time.Second

	e.session.Tick(elapsed)
}

// do runs fn on the engine goroutine and waits for it.
func (e *Engine) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	job := func() {
		fn()
		close(done)
	}

	select {
	case e.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrStopped
	}
}

func (e *Engine) Hello(ctx context.Context, hello protocol.MessageHello) error {
	b, err := bank.Load(hello.Bank)
	if err != nil {
		return err
	}

	var serr error
	err = e.do(ctx, func() {
		var s *game.Session
		s, serr = game.NewSession(b, e.screen)
		if serr != nil {
			return
		}
		e.session, e.name, e.pending = s, hello.SessionName, 0
		s.Render()
	})
	if err != nil {
		return err
	}
	return serr
}

func (e *Engine) Command(ctx context.Context, cmd game.Command) (game.Outcome, error) {
	var (
		out  game.Outcome
		cerr error
	)
	err := e.do(ctx, func() {
		if e.session == nil {
			cerr = fmt.Errorf("no session")
			return
		}
		out, cerr = e.session.Apply(cmd)
		if cerr == nil && out.Forced {
			log.Info().
				Str("session", e.name).
				Int("asked", len(e.session.Asked())).
				Msg("final standings shown before every question was asked")
		}
	})
	if err != nil {
		return game.Outcome{}, err
	}
	return out, cerr
}

func (e *Engine) Bye(ctx context.Context, reason string) {
	_ = e.do(ctx, func() {
		log.Info().Str("session", e.name).Str("reason", reason).Msg("session ended")
	})
}

// Waiting drops the current session and shows the waiting screen.
func (e *Engine) Waiting(ctx context.Context, address string) error {
	return e.do(ctx, func() {
		e.session, e.name, e.pending = nil, "", 0
		e.screen.RenderWaiting(address)
	})
}

// State returns the current session state, or false between sessions.
func (e *Engine) State(ctx context.Context) (game.State, bool, error) {
	var (
		st game.State
		ok bool
	)
	err := e.do(ctx, func() {
		if e.session != nil {
			st, ok = e.session.Snapshot(), true
		}
	})
	return st, ok, err
}

// Accept serves control connections from l one at a time. A connection
// that drops sends the display back to the waiting screen; a Bye ends
// Accept with a nil error.
func (e *Engine) Accept(ctx context.Context, l protocol.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		if err := e.Waiting(ctx, l.Addr()); err != nil {
			return nilIfDone(ctx, err)
		}
		log.Info().Str("addr", l.Addr()).Msg("waiting for control process")

		tr, err := l.Accept()
		if err != nil {
			if errors.Is(err, protocol.ErrListenerClosed) {
				return nilIfDone(ctx, err)
			}
			return fmt.Errorf("accept: %w", err)
		}
		log.Info().Str("remote", tr.RemoteAddr()).Msg("control process connected")

		err = protocol.Serve(ctx, tr, e)
		tr.Close()

		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, protocol.ErrConnectionLost):
			log.Warn().Err(err).Msg("control process lost")
		default:
			return err
		}
	}
}

func nilIfDone(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
