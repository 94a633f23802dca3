package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/game"
)

// ErrConnectionLost is fatal to a session. The effect of the command in
// flight is unknown and no further command is sent.
var ErrConnectionLost = errors.New("connection lost")

// Controller is the control side of a session. It keeps a mirror of the
// display's state and only advances it on a positive Ack.
type Controller struct {
	mu sync.Mutex

	transport Transport
	mirror    *game.Session
	seq       uint64
	lost      bool

	id      string
	name    string
	clock   clockwork.Clock
	started time.Time
}

type ControllerOption func(*Controller)

func WithClock(clock clockwork.Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithSessionName(name string) ControllerOption {
	return func(c *Controller) {
		c.name = name
	}
}

// Connect opens a session on t with a Hello carrying b. A bank the display
// refuses comes back as a *bank.LoadError.
func Connect(ctx context.Context, t Transport, b *bank.Bank, opts ...ControllerOption) (*Controller, error) {
	mirror, err := game.NewSession(b, nil)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		transport: t,
		mirror:    mirror,
		id:        uuid.NewString(),
		name:      petname.Generate(2, "-"),
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ack, err := c.roundTrip(ctx, MessageHello{SessionID: c.id, SessionName: c.name, Bank: b.Raw()})
	if err != nil {
		return nil, err
	}
	if !ack.OK {
		c.transport.Close()
		if kind, ok := bank.ParseLoadErrorKind(ack.Error); ok {
			return nil, &bank.LoadError{Kind: kind, Detail: ack.Message}
		}
		return nil, fmt.Errorf("display refused session: %s: %s", ack.Error, ack.Message)
	}

	c.started = c.clock.Now()
	log.Info().
		Str("session", c.name).
		Str("id", c.id).
		Str("display", t.RemoteAddr()).
		Msg("session opened")

	return c, nil
}

// Issue sends cmd and waits for its Ack. Commands the mirror already
// rejects are not sent at all.
func (c *Controller) Issue(ctx context.Context, cmd game.Command) (game.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lost {
		return game.Outcome{}, ErrConnectionLost
	}
	if err := c.mirror.Check(cmd); err != nil {
		return game.Outcome{}, err
	}

	ack, err := c.roundTrip(ctx, MessageCommand{Command: cmd})
	if err != nil {
		return game.Outcome{}, err
	}

	if !ack.OK {
		kind, ok := game.ParseViolationKind(ack.Error)
		if !ok {
			return game.Outcome{}, fmt.Errorf("display rejected %s: %s: %s", cmd, ack.Error, ack.Message)
		}
		return game.Outcome{}, &game.ProtocolViolation{Kind: kind, Phase: ack.Phase, Command: cmd, Detail: ack.Message}
	}

	out, err := c.mirror.Apply(cmd)
	if err != nil {
		c.lose(err)
		return game.Outcome{}, fmt.Errorf("%w: display accepted %s: %v", ErrConnectionLost, cmd, err)
	}
	if ack.Phase != out.To {
		err := fmt.Errorf("display is in %s after %s, mirror in %s", ack.Phase, cmd, out.To)
		c.lose(err)
		return game.Outcome{}, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	log.Debug().Str("command", cmd.String()).Stringer("phase", out.To).Msg("command acknowledged")
	return out, nil
}

// Close ends the session with a Bye and closes the transport. The display
// exits once it has acknowledged.
func (c *Controller) Close(ctx context.Context, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lost {
		return ErrConnectionLost
	}

	_, err := c.roundTrip(ctx, MessageBye{Reason: reason})
	c.lost = true
	c.transport.Close()
	return err
}

// roundTrip sends m and reads the Ack carrying its seq. Must hold c.mu.
func (c *Controller) roundTrip(ctx context.Context, m MessageInterface) (MessageAck, error) {
	c.seq++
	seq := c.seq

	frame, err := Encode(seq, m)
	if err != nil {
		return MessageAck{}, err
	}

	if err := c.transport.WriteFrame(frame); err != nil {
		c.lose(err)
		return MessageAck{}, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	type result struct {
		frame []byte
		err   error
	}
	read := make(chan result, 1)
	go func() {
		f, err := c.transport.ReadFrame()
		read <- result{f, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		c.lose(ctx.Err())
		return MessageAck{}, fmt.Errorf("%w: %v", ErrConnectionLost, ctx.Err())
	case r = <-read:
	}

	if r.err != nil {
		c.lose(r.err)
		return MessageAck{}, fmt.Errorf("%w: %v", ErrConnectionLost, r.err)
	}

	env, msg, err := Decode(r.frame)
	if err != nil {
		c.lose(err)
		return MessageAck{}, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	ack, ok := msg.(MessageAck)
	if !ok || env.Seq != seq {
		err := fmt.Errorf("expected ack %d, got %s %d", seq, env.MsgType, env.Seq)
		c.lose(err)
		return MessageAck{}, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	return ack, nil
}

func (c *Controller) lose(cause error) {
	if c.lost {
		return
	}
	c.lost = true
	c.transport.Close()
	log.Error().Err(cause).Str("session", c.name).Msg("connection lost")
}

func (c *Controller) Lost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lost
}

// State is the mirror's view of the session.
func (c *Controller) State() game.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.Snapshot()
}

// Check validates cmd against the mirror without sending it.
func (c *Controller) Check(cmd game.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.Check(cmd)
}

func (c *Controller) Bank() *bank.Bank {
	return c.mirror.Bank()
}

type Info struct {
	SessionID   string
	SessionName string
	Display     string
	Running     time.Duration
	Answered    int
}

// PerAnswer is the average time spent per answered question.
func (i Info) PerAnswer() (time.Duration, bool) {
	if i.Answered == 0 {
		return 0, false
	}
	return i.Running / time.Duration(i.Answered), true
}

func (c *Controller) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Info{
		SessionID:   c.id,
		SessionName: c.name,
		Display:     c.transport.RemoteAddr(),
		Running:     c.clock.Since(c.started),
		Answered:    len(c.mirror.Asked()),
	}
}
