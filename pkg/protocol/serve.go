package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/game"
)

// ErrorUnavailable is sent when the handler fails for reasons unrelated to
// the command, such as the display shutting down.
const ErrorUnavailable = "Unavailable"

// Handler applies what the control process asks for. Serve calls it from a
// single goroutine, one message at a time.
type Handler interface {
	// Hello starts a fresh session for the bank. Errors should be
	// *bank.LoadError.
	Hello(ctx context.Context, hello MessageHello) error
	// Command errors should be *game.ProtocolViolation.
	Command(ctx context.Context, cmd game.Command) (game.Outcome, error)
	Bye(ctx context.Context, reason string)
}

// Serve answers every frame read from t with exactly one Ack until the
// control process says Bye, which returns nil. A broken connection returns
// ErrConnectionLost.
func Serve(ctx context.Context, t Transport, h Handler) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			t.Close()
		case <-stop:
		}
	}()

	hello := false
	phase := game.PhaseIntro
	logger := log.With().Str("remote", t.RemoteAddr()).Logger()

	writeAck := func(seq uint64, ack MessageAck) error {
		frame, err := Encode(seq, ack)
		if err != nil {
			return err
		}
		if err := t.WriteFrame(frame); err != nil {
			return fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		return nil
	}

	for {
		frame, err := t.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}

		env, msg, err := Decode(frame)
		if err != nil {
			logger.Warn().Err(err).Msg("bad frame")
			if err := writeAck(env.Seq, MessageAck{Error: ErrorBadRequest, Phase: phase, Message: err.Error()}); err != nil {
				return err
			}
			continue
		}

		var ack MessageAck
		switch m := msg.(type) {
		case MessageHello:
			if err := h.Hello(ctx, m); err != nil {
				ack = errorAck(err, phase)
				break
			}
			hello = true
			phase = game.PhaseIntro
			ack = MessageAck{OK: true, Phase: phase}
			logger.Info().Str("session", m.SessionName).Str("id", m.SessionID).Msg("session started")

		case MessageCommand:
			if !hello {
				ack = MessageAck{Error: ErrorNoSession, Phase: phase, Message: "command before hello"}
				break
			}
			out, err := h.Command(ctx, m.Command)
			if err != nil {
				ack = errorAck(err, phase)
				logger.Info().Err(err).Str("command", m.Command.String()).Msg("command rejected")
				break
			}
			phase = out.To
			ack = MessageAck{OK: true, Phase: phase, Outcome: &out}

		case MessageBye:
			h.Bye(ctx, m.Reason)
			logger.Info().Str("reason", m.Reason).Msg("control process said bye")
			if err := writeAck(env.Seq, MessageAck{OK: true, Phase: phase}); err != nil {
				logger.Warn().Err(err).Msg("failed to acknowledge bye")
			}
			return nil

		default:
			ack = MessageAck{Error: ErrorBadRequest, Phase: phase, Message: fmt.Sprintf("unexpected %s", msg.Type())}
		}

		if err := writeAck(env.Seq, ack); err != nil {
			return err
		}
	}
}

func errorAck(err error, phase game.Phase) MessageAck {
	var (
		pv *game.ProtocolViolation
		le *bank.LoadError
	)
	switch {
	case errors.As(err, &pv):
		return MessageAck{Error: pv.Kind.String(), Phase: pv.Phase, Message: pv.Detail}
	case errors.As(err, &le):
		return MessageAck{Error: le.Kind.String(), Phase: phase, Message: le.Detail}
	default:
		return MessageAck{Error: ErrorUnavailable, Phase: phase, Message: err.Error()}
	}
}
