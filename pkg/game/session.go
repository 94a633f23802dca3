package game

import (
	"fmt"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/clock"
	"github.com/qnkhuat/quizterm/pkg/score"
)

type ActiveQuestion struct {
	Question bank.Question
	Clock    clock.Clock
	Revealed bool
}

// Remaining is the countdown to display, or NoCountdown.
func (a *ActiveQuestion) Remaining() int {
	if !a.Question.HasTimer {
		return NoCountdown
	}
	return a.Clock.Remaining
}

// Outcome describes an accepted transition.
type Outcome struct {
	From   Phase  `json:"from"`
	To     Phase  `json:"to"`
	Team   string `json:"team,omitempty"`
	Delta  int    `json:"delta,omitempty"`
	Forced bool   `json:"forced,omitempty"`
}

// Session is the whole mutable state of one quiz. It is not safe for
// concurrent use; a single goroutine owns it.
type Session struct {
	bank   *bank.Bank
	ledger *score.Ledger
	asked  map[bank.Key]bool
	phase  Phase
	active *ActiveQuestion

	sink Sink
}

func NewSession(b *bank.Bank, sink Sink) (*Session, error) {
	ledger, err := score.NewLedger(b.Teams())
	if err != nil {
		return nil, err
	}

	if sink == nil {
		sink = NopSink{}
	}

	return &Session{
		bank:   b,
		ledger: ledger,
		asked:  make(map[bank.Key]bool, b.Size()),
		phase:  PhaseIntro,
		sink:   sink,
	}, nil
}

func (s *Session) Bank() *bank.Bank {
	return s.bank
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Asked() AskedSet {
	asked := make(AskedSet, len(s.asked))
	for k := range s.asked {
		asked[k] = true
	}
	return asked
}

func (s *Session) Standings() []score.Standing {
	return s.ledger.Standings()
}

func (s *Session) requirePhase(cmd Command, phases ...Phase) error {
	for _, p := range phases {
		if s.phase == p {
			return nil
		}
	}
	return violation(InvalidTransition, s.phase, cmd, "not allowed in this phase")
}

// Check reports whether cmd would be accepted, without applying it.
func (s *Session) Check(cmd Command) error {
	switch cmd.Kind {
	case KindShowIntro:
		return s.requirePhase(cmd, PhaseIntro, PhaseBoard)
	case KindShowBoard:
		return s.requirePhase(cmd, PhaseIntro)
	case KindSelectQuestion:
		if err := s.requirePhase(cmd, PhaseBoard); err != nil {
			return err
		}

		k := bank.Key{Category: cmd.Category, Value: cmd.Value}
		if _, ok := s.bank.Question(k); !ok {
			return violation(UnknownQuestion, s.phase, cmd, "no question %s", k)
		}
		if s.asked[k] {
			return violation(InvalidTransition, s.phase, cmd, "question %s was already asked", k)
		}
		return nil
	case KindRevealAnswer, KindPauseTimer, KindResumeTimer:
		if s.active == nil {
			return violation(NoActiveQuestion, s.phase, cmd, "")
		}
		return s.requirePhase(cmd, PhaseQuestionShown)
	case KindRecordAnswer:
		if s.active == nil {
			return violation(NoActiveQuestion, s.phase, cmd, "")
		}
		if err := s.requirePhase(cmd, PhaseQuestionShown); err != nil {
			return err
		}
		if cmd.Team != "" && !s.ledger.Has(cmd.Team) {
			return violation(UnknownTeam, s.phase, cmd, "no team %q", cmd.Team)
		}
		return nil
	case KindReturnToBoard:
		return s.requirePhase(cmd, PhaseAnswerRecorded)
	case KindShowFinal:
		return s.requirePhase(cmd, PhaseBoard)
	case KindReset:
		return nil
	case KindShowThanks:
		return s.requirePhase(cmd, PhaseFinal)
	default:
		return violation(InvalidTransition, s.phase, cmd, "unknown command")
	}
}

// Apply runs cmd against the session. Rejected commands leave the session
// untouched; accepted ones are rendered to the sink before Apply returns.
func (s *Session) Apply(cmd Command) (Outcome, error) {
	if err := s.Check(cmd); err != nil {
		return Outcome{}, err
	}

	out := Outcome{From: s.phase}

	switch cmd.Kind {
	case KindShowIntro:
		s.phase = PhaseIntro
	case KindShowBoard:
		s.phase = PhaseBoard
	case KindSelectQuestion:
		q, _ := s.bank.Question(bank.Key{Category: cmd.Category, Value: cmd.Value})
		s.active = &ActiveQuestion{Question: q}
		if q.HasTimer {
			s.active.Clock.Start(q.TimeAllowance)
		}
		s.phase = PhaseQuestionShown
	case KindRevealAnswer:
		s.active.Revealed = true
		s.active.Clock.Pause()
	case KindPauseTimer:
		s.active.Clock.Pause()
	case KindResumeTimer:
		if !s.active.Revealed {
			s.active.Clock.Resume()
		}
	case KindRecordAnswer:
		q := s.active.Question
		delta := q.Value
		if !cmd.Correct {
			delta = -delta
		}
		if cmd.Team != "" {
			if err := s.ledger.Adjust(cmd.Team, delta); err != nil {
				return Outcome{}, fmt.Errorf("record answer: %w", err)
			}
			out.Team, out.Delta = cmd.Team, delta
		}
		s.asked[q.Key()] = true
		s.active.Clock.Pause()
		s.phase = PhaseAnswerRecorded
	case KindReturnToBoard:
		s.active.Clock.Cancel()
		s.active = nil
		s.phase = PhaseBoard
	case KindShowFinal:
		out.Forced = len(s.asked) < s.bank.Size()
		s.phase = PhaseFinal
	case KindReset:
		s.asked = make(map[bank.Key]bool, s.bank.Size())
		s.ledger.Reset()
		if s.active != nil {
			s.active.Clock.Cancel()
			s.active = nil
		}
		s.phase = PhaseIntro
	case KindShowThanks:
	}

	out.To = s.phase
	s.renderCommand(cmd.Kind)
	return out, nil
}

// Tick advances the countdown of the active question. It never changes
// the phase, even when the countdown runs out.
func (s *Session) Tick(elapsed int) int {
	if s.active == nil || !s.active.Question.HasTimer {
		return NoCountdown
	}

	before := s.active.Clock.Remaining
	remaining := s.active.Clock.Tick(elapsed)
	if remaining != before {
		s.renderQuestion()
	}
	return remaining
}

func (s *Session) renderQuestion() {
	if s.active == nil {
		return
	}
	s.sink.RenderQuestion(s.active.Question.Lines(), s.active.Remaining())
}

func (s *Session) renderCommand(kind Kind) {
	switch kind {
	case KindShowIntro, KindReset:
		s.sink.RenderIntro()
		s.sink.RenderScores(s.ledger.Standings())
	case KindShowBoard, KindReturnToBoard:
		s.sink.RenderBoard(s.bank.Categories(), s.Asked())
		s.sink.RenderScores(s.ledger.Standings())
	case KindSelectQuestion, KindRevealAnswer, KindPauseTimer, KindResumeTimer:
		s.renderQuestion()
	case KindRecordAnswer:
		s.sink.RenderScores(s.ledger.Standings())
	case KindShowFinal:
		s.sink.RenderFinal(s.ledger.Ranked())
	case KindShowThanks:
		s.sink.RenderThanks()
	}
}

// Render redraws the screen for the current phase from scratch.
func (s *Session) Render() {
	switch s.phase {
	case PhaseIntro:
		s.sink.RenderIntro()
	case PhaseBoard:
		s.sink.RenderBoard(s.bank.Categories(), s.Asked())
	case PhaseQuestionShown, PhaseAnswerRecorded:
		s.renderQuestion()
	case PhaseFinal:
		s.sink.RenderFinal(s.ledger.Ranked())
		return
	}
	s.sink.RenderScores(s.ledger.Standings())
}

// ActiveView describes the active question for status displays.
type ActiveView struct {
	Key       bank.Key `json:"key"`
	Remaining int      `json:"remaining"`
	Paused    bool     `json:"paused"`
	Revealed  bool     `json:"revealed"`
}

type State struct {
	Phase     Phase            `json:"phase"`
	Asked     []bank.Key       `json:"asked"`
	Standings []score.Standing `json:"standings"`
	Active    *ActiveView      `json:"active,omitempty"`
}

func (s *Session) Snapshot() State {
	st := State{
		Phase:     s.phase,
		Standings: s.ledger.Standings(),
	}
	for _, k := range s.bank.Keys() {
		if s.asked[k] {
			st.Asked = append(st.Asked, k)
		}
	}
	if s.active != nil {
		st.Active = &ActiveView{
			Key:       s.active.Question.Key(),
			Remaining: s.active.Remaining(),
			Paused:    s.active.Clock.Paused,
			Revealed:  s.active.Revealed,
		}
	}
	return st
}
