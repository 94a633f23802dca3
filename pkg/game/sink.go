package game

import (
	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/score"
)

// NoCountdown is passed as remaining time for questions without a timer.
const NoCountdown = -1

// AskedSet is a snapshot of the board cells already played.
type AskedSet map[bank.Key]bool

func (a AskedSet) Has(k bank.Key) bool {
	return a[k]
}

// Sink receives render intents from the state machine. Implementations
// must not block: the machine calls them between frames.
type Sink interface {
	RenderIntro()
	RenderBoard(categories []string, asked AskedSet)
	RenderQuestion(lines []string, remaining int)
	RenderScores(standings []score.Standing)
	RenderFinal(standings []score.Standing)
	RenderThanks()
}

type NopSink struct{}

func (NopSink) RenderIntro() {}
func (NopSink) RenderBoard(categories []string, asked AskedSet) {}
func (NopSink) RenderQuestion(lines []string, remaining int) {}
func (NopSink) RenderScores(standings []score.Standing) {}
func (NopSink) RenderFinal(standings []score.Standing) {}
func (NopSink) RenderThanks() {}
