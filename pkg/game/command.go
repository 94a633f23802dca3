package game

import (
	"fmt"
	"strings"
)

// Kind names a command the control process can issue.
type Kind int

// The order of these constants must be preserved
const (
	KindUnknown Kind = iota
	KindShowIntro
	KindShowBoard
	KindSelectQuestion
	KindRevealAnswer
	KindRecordAnswer
	KindReturnToBoard
	KindShowFinal
	KindReset
	KindPauseTimer
	KindResumeTimer
	KindShowThanks
)

func (k Kind) String() string {
	switch k {
	case KindShowIntro:
		return "ShowIntro"
	case KindShowBoard:
		return "ShowBoard"
	case KindSelectQuestion:
		return "SelectQuestion"
	case KindRevealAnswer:
		return "RevealAnswer"
	case KindRecordAnswer:
		return "RecordAnswer"
	case KindReturnToBoard:
		return "ReturnToBoard"
	case KindShowFinal:
		return "ShowFinal"
	case KindReset:
		return "Reset"
	case KindPauseTimer:
		return "PauseTimer"
	case KindResumeTimer:
		return "ResumeTimer"
	case KindShowThanks:
		return "ShowThanks"
	default:
		return "Unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText never fails: names it does not know decode to KindUnknown,
// which the state machine rejects like any other invalid command.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = KindUnknown
	for c := KindShowIntro; c <= KindShowThanks; c++ {
		if strings.EqualFold(c.String(), string(text)) {
			*k = c
			return nil
		}
	}
	return nil
}

// Command is a request to move the state machine. Only the fields its Kind
// needs are set.
type Command struct {
	Kind     Kind   `json:"kind"`
	Category string `json:"category,omitempty"`
	Value    int    `json:"value,omitempty"`
	Team     string `json:"team,omitempty"`
	Correct  bool   `json:"correct,omitempty"`
}

func (c Command) String() string {
	switch c.Kind {
	case KindSelectQuestion:
		return fmt.Sprintf("%s(%s, %d)", c.Kind, c.Category, c.Value)
	case KindRecordAnswer:
		team := c.Team
		if team == "" {
			team = "nobody"
		}
		return fmt.Sprintf("%s(%s, %t)", c.Kind, team, c.Correct)
	default:
		return c.Kind.String()
	}
}

func Simple(kind Kind) Command {
	return Command{Kind: kind}
}

func Select(category string, value int) Command {
	return Command{Kind: KindSelectQuestion, Category: category, Value: value}
}

// Answer records team's answer to the active question. An empty team means
// nobody answered.
func Answer(team string, correct bool) Command {
	return Command{Kind: KindRecordAnswer, Team: team, Correct: correct}
}
