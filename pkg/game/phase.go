package game

import (
	"fmt"
)

// Phase is what the audience currently sees.
type Phase int

const (
	PhaseIntro Phase = iota
	PhaseBoard
	PhaseQuestionShown
	PhaseAnswerRecorded
	PhaseFinal
)

var phaseNames = map[Phase]string{
	PhaseIntro:          "INTRO",
	PhaseBoard:          "BOARD",
	PhaseQuestionShown:  "QUESTION_SHOWN",
	PhaseAnswerRecorded: "ANSWER_RECORDED",
	PhaseFinal:          "FINAL",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
