package console

import (
	"sort"
	"strings"
)

type Action string

const (
	ActionIntro   Action = "intro"
	ActionBoard   Action = "board"
	ActionAsk     Action = "ask"
	ActionReveal  Action = "reveal"
	ActionRight   Action = "right"
	ActionWrong   Action = "wrong"
	ActionNobody  Action = "nobody"
	ActionBack    Action = "back"
	ActionFinal   Action = "final"
	ActionThanks  Action = "thanks"
	ActionReset   Action = "reset"
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionOpen    Action = "open"
	ActionScores  Action = "scores"
	ActionInfo    Action = "info"
	ActionHelp    Action = "help"
	ActionQuit    Action = "quit"
	ActionUnknown Action = ""
)

type actionInfo struct {
	usage string
	help  string
	args  int
}

var actions = map[Action]actionInfo{
	ActionIntro:  {"intro", "show the intro screen", 0},
	ActionBoard:  {"board", "show the board", 0},
	ActionAsk:    {"ask CATEGORY VALUE", "show a question", 2},
	ActionReveal: {"reveal", "stop the countdown, the answer is out", 0},
	ActionRight:  {"right TEAM", "TEAM answered correctly", 1},
	ActionWrong:  {"wrong TEAM", "TEAM answered wrong", 1},
	ActionNobody: {"nobody", "nobody answered", 0},
	ActionBack:   {"back", "return to the board", 0},
	ActionFinal:  {"final", "show the final standings", 0},
	ActionThanks: {"thanks", "show the thanks screen", 0},
	ActionReset:  {"reset", "start over with zero scores", 0},
	ActionPause:  {"pause", "pause the countdown", 0},
	ActionResume: {"resume", "resume the countdown", 0},
	ActionOpen:   {"open", "list questions not asked yet", 0},
	ActionScores: {"scores", "print the scores", 0},
	ActionInfo:   {"info", "print session statistics", 0},
	ActionHelp:   {"help", "print this help", 0},
	ActionQuit:   {"quit", "end the show and close the display", 0},
}

var aliases = map[string]Action{
	"q":     ActionQuit,
	"exit":  ActionQuit,
	"stop":  ActionQuit,
	"?":     ActionHelp,
	"s":     ActionAsk,
	"show":  ActionAsk,
	"none":  ActionNobody,
	"ok":    ActionRight,
	"no":    ActionWrong,
	"end":   ActionFinal,
	"start": ActionIntro,
}

func ParseAction(s string) Action {
	s = strings.ToLower(s)
	if _, ok := actions[Action(s)]; ok {
		return Action(s)
	}
	if a, ok := aliases[s]; ok {
		return a
	}
	return ActionUnknown
}

// actionNames lists every action, sorted.
func actionNames() []string {
	names := make([]string, 0, len(actions))
	for a := range actions {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}
