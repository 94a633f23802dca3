// Package console is the quiz master's command line.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/game"
	"github.com/qnkhuat/quizterm/pkg/protocol"
)

const Prompt = "quiz> "

var ErrQuit = errors.New("quit")

// Controller is what the console drives. *protocol.Controller implements it.
type Controller interface {
	Issue(ctx context.Context, cmd game.Command) (game.Outcome, error)
	Close(ctx context.Context, reason string) error
	State() game.State
	Info() protocol.Info
	Bank() *bank.Bank
}

type Console struct {
	ctl Controller
	out io.Writer

	errColor  *color.Color
	okColor   *color.Color
	warnColor *color.Color
	dimColor  *color.Color
}

func New(ctl Controller, out io.Writer) *Console {
	return &Console{
		ctl:       ctl,
		out:       out,
		errColor:  color.New(color.FgRed, color.Bold),
		okColor:   color.New(color.FgGreen),
		warnColor: color.New(color.FgYellow),
		dimColor:  color.New(color.Faint),
	}
}

func (c *Console) printf(format string, a ...interface{}) {
	fmt.Fprintf(c.out, format, a...)
}

// Run reads commands from rw until quit, end of input or a lost
// connection. rw is usually a terminal in raw mode.
func (c *Console) Run(ctx context.Context, rw io.ReadWriter) error {
	t := term.NewTerminal(rw, Prompt)
	t.AutoCompleteCallback = complete
	c.out = t

	c.printf("Connected to %s as %s. Type help for commands.\n", c.ctl.Info().Display, c.ctl.Info().SessionName)

	for {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				_, err := c.Execute(ctx, string(ActionQuit))
				return ignoreQuit(err)
			}
			return err
		}

		_, err = c.Execute(ctx, line)
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit):
			return nil
		case errors.Is(err, protocol.ErrConnectionLost):
			c.errColor.Fprintf(c.out, "%s\n", err)
			return err
		default:
			c.errColor.Fprintf(c.out, "%s\n", err)
		}
	}
}

func ignoreQuit(err error) error {
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

// complete fills in action names on tab.
func complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || strings.Contains(line, " ") {
		return "", 0, false
	}

	var match string
	for _, name := range actionNames() {
		if strings.HasPrefix(name, line) {
			if match != "" {
				return "", 0, false
			}
			match = name
		}
	}
	if match == "" {
		return "", 0, false
	}
	return match + " ", len(match) + 1, true
}

// Parse splits a command line into an action and its arguments. Quotes
// group words, so category names may contain spaces.
func Parse(line string) (Action, []string, error) {
	words, err := shlex.Split(line, true)
	if err != nil {
		return ActionUnknown, nil, fmt.Errorf("cannot parse %q: %w", line, err)
	}
	if len(words) == 0 {
		return ActionUnknown, nil, nil
	}

	a := ParseAction(words[0])
	if a == ActionUnknown {
		return ActionUnknown, nil, fmt.Errorf("unknown command %q, try help", words[0])
	}

	args := words[1:]
	if want := actions[a].args; len(args) != want {
		return a, nil, fmt.Errorf("usage: %s", actions[a].usage)
	}
	return a, args, nil
}

// Execute runs one command line. It returns ErrQuit once the session is
// closed.
func (c *Console) Execute(ctx context.Context, line string) (game.Outcome, error) {
	a, args, err := Parse(line)
	if err != nil || a == ActionUnknown {
		return game.Outcome{}, err
	}

	var cmd game.Command
	switch a {
	case ActionIntro:
		cmd = game.Simple(game.KindShowIntro)
	case ActionBoard:
		cmd = game.Simple(game.KindShowBoard)
	case ActionAsk:
		cmd, err = c.selectCommand(args[0], args[1])
		if err != nil {
			return game.Outcome{}, err
		}
	case ActionReveal:
		cmd = game.Simple(game.KindRevealAnswer)
	case ActionRight, ActionWrong:
		team, err := c.team(args[0])
		if err != nil {
			return game.Outcome{}, err
		}
		cmd = game.Answer(team, a == ActionRight)
	case ActionNobody:
		cmd = game.Answer("", false)
	case ActionBack:
		cmd = game.Simple(game.KindReturnToBoard)
	case ActionFinal:
		cmd = game.Simple(game.KindShowFinal)
	case ActionThanks:
		cmd = game.Simple(game.KindShowThanks)
	case ActionReset:
		cmd = game.Simple(game.KindReset)
	case ActionPause:
		cmd = game.Simple(game.KindPauseTimer)
	case ActionResume:
		cmd = game.Simple(game.KindResumeTimer)
	case ActionOpen:
		c.printOpen()
		return game.Outcome{}, nil
	case ActionScores:
		c.printScores()
		return game.Outcome{}, nil
	case ActionInfo:
		c.printInfo()
		return game.Outcome{}, nil
	case ActionHelp:
		c.printHelp()
		return game.Outcome{}, nil
	case ActionQuit:
		if err := c.ctl.Close(ctx, "stop"); err != nil {
			return game.Outcome{}, err
		}
		c.printf("Display closed.\n")
		return game.Outcome{}, ErrQuit
	}

	out, err := c.ctl.Issue(ctx, cmd)
	if err != nil {
		log.Debug().Err(err).Str("command", cmd.String()).Msg("command failed")
		return out, err
	}
	c.report(cmd, out)
	return out, nil
}

// selectCommand resolves a category by case insensitive name or unique
// prefix.
func (c *Console) selectCommand(category, value string) (game.Command, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return game.Command{}, fmt.Errorf("value %q is not a number", value)
	}

	name, err := resolve(category, c.ctl.Bank().Categories(), "category")
	if err != nil {
		return game.Command{}, err
	}
	return game.Select(name, v), nil
}

func (c *Console) team(s string) (string, error) {
	return resolve(s, c.ctl.Bank().Teams(), "team")
}

func resolve(s string, names []string, what string) (string, error) {
	for _, n := range names {
		if strings.EqualFold(n, s) {
			return n, nil
		}
	}

	var match string
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), strings.ToLower(s)) {
			if match != "" {
				return "", fmt.Errorf("%s %q is ambiguous", what, s)
			}
			match = n
		}
	}
	if match == "" {
		// Unknown names are left for the display to reject.
		return s, nil
	}
	return match, nil
}

func (c *Console) report(cmd game.Command, out game.Outcome) {
	switch {
	case out.Forced:
		c.warnColor.Fprintf(c.out, "Final standings shown with %d questions left.\n",
			c.ctl.Bank().Size()-len(c.ctl.State().Asked))
	case cmd.Kind == game.KindRecordAnswer && out.Team == "":
		c.okColor.Fprintf(c.out, "Nobody scores.\n")
	case cmd.Kind == game.KindRecordAnswer:
		c.okColor.Fprintf(c.out, "%s %+d\n", out.Team, out.Delta)
	}
	c.dimColor.Fprintf(c.out, "%s -> %s\n", cmd, out.To)

	if cmd.Kind == game.KindRecordAnswer {
		c.printScores()
	}
}

func (c *Console) printScores() {
	for _, st := range c.ctl.State().Standings {
		c.printf("  %-20s %5d\n", st.Team, st.Score)
	}
}

func (c *Console) printOpen() {
	asked := make(map[bank.Key]bool)
	for _, k := range c.ctl.State().Asked {
		asked[k] = true
	}

	b := c.ctl.Bank()
	for _, cat := range b.Categories() {
		var open []string
		for _, v := range bank.Values {
			if !asked[bank.Key{Category: cat, Value: v}] {
				open = append(open, strconv.Itoa(v))
			}
		}
		if len(open) == 0 {
			c.dimColor.Fprintf(c.out, "  %-20s done\n", cat)
			continue
		}
		c.printf("  %-20s %s\n", cat, strings.Join(open, " "))
	}
}

func (c *Console) printInfo() {
	info := c.ctl.Info()
	st := c.ctl.State()

	c.printf("Display:   %s\n", info.Display)
	c.printf("Session:   %s (%s)\n", info.SessionName, info.SessionID)
	c.printf("Phase:     %s\n", st.Phase)
	c.printf("Running:   %d min\n", int(info.Running.Minutes()))
	c.printf("Answered:  %d of %d\n", info.Answered, c.ctl.Bank().Size())
	if per, ok := info.PerAnswer(); ok {
		c.printf("Per answer: %d s\n", int(per.Seconds()))
	} else {
		c.printf("Per answer: no question answered yet\n")
	}
	// The countdown only runs on the display, so the mirror knows the
	// allowance and nothing more.
	if st.Active != nil {
		c.printf("Active:    %s", st.Active.Key)
		if st.Active.Remaining == game.NoCountdown {
			c.printf(", no timer")
		} else {
			c.printf(", %d s allowed", st.Active.Remaining)
		}
		if st.Active.Paused {
			c.printf(" (paused)")
		}
		c.printf("\n")
	}
}

func (c *Console) printHelp() {
	for _, name := range actionNames() {
		info := actions[Action(name)]
		c.printf("  %-22s %s\n", info.usage, info.help)
	}
}
