// Package gui draws the audience screen with tview.
package gui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/qnkhuat/quizterm/pkg/bank"
	"github.com/qnkhuat/quizterm/pkg/game"
	"github.com/qnkhuat/quizterm/pkg/score"
)

const (
	PageIntro    = "intro"
	PageBoard    = "board"
	PageQuestion = "question"
	PageFinal    = "final"
	PageThanks   = "thanks"
	PageWaiting  = "waiting"

	scoresHeight = 3
	// Countdowns at or below this are drawn in the warning color.
	lowCountdown = 10
)

// Sink renders game state into tview widgets. Every update is queued on
// the application's event loop, so it may be called from any goroutine.
type Sink struct {
	App *tview.Application

	theme Theme
	title string
	queue func(func())

	layout    *tview.Flex
	pages     *tview.Pages
	intro     *tview.TextView
	board     *tview.Table
	question  *tview.TextView
	countdown *tview.TextView
	scores    *tview.Table
	final     *tview.Table
	thanks    *tview.TextView
	waiting   *tview.TextView
}

// NewSink builds the screens. Until Attach is called updates are applied
// immediately.
func NewSink(theme Theme, title string) *Sink {
	s := &Sink{
		theme: theme,
		title: title,
		queue: func(f func()) { f() },
	}

	s.intro = s.newText(theme.Title)
	s.question = s.newText(theme.Question)
	s.countdown = s.newText(theme.Countdown)
	s.thanks = s.newText(theme.Title)
	s.waiting = s.newText(theme.Msg)

	s.board = tview.NewTable().
		SetBorders(true).
		SetBordersColor(theme.Category)
	s.board.SetBackgroundColor(theme.Background)

	s.scores = tview.NewTable()
	s.scores.SetBackgroundColor(theme.Background)

	s.final = tview.NewTable().
		SetBorders(false)
	s.final.SetBackgroundColor(theme.Background)
	s.final.SetBorder(true).
		SetTitle(" Final standings ").
		SetTitleColor(theme.Title)

	questionPage := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(s.question, 0, 1, false).
		AddItem(s.countdown, 1, 0, false)

	s.pages = tview.NewPages().
		AddPage(PageIntro, center(s.intro, 60, 9), true, false).
		AddPage(PageBoard, s.board, true, false).
		AddPage(PageQuestion, questionPage, true, false).
		AddPage(PageFinal, center(s.final, 50, 8), true, false).
		AddPage(PageThanks, center(s.thanks, 60, 5), true, false).
		AddPage(PageWaiting, center(s.waiting, 70, 40), true, true)

	s.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(s.pages, 0, 1, false).
		AddItem(s.scores, 0, 0, false)

	return s
}

func (s *Sink) newText(fg tcell.Color) *tview.TextView {
	tv := tview.NewTextView().
		SetScrollable(false).
		SetTextAlign(tview.AlignCenter).
		SetWrap(true).
		SetWordWrap(true).
		SetTextColor(fg)
	tv.SetBackgroundColor(s.theme.Background)
	return tv
}

// center places p in the middle of the screen at the given size.
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewGrid().
		SetColumns(0, width, 0).
		SetRows(0, height, 0).
		AddItem(p, 1, 1, 1, 1, 0, 0, false)
}

// Attach makes the sink the root of app and routes updates through its
// event loop.
func (s *Sink) Attach(app *tview.Application) {
	s.App = app
	s.queue = func(f func()) {
		app.QueueUpdateDraw(f)
	}
	app.SetRoot(s.layout, true)
}

func (s *Sink) Root() tview.Primitive {
	return s.layout
}

func (s *Sink) show(page string, withScores bool) {
	s.pages.SwitchToPage(page)
	height := 0
	if withScores {
		height = scoresHeight
	}
	s.layout.ResizeItem(s.scores, height, 0)
}

func (s *Sink) RenderIntro() {
	s.queue(func() {
		s.intro.SetText(fmt.Sprintf("\n\n%s\n\n", strings.ToUpper(s.title)))
		s.show(PageIntro, true)
	})
}

func (s *Sink) RenderBoard(categories []string, asked game.AskedSet) {
	s.queue(func() {
		s.board.Clear()
		for col, c := range categories {
			s.board.SetCell(0, col, tview.NewTableCell(c).
				SetTextColor(s.theme.Category).
				SetAlign(tview.AlignCenter).
				SetExpansion(1).
				SetSelectable(false))

			for row, v := range bank.Values {
				text := fmt.Sprintf("%d", v)
				bg := s.theme.Cell
				if asked.Has(bank.Key{Category: c, Value: v}) {
					text = ""
					bg = s.theme.Asked
				}
				s.board.SetCell(row+1, col, tview.NewTableCell(text).
					SetTextColor(s.theme.CellText).
					SetBackgroundColor(bg).
					SetAlign(tview.AlignCenter).
					SetExpansion(1))
			}
		}
		s.show(PageBoard, true)
	})
}

func formatCountdown(remaining int) string {
	if remaining == game.NoCountdown {
		return ""
	}
	return fmt.Sprintf("%03d", remaining)
}

func (s *Sink) RenderQuestion(lines []string, remaining int) {
	s.queue(func() {
		s.question.SetText("\n\n" + strings.Join(lines, "\n"))

		s.countdown.SetText(formatCountdown(remaining))
		if remaining != game.NoCountdown && remaining <= lowCountdown {
			s.countdown.SetTextColor(s.theme.CountdownLow)
		} else {
			s.countdown.SetTextColor(s.theme.Countdown)
		}

		s.show(PageQuestion, true)
	})
}

func (s *Sink) scoreColor(points int) tcell.Color {
	if points < 0 {
		return s.theme.ScoreNegative
	}
	return s.theme.Score
}

// RenderScores updates the score bar. It does not switch pages.
func (s *Sink) RenderScores(standings []score.Standing) {
	s.queue(func() {
		s.scores.Clear()
		for col, st := range standings {
			s.scores.SetCell(0, col, tview.NewTableCell(st.Team).
				SetTextColor(s.theme.TeamName).
				SetAlign(tview.AlignCenter).
				SetExpansion(1))
			s.scores.SetCell(1, col, tview.NewTableCell(fmt.Sprintf("%d", st.Score)).
				SetTextColor(s.scoreColor(st.Score)).
				SetAlign(tview.AlignCenter).
				SetExpansion(1))
		}
	})
}

// RenderFinal lists standings as ranked by the caller, top first.
func (s *Sink) RenderFinal(standings []score.Standing) {
	s.queue(func() {
		s.final.Clear()
		for row, st := range standings {
			fg := s.theme.TeamName
			if row == 0 {
				fg = s.theme.Winner
			}
			s.final.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d.", row+1)).SetTextColor(fg))
			s.final.SetCell(row, 1, tview.NewTableCell(st.Team).SetTextColor(fg).SetExpansion(1))
			s.final.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", st.Score)).
				SetTextColor(s.scoreColor(st.Score)).
				SetAlign(tview.AlignRight))
		}
		s.show(PageFinal, false)
	})
}

func (s *Sink) RenderThanks() {
	s.queue(func() {
		s.thanks.SetText("\n\nThanks for playing!")
		s.show(PageThanks, false)
	})
}

// RenderWaiting shows where the control process should connect, as text
// and as a QR code.
func (s *Sink) RenderWaiting(address string) {
	text := fmt.Sprintf("Waiting for the quiz master\n\n%s\n\n", address)
	if qr, err := qrcode.New(address, qrcode.Medium); err != nil {
		log.Warn().Err(err).Str("addr", address).Msg("failed to encode address as qr code")
	} else {
		text += qr.ToSmallString(false)
	}

	s.queue(func() {
		s.waiting.SetText(text)
		s.show(PageWaiting, false)
	})
}

// FrontPage is the name of the page currently shown.
func (s *Sink) FrontPage() string {
	name, _ := s.pages.GetFrontPage()
	return name
}
