package gui

import (
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"
)

// Terminal safe color palette is available here
// Themes should be limited to the colors defined in this reference
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

var ErrNoTheme = errors.New("theme: no theme found")

// Theme is used for dynamically coloring the UI
type Theme struct {
	Name          string
	Background    tcell.Color
	Title         tcell.Color
	Category      tcell.Color
	Cell          tcell.Color
	CellText      tcell.Color
	Asked         tcell.Color
	Question      tcell.Color
	Countdown     tcell.Color
	CountdownLow  tcell.Color
	TeamName      tcell.Color
	Score         tcell.Color
	ScoreNegative tcell.Color
	Winner        tcell.Color
	Msg           tcell.Color
}

// ThemeHex is the form themes take in a theme file
type ThemeHex struct {
	Name          string `yaml:"name" json:"name"`
	Background    string `yaml:"background" json:"background"`
	Title         string `yaml:"title" json:"title"`
	Category      string `yaml:"category" json:"category"`
	Cell          string `yaml:"cell" json:"cell"`
	CellText      string `yaml:"cellText" json:"cellText"`
	Asked         string `yaml:"asked" json:"asked"`
	Question      string `yaml:"question" json:"question"`
	Countdown     string `yaml:"countdown" json:"countdown"`
	CountdownLow  string `yaml:"countdownLow" json:"countdownLow"`
	TeamName      string `yaml:"teamName" json:"teamName"`
	Score         string `yaml:"score" json:"score"`
	ScoreNegative string `yaml:"scoreNegative" json:"scoreNegative"`
	Winner        string `yaml:"winner" json:"winner"`
	Msg           string `yaml:"msg" json:"msg"`
}

// fmtHex returns a one character hex for the ColorDefault
// and otherwise it returns a standard hex. This is useful
// because it allows ColorDefault to be imported from the config
// and parsed properly rather than being interpreted as black
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

// Hex converts a Theme to a ThemeHex
func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		Name:          t.Name,
		Background:    fmtHex(t.Background.Hex()),
		Title:         fmtHex(t.Title.Hex()),
		Category:      fmtHex(t.Category.Hex()),
		Cell:          fmtHex(t.Cell.Hex()),
		CellText:      fmtHex(t.CellText.Hex()),
		Asked:         fmtHex(t.Asked.Hex()),
		Question:      fmtHex(t.Question.Hex()),
		Countdown:     fmtHex(t.Countdown.Hex()),
		CountdownLow:  fmtHex(t.CountdownLow.Hex()),
		TeamName:      fmtHex(t.TeamName.Hex()),
		Score:         fmtHex(t.Score.Hex()),
		ScoreNegative: fmtHex(t.ScoreNegative.Hex()),
		Winner:        fmtHex(t.Winner.Hex()),
		Msg:           fmtHex(t.Msg.Hex()),
	}
}

// Theme converts a ThemeHex to a Theme. Empty entries keep the color of
// ThemeBasic.
func (t ThemeHex) Theme() Theme {
	color := func(hex string, fallback tcell.Color) tcell.Color {
		if hex == "" {
			return fallback
		}
		if hex == "#0" {
			return tcell.ColorDefault
		}
		return tcell.GetColor(hex)
	}

	b := ThemeBasic
	return Theme{
		Name:          t.Name,
		Background:    color(t.Background, b.Background),
		Title:         color(t.Title, b.Title),
		Category:      color(t.Category, b.Category),
		Cell:          color(t.Cell, b.Cell),
		CellText:      color(t.CellText, b.CellText),
		Asked:         color(t.Asked, b.Asked),
		Question:      color(t.Question, b.Question),
		Countdown:     color(t.Countdown, b.Countdown),
		CountdownLow:  color(t.CountdownLow, b.CountdownLow),
		TeamName:      color(t.TeamName, b.TeamName),
		Score:         color(t.Score, b.Score),
		ScoreNegative: color(t.ScoreNegative, b.ScoreNegative),
		Winner:        color(t.Winner, b.Winner),
		Msg:           color(t.Msg, b.Msg),
	}
}

// ImportThemes returns a converted Theme from a slice of ThemeHex
// entities if its name matches the want argument
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	if want == "" || want == ThemeBasic.Name {
		return ThemeBasic, nil
	}

	return Theme{}, ErrNoTheme
}

type themeFile struct {
	Themes []ThemeHex `yaml:"themes"`
}

// LoadTheme reads the theme called want from a yaml theme file. An empty
// path only knows the built in theme.
func LoadTheme(path, want string) (Theme, error) {
	if path == "" {
		return ImportThemes(want, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("theme: %w", err)
	}

	var f themeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Theme{}, fmt.Errorf("theme: %s: %w", path, err)
	}
	return ImportThemes(want, f.Themes)
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	"basic",            // Name
	tcell.ColorDefault, // Background
	tcell.Color220,     // Title
	tcell.Color220,     // Category
	tcell.Color19,      // Cell
	tcell.Color231,     // CellText
	tcell.Color236,     // Asked
	tcell.Color231,     // Question
	tcell.Color45,      // Countdown
	tcell.Color160,     // CountdownLow
	tcell.Color252,     // TeamName
	tcell.Color122,     // Score
	tcell.Color167,     // ScoreNegative
	tcell.Color226,     // Winner
	tcell.Color160,     // Msg
}
