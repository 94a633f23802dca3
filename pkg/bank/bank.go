// Package bank holds the immutable question bank a quiz session is played
// from: five categories of five questions each, plus the three teams.
package bank

import (
	"fmt"
	"strings"
)

const (
	NumCategories = 5
	NumTeams      = 3

	// LineBreak separates the display lines of a question text.
	LineBreak = "#"
)

// Values are the point values every category must provide, in board order.
var Values = [...]int{20, 40, 60, 80, 100}

// Key identifies a question on the board.
type Key struct {
	Category string `json:"category" yaml:"category"`
	Value    int    `json:"value" yaml:"value"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Category, k.Value)
}

type Question struct {
	Category      string
	Value         int
	HasTimer      bool
	TimeAllowance int
	Text          string
}

func (q Question) Key() Key {
	return Key{Category: q.Category, Value: q.Value}
}

// Lines splits the question text into the lines shown on screen.
func (q Question) Lines() []string {
	return strings.Split(q.Text, LineBreak)
}

// Bank is read-only once Load returns it.
type Bank struct {
	categories []string
	teams      []string
	questions  map[Key]Question
}

// Categories returns the category names in document order.
func (b *Bank) Categories() []string {
	return append([]string(nil), b.categories...)
}

// Teams returns the team names in registration order.
func (b *Bank) Teams() []string {
	return append([]string(nil), b.teams...)
}

func (b *Bank) Question(k Key) (Question, bool) {
	q, ok := b.questions[k]
	return q, ok
}

// Keys lists every question, category by category, in value order.
func (b *Bank) Keys() []Key {
	keys := make([]Key, 0, len(b.questions))
	for _, c := range b.categories {
		for _, v := range Values {
			keys = append(keys, Key{Category: c, Value: v})
		}
	}
	return keys
}

func (b *Bank) Size() int {
	return len(b.questions)
}

// Raw converts the bank back into its transferable form.
func (b *Bank) Raw() Raw {
	raw := Raw{Teams: b.Teams()}
	for _, c := range b.categories {
		rc := RawCategory{Name: c}
		for _, v := range Values {
			q := b.questions[Key{Category: c, Value: v}]
			rc.Questions = append(rc.Questions, RawQuestion{
				Value:         q.Value,
				HasTimer:      q.HasTimer,
				TimeAllowance: q.TimeAllowance,
				Text:          q.Text,
			})
		}
		raw.Categories = append(raw.Categories, rc)
	}
	return raw
}

// Raw is an unvalidated bank as it arrives from a document or the wire.
type Raw struct {
	Teams      []string      `json:"teams" yaml:"teams"`
	Categories []RawCategory `json:"categories" yaml:"categories"`
}

type RawCategory struct {
	Name      string        `json:"name" yaml:"name"`
	Questions []RawQuestion `json:"questions" yaml:"questions"`
}

type RawQuestion struct {
	Value         int    `json:"value" yaml:"value"`
	HasTimer      bool   `json:"has_timer" yaml:"has_timer"`
	TimeAllowance int    `json:"time_allowance" yaml:"time_allowance"`
	Text          string `json:"text" yaml:"text"`
}

func validValue(v int) bool {
	for _, value := range Values {
		if value == v {
			return true
		}
	}
	return false
}

// Load validates raw and builds a Bank from it.
func Load(raw Raw) (*Bank, error) {
	if len(raw.Teams) != NumTeams {
		return nil, newLoadError(TeamCountMismatch, "want %d teams, got %d", NumTeams, len(raw.Teams))
	}

	seenTeams := make(map[string]bool, NumTeams)
	for _, t := range raw.Teams {
		if strings.TrimSpace(t) == "" {
			return nil, newLoadError(MalformedSchema, "empty team name")
		}
		if seenTeams[t] {
			return nil, newLoadError(TeamCountMismatch, "team %q listed twice", t)
		}
		seenTeams[t] = true
	}

	if len(raw.Categories) != NumCategories {
		return nil, newLoadError(MalformedSchema, "want %d categories, got %d", NumCategories, len(raw.Categories))
	}

	b := &Bank{
		teams:     append([]string(nil), raw.Teams...),
		questions: make(map[Key]Question, NumCategories*len(Values)),
	}

	for _, c := range raw.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, newLoadError(MalformedSchema, "empty category name")
		}
		for _, existing := range b.categories {
			if existing == c.Name {
				return nil, newLoadError(MalformedSchema, "category %q listed twice", c.Name)
			}
		}

		for _, q := range c.Questions {
			if !validValue(q.Value) {
				return nil, newLoadError(MalformedSchema, "category %q: invalid value %d", c.Name, q.Value)
			}

			k := Key{Category: c.Name, Value: q.Value}
			if _, ok := b.questions[k]; ok {
				return nil, newLoadError(DuplicateValue, "category %q: value %d listed twice", c.Name, q.Value)
			}
			if q.TimeAllowance < 0 {
				return nil, newLoadError(MalformedSchema, "question %s: negative time allowance", k)
			}
			if strings.TrimSpace(q.Text) == "" {
				return nil, newLoadError(MalformedSchema, "question %s: empty text", k)
			}

			b.questions[k] = Question{
				Category:      c.Name,
				Value:         q.Value,
				HasTimer:      q.HasTimer,
				TimeAllowance: q.TimeAllowance,
				Text:          q.Text,
			}
		}

		if len(c.Questions) != len(Values) {
			return nil, newLoadError(MalformedSchema, "category %q: want %d questions, got %d", c.Name, len(Values), len(c.Questions))
		}

		b.categories = append(b.categories, c.Name)
	}

	return b, nil
}
