package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultLabel is used when a RAT is created without a label.
const DefaultLabel = "Team Quiz"

// Card states as reported to the teacher's status table.
const (
	CardIdle     = "idle"
	CardOngoing  = "ongoing"
	CardFinished = "finished"
)

// Card is one team's scratch card: every question of the test, with that
// team's uncover progress. The id doubles as the student-facing bookmark
// token, so it is globally unique and unguessable.
//
// Questions are keyed by their decimal number ("1".."N") to keep the
// persisted document shape stable.
type Card struct {
	ID           string               `json:"id"`
	Label        string               `json:"label"`
	Team         string               `json:"team"`
	Alternatives int                  `json:"alternatives"`
	Solution     string               `json:"solution"`
	Color        string               `json:"color"`
	Questions    map[string]*Question `json:"questions"`
}

// NewCard builds a fresh card with one unstarted question per solution
// letter. The solution length must match the question count; callers are
// expected to have validated the solution already, this is a second line of
// defense.
func NewCard(label, team string, questions, alternatives int, solution, color string) (*Card, error) {
	if len(solution) != questions {
		return nil, ErrInvalidSolution
	}
	if label == "" {
		label = DefaultLabel
	}
	card := &Card{
		ID:           uuid.NewString(),
		Label:        label,
		Team:         team,
		Alternatives: alternatives,
		Solution:     solution,
		Color:        color,
		Questions:    make(map[string]*Question, questions),
	}
	for i, letter := range strings.Split(solution, "") {
		number := i + 1
		card.Questions[strconv.Itoa(number)] = NewQuestion(number, letter, alternatives)
	}
	return card, nil
}

// Question returns the question with the given 1-based number.
func (c *Card) Question(number int) (*Question, error) {
	question, ok := c.Questions[strconv.Itoa(number)]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	return question, nil
}

// Uncover reveals one alternative of one question. The caller persists the
// card afterwards; the card itself performs no I/O.
func (c *Card) Uncover(number int, symbol string) error {
	question, err := c.Question(number)
	if err != nil {
		return err
	}
	return question.Uncover(symbol)
}

// QuestionNumbers returns the card's question numbers in ascending order.
func (c *Card) QuestionNumbers() []int {
	numbers := make([]int, 0, len(c.Questions))
	for number := 1; number <= len(c.Questions); number++ {
		numbers = append(numbers, number)
	}
	return numbers
}

// State reports the card as finished when every question is finished,
// ongoing when any question was started, and idle otherwise.
func (c *Card) State() string {
	started := false
	finished := true
	for _, question := range c.Questions {
		if question.Started {
			started = true
		}
		if !question.Finished {
			finished = false
		}
	}
	switch {
	case finished:
		return CardFinished
	case started:
		return CardOngoing
	default:
		return CardIdle
	}
}

// Score counts the questions answered correctly on the first attempt.
func (c *Card) Score() int {
	score := 0
	for _, question := range c.Questions {
		if question.CorrectOnFirstAttempt {
			score++
		}
	}
	return score
}

// TextResult renders the card as a single export line, e.g. "3/AB-C": the
// team followed by each question's first guess in question order, with a
// dash for untouched questions.
func (c *Card) TextResult() string {
	var b strings.Builder
	b.WriteString(c.Team)
	b.WriteString("/")
	for _, number := range c.QuestionNumbers() {
		b.WriteString(c.Questions[strconv.Itoa(number)].ExportState())
	}
	return b.String()
}
