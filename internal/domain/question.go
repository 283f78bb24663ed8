package domain

import (
	"sort"
	"strings"
)

// symbolRange holds every symbol a question can use; a question with N
// alternatives uses the first N letters.
const symbolRange = "ABCDEFGH"

// MaxAlternatives is the largest supported alternative count per question.
const MaxAlternatives = len(symbolRange)

// ExportSentinel marks an untouched question in flat-file exports.
const ExportSentinel = "-"

// AnswerState is one selectable alternative of a question. Correct is fixed
// at creation; Uncovered flips to true at most once and never back.
type AnswerState struct {
	Symbol    string `json:"symbol"`
	Correct   bool   `json:"correct"`
	Uncovered bool   `json:"uncovered"`
}

// Question is a single multiple-choice question on a scratch card.
//
// Started records whether any alternative was ever uncovered, Finished
// whether the correct one was, and CorrectOnFirstAttempt whether the very
// first uncover hit the correct alternative. Started and Finished are
// monotonic; FirstGuess is set exactly once (empty until started).
type Question struct {
	Number                int                     `json:"number"`
	Finished              bool                    `json:"finished"`
	Started               bool                    `json:"started"`
	CorrectOnFirstAttempt bool                    `json:"correct_on_first_attempt"`
	FirstGuess            string                  `json:"first_guess"`
	Answers               map[string]*AnswerState `json:"answers"`
}

// NewQuestion builds an unstarted question with the first `alternatives`
// symbols of A-H, marking the one matching correctAlternative
// (case-insensitive) as correct.
func NewQuestion(number int, correctAlternative string, alternatives int) *Question {
	question := &Question{
		Number:  number,
		Answers: make(map[string]*AnswerState, alternatives),
	}
	for _, symbol := range strings.Split(symbolRange[:alternatives], "") {
		question.Answers[symbol] = &AnswerState{
			Symbol:  symbol,
			Correct: strings.EqualFold(symbol, correctAlternative),
		}
	}
	return question
}

// Uncover reveals one alternative. The first uncover on a question records
// the first guess and, if it was correct, the first-attempt score. Any
// correct uncover finishes the question, also after earlier wrong guesses.
// Re-uncovering an already uncovered alternative is a no-op and never
// re-triggers first-attempt bookkeeping. A finished question still accepts
// uncovers so teams can reveal the remaining alternatives for review.
func (q *Question) Uncover(symbol string) error {
	answer, ok := q.Answers[symbol]
	if !ok {
		return ErrInvalidAlternative
	}
	answer.Uncovered = true
	if !q.Started {
		q.FirstGuess = symbol
		if answer.Correct {
			q.CorrectOnFirstAttempt = true
		}
	}
	if answer.Correct {
		q.Finished = true
	}
	q.Started = true
	return nil
}

// State returns the scoreboard cell for this question: "OK" when the first
// attempt was correct, the first guess while the team is still at it or got
// it right later, and "" before any interaction.
func (q *Question) State() string {
	if q.CorrectOnFirstAttempt {
		return "OK"
	}
	if q.Started {
		return q.FirstGuess
	}
	return ""
}

// ExportState returns the first guess for flat-file exports, or the sentinel
// when the question was never touched.
func (q *Question) ExportState() string {
	if q.Started {
		return q.FirstGuess
	}
	return ExportSentinel
}

// Symbols returns the question's alternative symbols in alphabetical order
// for stable rendering.
func (q *Question) Symbols() []string {
	symbols := make([]string, 0, len(q.Answers))
	for symbol := range q.Answers {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
