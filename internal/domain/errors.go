package domain

import "errors"

var (
	// ErrInvalidSolution is returned when a solution string does not match the
	// configured question or alternative counts.
	ErrInvalidSolution = errors.New("invalid solution")
	// ErrCardNotFound indicates the card could not be loaded.
	ErrCardNotFound = errors.New("card not found")
	// ErrRATNotFound indicates the RAT could not be loaded.
	ErrRATNotFound = errors.New("rat not found")
	// ErrQuestionNotFound indicates an uncover referenced a question number
	// outside the card.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrTeamNotFound indicates a grab referenced a team the RAT was not
	// created with.
	ErrTeamNotFound = errors.New("team not found")
	// ErrInvalidAlternative indicates an uncover referenced a symbol outside
	// the question's alternative set.
	ErrInvalidAlternative = errors.New("invalid alternative")
	// ErrAlreadyGrabbed is the expected outcome of losing the grab race; it is
	// a normal result, not a fault.
	ErrAlreadyGrabbed = errors.New("card already grabbed")
	// ErrInsufficientColors is returned when the team count exceeds the color
	// palette.
	ErrInsufficientColors = errors.New("not enough team colors")
	// ErrUnsupportedFormat indicates an unknown download format.
	ErrUnsupportedFormat = errors.New("unsupported download format")
)
