package domain

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// teamColorPalette is sampled for per-team card colors; it bounds the number
// of teams a single RAT can have.
var teamColorPalette = []string{
	"STEELBLUE", "CADETBLUE", "LIGHTSEAGREEN", "OLIVEDRAB",
	"YELLOWGREEN", "FORESTGREEN", "MEDIUMSEAGREEN", "LIGHTGREEN",
	"LIMEGREEN", "DARKMAGENTA", "DARKORCHID", "MEDIUMORCHID", "ORCHID",
	"ORANGE", "ORANGERED", "CORAL", "LIGHTSALMON", "PALEVIOLETRED",
	"MEDIUMVIOLETRED", "DEEPPINK", "CRIMSON", "SALMON",
}

// MaxTeams is the largest team count a single RAT supports.
var MaxTeams = len(teamColorPalette)

// PublicIDLength is the length of the student-facing RAT code.
const PublicIDLength = 5

// DownloadFormatString is the only supported download format: one
// Card.TextResult per line.
const DownloadFormatString = "string"

// RAT is one readiness assurance test session. The teacher holds the private
// id, students join via the short public code. Cards are owned by id only;
// the card documents themselves live behind the persistence gateway.
//
// GrabbedTeams keeps the original document's "grabbed_rats" wire name.
type RAT struct {
	PrivateID     string            `json:"private_id"`
	PublicID      string            `json:"public_id"`
	Label         string            `json:"label"`
	Teams         int               `json:"teams"`
	Questions     int               `json:"questions"`
	Alternatives  int               `json:"alternatives"`
	Solution      string            `json:"solution"`
	TeamColors    []string          `json:"team_colors"`
	CardIDsByTeam map[string]string `json:"card_ids_by_team"`
	GrabbedTeams  []string          `json:"grabbed_rats"`
	Creator       string            `json:"creator"`
}

// ValidateSolution checks a solution string against the configured question
// and alternative counts before any card or RAT is built.
func ValidateSolution(solution string, questions, alternatives int) error {
	if alternatives < 2 || alternatives > MaxAlternatives {
		return fmt.Errorf("%w: %d alternatives outside the supported range 2-%d", ErrInvalidSolution, alternatives, MaxAlternatives)
	}
	if len(solution) != questions {
		return fmt.Errorf("%w: %d questions but %d solution letters", ErrInvalidSolution, questions, len(solution))
	}
	valid := symbolRange[:alternatives]
	for _, letter := range strings.Split(strings.ToUpper(solution), "") {
		if !strings.Contains(valid, letter) {
			return fmt.Errorf("%w: letter %s is not valid with %d alternatives", ErrInvalidSolution, letter, alternatives)
		}
	}
	return nil
}

// NewRAT builds a RAT together with one card per team, numbered "1".."N".
// The card id assignment is complete before the RAT is returned; it never
// changes afterwards. The caller stores the cards and then the RAT.
func NewRAT(label string, teams, questions, alternatives int, solution, creator string) (*RAT, []*Card, error) {
	if err := ValidateSolution(solution, questions, alternatives); err != nil {
		return nil, nil, err
	}
	if teams < 1 {
		return nil, nil, fmt.Errorf("%w: team count %d", ErrInsufficientColors, teams)
	}
	colors, err := pickTeamColors(teams)
	if err != nil {
		return nil, nil, err
	}
	if label == "" {
		label = DefaultLabel
	}
	rat := &RAT{
		PrivateID:     uuid.NewString(),
		PublicID:      NewPublicID(),
		Label:         label,
		Teams:         teams,
		Questions:     questions,
		Alternatives:  alternatives,
		Solution:      solution,
		TeamColors:    colors,
		CardIDsByTeam: make(map[string]string, teams),
		GrabbedTeams:  []string{},
		Creator:       creator,
	}
	cards := make([]*Card, 0, teams)
	for team := 1; team <= teams; team++ {
		card, err := NewCard(label, strconv.Itoa(team), questions, alternatives, solution, colors[team-1])
		if err != nil {
			return nil, nil, err
		}
		cards = append(cards, card)
		rat.CardIDsByTeam[card.Team] = card.ID
	}
	return rat, cards, nil
}

// NewPublicID returns a fresh student-facing code. Collision checking against
// the store is the caller's job.
func NewPublicID() string {
	letters := make([]byte, PublicIDLength)
	for i := range letters {
		letters[i] = 'A' + byte(rand.Intn(26))
	}
	return string(letters)
}

func pickTeamColors(teams int) ([]string, error) {
	if teams > len(teamColorPalette) {
		return nil, fmt.Errorf("%w: %d teams, %d colors", ErrInsufficientColors, teams, len(teamColorPalette))
	}
	colors := make([]string, 0, teams)
	for _, i := range rand.Perm(len(teamColorPalette))[:teams] {
		colors = append(colors, teamColorPalette[i])
	}
	return colors, nil
}

// Grabbed reports whether a team has already claimed its card.
func (r *RAT) Grabbed(team string) bool {
	for _, grabbed := range r.GrabbedTeams {
		if grabbed == team {
			return true
		}
	}
	return false
}

// Grab claims the card pre-assigned to a team. The first claim wins; any
// later claim for the same team fails with ErrAlreadyGrabbed, also when it
// comes from the same team double-submitting. Grab is a pure state
// transition: the caller must serialize load-grab-store per RAT so that two
// racing claims cannot both observe the unclaimed state.
func (r *RAT) Grab(team string) (string, error) {
	cardID, ok := r.CardIDsByTeam[team]
	if !ok {
		return "", ErrTeamNotFound
	}
	if r.Grabbed(team) {
		return "", ErrAlreadyGrabbed
	}
	r.GrabbedTeams = append(r.GrabbedTeams, team)
	return cardID, nil
}

// TeamIDs returns the team identifiers in numeric order.
func (r *RAT) TeamIDs() []string {
	teams := make([]string, 0, r.Teams)
	for team := 1; team <= r.Teams; team++ {
		teams = append(teams, strconv.Itoa(team))
	}
	return teams
}

// StatusHeader returns the status table column names: team, state and score
// followed by one column per question.
func (r *RAT) StatusHeader() []string {
	header := []string{"Team", "Status", "Score"}
	for q := 1; q <= r.Questions; q++ {
		header = append(header, strconv.Itoa(q))
	}
	return header
}

// StatusTable builds the teacher's per-team overview, one row per card in
// the order given: team, card state, score, then each question's scoreboard
// cell. Rendering the rows is the presentation layer's job.
func (r *RAT) StatusTable(cards []*Card) [][]string {
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		row := []string{card.Team, card.State(), strconv.Itoa(card.Score())}
		for _, number := range card.QuestionNumbers() {
			row = append(row, card.Questions[strconv.Itoa(number)].State())
		}
		rows = append(rows, row)
	}
	return rows
}

// Download renders the result export in the requested format. Only the
// "string" format exists: one TextResult line per card.
func (r *RAT) Download(format string, cards []*Card) (string, error) {
	if format != DownloadFormatString {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	lines := make([]string, 0, len(cards))
	for _, card := range cards {
		lines = append(lines, card.TextResult())
	}
	return strings.Join(lines, "\n"), nil
}
