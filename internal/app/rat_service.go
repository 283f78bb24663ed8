package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"teamrat-service/internal/domain"
)

// CardStore abstracts how card documents are stored (in-memory, Redis,
// Postgres). FindCard returns domain.ErrCardNotFound on a miss; StoreCard is
// an idempotent upsert keyed by card id.
type CardStore interface {
	FindCard(ctx context.Context, id string) (*domain.Card, error)
	StoreCard(ctx context.Context, card *domain.Card) error
}

// RATStore abstracts how RAT documents are stored. Misses surface
// domain.ErrRATNotFound; StoreRAT is an idempotent upsert keyed by the
// private id.
type RATStore interface {
	FindRATByPublicID(ctx context.Context, publicID string) (*domain.RAT, error)
	FindRATByPrivateID(ctx context.Context, privateID string) (*domain.RAT, error)
	StoreRAT(ctx context.Context, rat *domain.RAT) error
}

// publicIDAttempts bounds collision retries when allocating a public code.
const publicIDAttempts = 5

// RATService contains the RAT use cases. Grab and Uncover are
// read-modify-write sequences; the service serializes them per document with
// keyed mutexes so racing duplicate grabs cannot both succeed. That guard is
// per process: running several instances against a shared store additionally
// needs store-level serialization.
type RATService struct {
	rats  RATStore
	cards CardStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRATService(rats RATStore, cards CardStore) *RATService {
	return &RATService{
		rats:  rats,
		cards: cards,
		locks: make(map[string]*sync.Mutex),
	}
}

// CreateRATRequest carries the teacher's input for a new RAT.
type CreateRATRequest struct {
	Label        string
	Teams        int
	Questions    int
	Alternatives int
	Solution     string
	Creator      string
}

// Create validates the request, builds the RAT with one card per team and
// persists everything. Cards are stored before the RAT document, so a RAT is
// only ever observable with its full card assignment.
func (s *RATService) Create(ctx context.Context, req CreateRATRequest) (*domain.RAT, error) {
	rat, cards, err := domain.NewRAT(req.Label, req.Teams, req.Questions, req.Alternatives, req.Solution, req.Creator)
	if err != nil {
		return nil, err
	}
	if err := s.allocatePublicID(ctx, rat); err != nil {
		return nil, err
	}
	for _, card := range cards {
		if err := s.cards.StoreCard(ctx, card); err != nil {
			return nil, err
		}
	}
	if err := s.rats.StoreRAT(ctx, rat); err != nil {
		return nil, err
	}
	return rat, nil
}

// allocatePublicID regenerates the public code until it is unused. The id
// space is large relative to concurrent RATs, so a handful of attempts is
// plenty.
func (s *RATService) allocatePublicID(ctx context.Context, rat *domain.RAT) error {
	for attempt := 0; attempt < publicIDAttempts; attempt++ {
		_, err := s.rats.FindRATByPublicID(ctx, rat.PublicID)
		if errors.Is(err, domain.ErrRATNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		rat.PublicID = domain.NewPublicID()
	}
	return fmt.Errorf("could not allocate a free public id in %d attempts", publicIDAttempts)
}

// StudentView loads a RAT by its public code for the team selection page.
func (s *RATService) StudentView(ctx context.Context, publicID string) (*domain.RAT, error) {
	return s.rats.FindRATByPublicID(ctx, publicID)
}

// Grab claims the card pre-assigned to a team and persists the claim. The
// whole load-grab-store sequence runs under the RAT's lock; losing claims
// get domain.ErrAlreadyGrabbed.
func (s *RATService) Grab(ctx context.Context, publicID, team string) (string, error) {
	defer s.lock("rat:" + publicID)()

	rat, err := s.rats.FindRATByPublicID(ctx, publicID)
	if err != nil {
		return "", err
	}
	cardID, err := rat.Grab(team)
	if err != nil {
		return "", err
	}
	if err := s.rats.StoreRAT(ctx, rat); err != nil {
		return "", err
	}
	return cardID, nil
}

// GetCard loads a single card, the student's scratch-card view.
func (s *RATService) GetCard(ctx context.Context, cardID string) (*domain.Card, error) {
	return s.cards.FindCard(ctx, cardID)
}

// Uncover reveals one alternative on a card and persists the card. Like Grab
// it runs under a per-document lock; the uncover itself is idempotent, the
// lock keeps the persisted document from losing concurrent reveals.
func (s *RATService) Uncover(ctx context.Context, cardID string, question int, alternative string) (*domain.Card, error) {
	defer s.lock("card:" + cardID)()

	card, err := s.cards.FindCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if err := card.Uncover(question, alternative); err != nil {
		return nil, err
	}
	if err := s.cards.StoreCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Status is the teacher's view of a running RAT.
type Status struct {
	RAT    *domain.RAT
	Cards  []*domain.Card
	Header []string
	Rows   [][]string
}

// TeacherView loads a RAT by its private id together with all team cards and
// derives the status table.
func (s *RATService) TeacherView(ctx context.Context, privateID string) (*Status, error) {
	rat, err := s.rats.FindRATByPrivateID(ctx, privateID)
	if err != nil {
		return nil, err
	}
	cards, err := s.loadCards(ctx, rat)
	if err != nil {
		return nil, err
	}
	return &Status{
		RAT:    rat,
		Cards:  cards,
		Header: rat.StatusHeader(),
		Rows:   rat.StatusTable(cards),
	}, nil
}

// Download builds the result export for a RAT in the requested format.
func (s *RATService) Download(ctx context.Context, privateID, format string) (string, error) {
	rat, err := s.rats.FindRATByPrivateID(ctx, privateID)
	if err != nil {
		return "", err
	}
	cards, err := s.loadCards(ctx, rat)
	if err != nil {
		return "", err
	}
	return rat.Download(format, cards)
}

// loadCards fetches all team cards concurrently, in team order. A card
// missing from the store is skipped rather than failing the whole view.
func (s *RATService) loadCards(ctx context.Context, rat *domain.RAT) ([]*domain.Card, error) {
	teams := rat.TeamIDs()
	loaded := make([]*domain.Card, len(teams))

	g, ctx := errgroup.WithContext(ctx)
	for i, team := range teams {
		i, cardID := i, rat.CardIDsByTeam[team]
		g.Go(func() error {
			card, err := s.cards.FindCard(ctx, cardID)
			if errors.Is(err, domain.ErrCardNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			loaded[i] = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cards := make([]*domain.Card, 0, len(loaded))
	for _, card := range loaded {
		if card != nil {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// lock serializes access to one document; the returned func releases it.
func (s *RATService) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}
