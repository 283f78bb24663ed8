package memory

import (
	"context"
	"encoding/json"
	"sync"

	"teamrat-service/internal/domain"
)

// Store is an in-memory implementation of app.CardStore and app.RATStore.
// Documents are held in marshaled form, so every find goes through the same
// serialization round trip as a durable backend. It is the default backend
// and the test double.
type Store struct {
	mu              sync.RWMutex
	cards           map[string][]byte
	ratsByPrivateID map[string][]byte
	publicToPrivate map[string]string
}

func NewStore() *Store {
	return &Store{
		cards:           make(map[string][]byte),
		ratsByPrivateID: make(map[string][]byte),
		publicToPrivate: make(map[string]string),
	}
}

func (s *Store) FindCard(_ context.Context, id string) (*domain.Card, error) {
	s.mu.RLock()
	data, ok := s.cards[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	var card domain.Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Store) StoreCard(_ context.Context, card *domain.Card) error {
	data, err := json.Marshal(card)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cards[card.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) FindRATByPublicID(ctx context.Context, publicID string) (*domain.RAT, error) {
	s.mu.RLock()
	privateID, ok := s.publicToPrivate[publicID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRATNotFound
	}
	return s.FindRATByPrivateID(ctx, privateID)
}

func (s *Store) FindRATByPrivateID(_ context.Context, privateID string) (*domain.RAT, error) {
	s.mu.RLock()
	data, ok := s.ratsByPrivateID[privateID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRATNotFound
	}
	var rat domain.RAT
	if err := json.Unmarshal(data, &rat); err != nil {
		return nil, err
	}
	return &rat, nil
}

func (s *Store) StoreRAT(_ context.Context, rat *domain.RAT) error {
	data, err := json.Marshal(rat)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ratsByPrivateID[rat.PrivateID] = data
	s.publicToPrivate[rat.PublicID] = rat.PrivateID
	s.mu.Unlock()
	return nil
}
