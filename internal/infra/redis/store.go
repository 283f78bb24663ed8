package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"teamrat-service/internal/domain"
)

// Store keeps RAT and card documents as JSON strings in Redis:
//
//	SET card:{id}         {card json}
//	SET rat:private:{id}  {rat json}
//	SET rat:public:{code} {private id}
//
// The public-id key is an index into the private-id document, mirroring how
// the store is queried. A zero TTL keeps documents until deleted; a positive
// TTL lets finished sessions age out.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) FindCard(ctx context.Context, id string) (*domain.Card, error) {
	data, err := s.client.Get(ctx, s.cardKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	var card domain.Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Store) StoreCard(ctx context.Context, card *domain.Card) error {
	data, err := json.Marshal(card)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.cardKey(card.ID), data, s.ttl).Err()
}

func (s *Store) FindRATByPublicID(ctx context.Context, publicID string) (*domain.RAT, error) {
	privateID, err := s.client.Get(ctx, s.publicKey(publicID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRATNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.FindRATByPrivateID(ctx, privateID)
}

func (s *Store) FindRATByPrivateID(ctx context.Context, privateID string) (*domain.RAT, error) {
	data, err := s.client.Get(ctx, s.privateKey(privateID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRATNotFound
	}
	if err != nil {
		return nil, err
	}
	var rat domain.RAT
	if err := json.Unmarshal(data, &rat); err != nil {
		return nil, err
	}
	return &rat, nil
}

func (s *Store) StoreRAT(ctx context.Context, rat *domain.RAT) error {
	data, err := json.Marshal(rat)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.privateKey(rat.PrivateID), data, s.ttl)
	pipe.Set(ctx, s.publicKey(rat.PublicID), rat.PrivateID, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) cardKey(id string) string {
	return "card:" + id
}

func (s *Store) privateKey(id string) string {
	return "rat:private:" + id
}

func (s *Store) publicKey(code string) string {
	return "rat:public:" + code
}
