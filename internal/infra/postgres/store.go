package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"teamrat-service/internal/domain"
)

// Store keeps RAT and card documents as jsonb rows. The rats table carries
// the public id as its own column so both lookups stay single queries.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindCard(ctx context.Context, id string) (*domain.Card, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM cards WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load card: %w", err)
	}
	var card domain.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("unmarshal card: %w", err)
	}
	return &card, nil
}

func (s *Store) StoreCard(ctx context.Context, card *domain.Card) error {
	data, err := json.Marshal(card)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO cards (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
		card.ID, data)
	if err != nil {
		return fmt.Errorf("store card: %w", err)
	}
	return nil
}

func (s *Store) FindRATByPublicID(ctx context.Context, publicID string) (*domain.RAT, error) {
	return s.findRAT(ctx, `SELECT data FROM rats WHERE public_id=$1`, publicID)
}

func (s *Store) FindRATByPrivateID(ctx context.Context, privateID string) (*domain.RAT, error) {
	return s.findRAT(ctx, `SELECT data FROM rats WHERE private_id=$1`, privateID)
}

func (s *Store) findRAT(ctx context.Context, query, id string) (*domain.RAT, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRATNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load rat: %w", err)
	}
	var rat domain.RAT
	if err := json.Unmarshal(raw, &rat); err != nil {
		return nil, fmt.Errorf("unmarshal rat: %w", err)
	}
	return &rat, nil
}

func (s *Store) StoreRAT(ctx context.Context, rat *domain.RAT) error {
	data, err := json.Marshal(rat)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rats (private_id, public_id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (private_id) DO UPDATE SET public_id=EXCLUDED.public_id, data=EXCLUDED.data`,
		rat.PrivateID, rat.PublicID, data)
	if err != nil {
		return fmt.Errorf("store rat: %w", err)
	}
	return nil
}
