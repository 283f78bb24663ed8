package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"teamrat-service/internal/domain"
)

func TestCardRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	card, err := domain.NewCard("Quiz", "1", 2, 4, "AB", "CORAL")
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	_ = card.Uncover(1, "C")

	if err := store.StoreCard(ctx, card); err != nil {
		t.Fatalf("store card: %v", err)
	}
	found, err := store.FindCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("find card: %v", err)
	}
	if !reflect.DeepEqual(found, card) {
		t.Fatalf("card changed across store:\nwant %+v\ngot  %+v", card, found)
	}
}

func TestRATLookupByBothIDs(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	rat, _, err := domain.NewRAT("Quiz", 2, 2, 4, "AB", "teacher")
	if err != nil {
		t.Fatalf("new rat: %v", err)
	}
	if err := store.StoreRAT(ctx, rat); err != nil {
		t.Fatalf("store rat: %v", err)
	}

	byPrivate, err := store.FindRATByPrivateID(ctx, rat.PrivateID)
	if err != nil {
		t.Fatalf("find by private id: %v", err)
	}
	byPublic, err := store.FindRATByPublicID(ctx, rat.PublicID)
	if err != nil {
		t.Fatalf("find by public id: %v", err)
	}
	if !reflect.DeepEqual(byPrivate, rat) || !reflect.DeepEqual(byPublic, rat) {
		t.Fatalf("rat changed across store")
	}
}

func TestFindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	card, err := domain.NewCard("Quiz", "1", 2, 4, "AB", "CORAL")
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	if err := store.StoreCard(ctx, card); err != nil {
		t.Fatalf("store card: %v", err)
	}

	first, _ := store.FindCard(ctx, card.ID)
	_ = first.Uncover(1, "A")

	// Mutating a loaded card must not leak into the store without StoreCard.
	second, _ := store.FindCard(ctx, card.ID)
	if second.State() != domain.CardIdle {
		t.Fatalf("unstored mutation leaked into the store")
	}
}

func TestMissesReturnNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.FindCard(ctx, "missing"); !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
	if _, err := store.FindRATByPrivateID(ctx, "missing"); !errors.Is(err, domain.ErrRATNotFound) {
		t.Fatalf("expected ErrRATNotFound, got %v", err)
	}
	if _, err := store.FindRATByPublicID(ctx, "MISSN"); !errors.Is(err, domain.ErrRATNotFound) {
		t.Fatalf("expected ErrRATNotFound, got %v", err)
	}
}
