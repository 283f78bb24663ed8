package redis

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"teamrat-service/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, time.Minute), mr
}

func TestCardDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	card, err := domain.NewCard("Quiz", "2", 3, 4, "ABC", "SALMON")
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	_ = card.Uncover(2, "B")

	if err := store.StoreCard(ctx, card); err != nil {
		t.Fatalf("store card: %v", err)
	}
	if !mr.Exists("card:" + card.ID) {
		t.Fatalf("expected card key in redis")
	}

	found, err := store.FindCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("find card: %v", err)
	}
	if !reflect.DeepEqual(found, card) {
		t.Fatalf("card changed across redis:\nwant %+v\ngot  %+v", card, found)
	}
}

func TestRATDocumentAndPublicIndex(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	rat, _, err := domain.NewRAT("Quiz", 2, 2, 4, "AB", "teacher")
	if err != nil {
		t.Fatalf("new rat: %v", err)
	}
	if _, err := rat.Grab("1"); err != nil {
		t.Fatalf("grab: %v", err)
	}
	if err := store.StoreRAT(ctx, rat); err != nil {
		t.Fatalf("store rat: %v", err)
	}
	if !mr.Exists("rat:private:"+rat.PrivateID) || !mr.Exists("rat:public:"+rat.PublicID) {
		t.Fatalf("expected both rat keys in redis")
	}

	found, err := store.FindRATByPublicID(ctx, rat.PublicID)
	if err != nil {
		t.Fatalf("find by public id: %v", err)
	}
	if !reflect.DeepEqual(found, rat) {
		t.Fatalf("rat changed across redis:\nwant %+v\ngot  %+v", rat, found)
	}
	if !found.Grabbed("1") {
		t.Fatalf("grab state lost across redis")
	}
}

func TestMissesMapToNotFound(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

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

func TestDocumentsExpireWithTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	card, err := domain.NewCard("Quiz", "1", 2, 4, "AB", "CORAL")
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	if err := store.StoreCard(ctx, card); err != nil {
		t.Fatalf("store card: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.FindCard(ctx, card.ID); !errors.Is(err, domain.ErrCardNotFound) {
		t.Fatalf("expected expired card to be gone, got %v", err)
	}
}
