package repository

import (
	"context"
	"testing"
	"time"

	"pipeline_board_backend/internal/board/engine"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestUndoStore(t *testing.T) (*RedisUndoStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisUndoStore(client), mr
}

func testMove(orgID uuid.UUID) engine.PendingMove {
	return engine.PendingMove{
		OrganizationID: orgID,
		DealID:         uuid.New(),
		SourceStageID:  uuid.New(),
		TargetStageID:  uuid.New(),
		CommittedAt:    time.Now().UTC(),
	}
}

func TestUndoStoreRoundTrip(t *testing.T) {
	store, _ := newTestUndoStore(t)
	ctx := context.Background()
	orgID := uuid.New()
	move := testMove(orgID)

	if err := store.Put(ctx, move, 5*time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	exists, err := store.Exists(ctx, orgID)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}

	got, ok, err := store.Take(ctx, orgID)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if !ok {
		t.Fatal("Take found no record")
	}
	if got.DealID != move.DealID || got.SourceStageID != move.SourceStageID {
		t.Errorf("Take = %+v, want %+v", got, move)
	}

	// Take clears the record.
	if _, ok, _ := store.Take(ctx, orgID); ok {
		t.Error("record survived Take")
	}
	if exists, _ := store.Exists(ctx, orgID); exists {
		t.Error("Exists true after Take")
	}
}

func TestUndoStoreExpiry(t *testing.T) {
	store, mr := newTestUndoStore(t)
	ctx := context.Background()
	orgID := uuid.New()

	if err := store.Put(ctx, testMove(orgID), 5*time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	mr.FastForward(4999 * time.Millisecond)
	if exists, _ := store.Exists(ctx, orgID); !exists {
		t.Error("record expired before the window closed")
	}

	mr.FastForward(2 * time.Millisecond)
	if exists, _ := store.Exists(ctx, orgID); exists {
		t.Error("record still present after the window closed")
	}
	if _, ok, err := store.Take(ctx, orgID); err != nil || ok {
		t.Errorf("Take after expiry = %v, %v", ok, err)
	}
}

func TestUndoStoreReplacesRecordAndRestartsWindow(t *testing.T) {
	store, mr := newTestUndoStore(t)
	ctx := context.Background()
	orgID := uuid.New()

	first := testMove(orgID)
	if err := store.Put(ctx, first, 5*time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	mr.FastForward(3 * time.Second)
	second := testMove(orgID)
	if err := store.Put(ctx, second, 5*time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// The original window would have closed here; the new record holds.
	mr.FastForward(3 * time.Second)
	got, ok, err := store.Take(ctx, orgID)
	if err != nil || !ok {
		t.Fatalf("Take = %v, %v", ok, err)
	}
	if got.DealID != second.DealID {
		t.Error("Take returned the superseded record")
	}
}

func TestUndoStoreIsolatesOrganizations(t *testing.T) {
	store, _ := newTestUndoStore(t)
	ctx := context.Background()
	orgA, orgB := uuid.New(), uuid.New()

	if err := store.Put(ctx, testMove(orgA), 5*time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if exists, _ := store.Exists(ctx, orgB); exists {
		t.Error("record leaked across organizations")
	}
	if _, ok, _ := store.Take(ctx, orgB); ok {
		t.Error("Take returned another organization's record")
	}
	if exists, _ := store.Exists(ctx, orgA); !exists {
		t.Error("record lost for its own organization")
	}
}
