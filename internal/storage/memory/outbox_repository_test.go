package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func enqueue(t *testing.T, store *Store, msgs ...domain.OutboxMessage) []domain.OutboxMessage {
	t.Helper()
	var saved []domain.OutboxMessage
	err := store.WithinTx(context.Background(), func(tx domain.Tx) error {
		for _, msg := range msgs {
			out, err := tx.Outbox().Enqueue(msg)
			if err != nil {
				return err
			}
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	return saved
}

func TestOutboxRepository_EnqueueAndPullInOrder(t *testing.T) {
	store := NewStore()
	saved := enqueue(t, store,
		domain.OutboxMessage{AggregateType: domain.AggregateOrder, AggregateID: "o-1", EventType: domain.EventOrderPlaced},
		domain.OutboxMessage{AggregateType: domain.AggregateOrder, AggregateID: "o-1", EventType: domain.EventOrderCancelled},
	)
	if saved[0].ID == "" {
		t.Fatal("expected generated id")
	}

	pending, err := store.Outbox().PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}
	if pending[0].EventType != domain.EventOrderPlaced || pending[1].EventType != domain.EventOrderCancelled {
		t.Fatalf("expected insertion order, got %s, %s", pending[0].EventType, pending[1].EventType)
	}

	stats, err := store.Outbox().Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 2 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestOutboxRepository_RolledBackEventIsNotVisible(t *testing.T) {
	store := NewStore()
	boom := errors.New("boom")

	err := store.WithinTx(context.Background(), func(tx domain.Tx) error {
		if _, err := tx.Outbox().Enqueue(domain.OutboxMessage{EventType: domain.EventOrderPlaced}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	pending, _ := store.Outbox().PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages after rollback, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	store := NewStore()
	saved := enqueue(t, store, domain.OutboxMessage{AggregateType: domain.AggregateOrder})

	if err := store.Outbox().MarkSent(saved[0].ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, _ := store.Outbox().PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("sent message must not be pending")
	}

	if err := store.Outbox().MarkFailed("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish for missing record, got %v", err)
	}
}
