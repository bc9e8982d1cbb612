package service

import (
	"context"
	"testing"
	"time"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(4)
	task := OptimizeTask{AssetID: "asset-1", Tier: domain.TierLow}

	if err := q.Enqueue(context.Background(), task); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	got, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if got != task {
		t.Fatalf("expected %+v, got %+v", task, got)
	}
}

func TestMemoryQueueFull(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, OptimizeTask{AssetID: "a"}); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	err := q.Enqueue(ctx, OptimizeTask{AssetID: "b"})
	if !apierr.IsUpstreamIO(err) {
		t.Fatalf("expected queue-full error, got %v", err)
	}
}

func TestMemoryQueueDequeueHonorsCancellation(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatalf("expected context error on canceled dequeue")
	}
}

func TestWorkerWarmsVariants(t *testing.T) {
	cache := newFakeVariantCache()
	optimizer := NewOptimizerService(newFakeAssetStore(testAsset()), cache, zerolog.Nop())
	q := NewMemoryQueue(4)
	worker := NewOptimizeWorker(q, optimizer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	for _, tier := range []domain.PerformanceTier{domain.TierLow, domain.TierMedium, domain.TierHigh} {
		if err := q.Enqueue(ctx, OptimizeTask{AssetID: "asset-1", Tier: tier}); err != nil {
			t.Fatalf("enqueue %s failed: %v", tier, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cache.mu.Lock()
		n := len(cache.variants)
		cache.mu.Unlock()
		if n == 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("worker did not warm all three tiers in time")
}
