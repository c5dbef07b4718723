package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter() *PoolLimiter {
	return New(map[string]PoolConfig{
		PoolUpload:  {Requests: 3, Window: time.Minute},
		PoolAnalyze: {Requests: 1, Window: 5 * time.Minute},
	}, 0, time.Minute)
}

func TestConsumeExhaustsQuota(t *testing.T) {
	pl := newTestLimiter()
	defer pl.Close()

	for i := 0; i < 3; i++ {
		decision := pl.Consume(PoolUpload, "client-a")
		if !decision.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if decision.Limit != 3 {
			t.Errorf("expected limit 3, got %d", decision.Limit)
		}
		expectedRemaining := 2 - i
		if decision.Remaining != expectedRemaining {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, expectedRemaining, decision.Remaining)
		}
	}

	denied := pl.Consume(PoolUpload, "client-a")
	if denied.Allowed {
		t.Fatal("request over quota should be denied")
	}
	if denied.Remaining != 0 {
		t.Errorf("denied decision should report remaining 0, got %d", denied.Remaining)
	}
	if denied.RetryAfter <= 0 {
		t.Error("denied decision should report a positive retry delay")
	}
	if denied.ResetAfter <= 0 {
		t.Error("denied decision should report a positive reset delay")
	}
}

func TestDeniedConsumeDoesNotDrainFurther(t *testing.T) {
	pl := newTestLimiter()
	defer pl.Close()

	pl.Consume(PoolAnalyze, "client-a")

	first := pl.Consume(PoolAnalyze, "client-a")
	second := pl.Consume(PoolAnalyze, "client-a")

	if first.Allowed || second.Allowed {
		t.Fatal("both over-quota requests should be denied")
	}
	if second.Remaining != first.Remaining {
		t.Errorf("denied consumes should not change remaining: %d vs %d", first.Remaining, second.Remaining)
	}
	// A denied consume must not push the retry point further into the future.
	if second.RetryAfter > first.RetryAfter {
		t.Errorf("retry delay grew after a denied consume: %v vs %v", first.RetryAfter, second.RetryAfter)
	}
}

func TestIdentifiersAreIsolated(t *testing.T) {
	pl := newTestLimiter()
	defer pl.Close()

	pl.Consume(PoolAnalyze, "client-a")
	if decision := pl.Consume(PoolAnalyze, "client-a"); decision.Allowed {
		t.Fatal("client-a should be exhausted")
	}

	if decision := pl.Consume(PoolAnalyze, "client-b"); !decision.Allowed {
		t.Fatal("client-b should have its own quota")
	}
}

func TestPoolsAreIsolated(t *testing.T) {
	pl := newTestLimiter()
	defer pl.Close()

	pl.Consume(PoolAnalyze, "client-a")
	if decision := pl.Consume(PoolAnalyze, "client-a"); decision.Allowed {
		t.Fatal("analyze pool should be exhausted")
	}

	if decision := pl.Consume(PoolUpload, "client-a"); !decision.Allowed {
		t.Fatal("upload pool should be unaffected by the analyze pool")
	}
}

func TestUnknownPoolAllows(t *testing.T) {
	pl := newTestLimiter()
	defer pl.Close()

	decision := pl.Consume("nonexistent", "client-a")
	if !decision.Allowed {
		t.Fatal("unknown pool should allow the request")
	}
	if decision.Limit != 0 {
		t.Errorf("unknown pool should report zero limit, got %d", decision.Limit)
	}
}

func TestPruneRemovesIdleIdentifiers(t *testing.T) {
	pl := newTestLimiter()
	defer pl.Close()

	pl.Consume(PoolUpload, "client-a")
	pl.Consume(PoolUpload, "client-b")

	stats := pl.Stats()
	if stats[PoolUpload].ActiveIdentifiers != 2 {
		t.Fatalf("expected 2 active identifiers, got %d", stats[PoolUpload].ActiveIdentifiers)
	}

	pl.prune(time.Now().Add(time.Second))

	stats = pl.Stats()
	if stats[PoolUpload].ActiveIdentifiers != 0 {
		t.Errorf("expected idle identifiers to be pruned, got %d", stats[PoolUpload].ActiveIdentifiers)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	pl := New(map[string]PoolConfig{
		PoolGeneral: {Requests: 100, Window: time.Minute},
	}, time.Minute, time.Minute)

	pl.Close()
	pl.Close()
}
