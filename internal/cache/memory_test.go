package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSeen(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	key := SeenKey("hackernews", "123")

	if seen, _ := c.IsSeen(ctx, key); seen {
		t.Fatalf("expected key to be unseen")
	}
	if err := c.MarkSeen(ctx, key, time.Hour); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if seen, _ := c.IsSeen(ctx, key); !seen {
		t.Fatalf("expected key to be seen")
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if seen, _ := c.IsSeen(ctx, key); seen {
		t.Errorf("expected key to be cleared")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	c.MarkSeen(ctx, "a", time.Minute)
	c.MarkSeen(ctx, "b", 0)

	now = now.Add(2 * time.Minute)
	if seen, _ := c.IsSeen(ctx, "a"); seen {
		t.Errorf("expected key a to expire")
	}
	if seen, _ := c.IsSeen(ctx, "b"); !seen {
		t.Errorf("expected key b without ttl to persist")
	}
}
