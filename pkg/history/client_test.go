package history

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history_test.sqlite")
	client, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestRecordThenRecent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newTestClient(t)

	events := []Event{
		{ModulePosition: 0, Channel: 1, SourceTag: "manual", Value: 1},
		{ModulePosition: 0, Channel: 1, SourceTag: "force", Value: 2},
		{ModulePosition: 0, Channel: 2, SourceTag: "default", Value: 9}, // different channel
	}
	for i := range events {
		if err := client.Record(ctx, events[i]); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := client.Recent(ctx, 0, 1, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events for module 0 channel 1, got %d", len(recent))
	}
	if recent[0].SourceTag != "force" {
		t.Fatalf("expected newest-first ordering to put \"force\" first, got %q", recent[0].SourceTag)
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newTestClient(t)

	for i := 0; i < 5; i++ {
		ev := Event{ModulePosition: 1, Channel: 0, SourceTag: "scenario", Value: float64(i)}
		if err := client.Record(ctx, ev); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	limited, err := client.Recent(ctx, 1, 0, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit=2 to return 2 events, got %d", len(limited))
	}
}

func TestRecentReturnsEmptyForUnknownChannel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newTestClient(t)

	recent, err := client.Recent(ctx, 9, 9, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected no events for an untouched channel, got %d", len(recent))
	}
}
