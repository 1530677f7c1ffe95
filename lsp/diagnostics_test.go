package lsp

import (
	"context"
	"testing"
	"time"

	"github.com/myleshyson/lsprotocol-go/protocol"
)

func publishParams(uri string, messages ...string) protocol.PublishDiagnosticsParams {
	diags := make([]protocol.Diagnostic, len(messages))
	for i, msg := range messages {
		diags[i] = protocol.Diagnostic{Message: msg}
	}
	return protocol.PublishDiagnosticsParams{
		Uri:         protocol.DocumentUri(uri),
		Diagnostics: diags,
	}
}

func TestDiagnosticsCache_PublishReplacesWholesale(t *testing.T) {
	cache := NewDiagnosticsCache()
	uri := "file:///a.cs"

	cache.Publish(publishParams(uri, "first", "second"))
	snap, ok := cache.Get(uri)
	if !ok || len(snap.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %+v", snap)
	}

	// A new publish replaces the previous set entirely, even when empty.
	cache.Publish(publishParams(uri))
	snap, ok = cache.Get(uri)
	if !ok {
		t.Fatal("empty publish must still be recorded")
	}
	if len(snap.Diagnostics) != 0 {
		t.Fatalf("expected empty set after clearing publish, got %d", len(snap.Diagnostics))
	}
}

func TestDiagnosticsCache_GetUnknownURI(t *testing.T) {
	cache := NewDiagnosticsCache()
	if _, ok := cache.Get("file:///never-published.cs"); ok {
		t.Fatal("expected miss for unpublished uri")
	}
}

func TestDiagnosticsCache_Evict(t *testing.T) {
	cache := NewDiagnosticsCache()
	uri := "file:///a.cs"
	cache.Publish(publishParams(uri, "stale"))
	cache.Evict(uri)
	if _, ok := cache.Get(uri); ok {
		t.Fatal("expected miss after eviction")
	}
	if len(cache.URIs()) != 0 {
		t.Fatal("evicted uri still listed")
	}
}

func TestDiagnosticsCache_Subscriber(t *testing.T) {
	cache := NewDiagnosticsCache()
	var got []DiagnosticSnapshot
	cache.Subscribe(func(snap DiagnosticSnapshot) {
		got = append(got, snap)
	})

	cache.Publish(publishParams("file:///a.cs", "one"))
	cache.Publish(publishParams("file:///b.cs", "two"))

	if len(got) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(got))
	}
	if got[0].URI != "file:///a.cs" || got[1].URI != "file:///b.cs" {
		t.Fatalf("unexpected callback order: %+v", got)
	}
}

func TestDiagnosticsCache_WaitForAlreadyPresent(t *testing.T) {
	cache := NewDiagnosticsCache()
	uri := "file:///a.cs"
	cache.Publish(publishParams(uri, "ready"))

	snap, ok := cache.WaitFor(context.Background(), uri, time.Second)
	if !ok || len(snap.Diagnostics) != 1 {
		t.Fatalf("expected immediate hit, got ok=%v snap=%+v", ok, snap)
	}
}

func TestDiagnosticsCache_WaitForArrivesLater(t *testing.T) {
	cache := NewDiagnosticsCache()
	uri := "file:///late.cs"

	go func() {
		time.Sleep(150 * time.Millisecond)
		cache.Publish(publishParams(uri, "eventually"))
	}()

	snap, ok := cache.WaitFor(context.Background(), uri, 2*time.Second)
	if !ok {
		t.Fatal("publish never observed")
	}
	if snap.Diagnostics[0].Message != "eventually" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestDiagnosticsCache_WaitForTimeout(t *testing.T) {
	cache := NewDiagnosticsCache()
	start := time.Now()
	_, ok := cache.WaitFor(context.Background(), "file:///absent.cs", 200*time.Millisecond)
	if ok {
		t.Fatal("expected timeout miss")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("WaitFor overshot its timeout")
	}
}

func TestDiagnosticsCache_WaitForContextCancelled(t *testing.T) {
	cache := NewDiagnosticsCache()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if _, ok := cache.WaitFor(ctx, "file:///absent.cs", 10*time.Second); ok {
		t.Fatal("expected miss on cancellation")
	}
}
