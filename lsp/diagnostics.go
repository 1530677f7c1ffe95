package lsp

import (
	"context"
	"sync"
	"time"

	"github.com/myleshyson/lsprotocol-go/protocol"
)

// DiagnosticSnapshot is the latest set of findings for one document. Each
// publish replaces the previous snapshot wholesale; findings are never merged.
type DiagnosticSnapshot struct {
	URI         string
	Version     *int32
	Diagnostics []protocol.Diagnostic
	ReceivedAt  time.Time
}

// DiagnosticsSubscriber receives every snapshot as it is published. It runs
// synchronously on the reader goroutine and must not block.
type DiagnosticsSubscriber func(DiagnosticSnapshot)

// DiagnosticsCache holds per-document diagnostic snapshots published by the
// server. Safe for concurrent use.
type DiagnosticsCache struct {
	mu          sync.RWMutex
	byURI       map[string]DiagnosticSnapshot
	subscribers []DiagnosticsSubscriber
}

func NewDiagnosticsCache() *DiagnosticsCache {
	return &DiagnosticsCache{byURI: make(map[string]DiagnosticSnapshot)}
}

// Publish replaces the cache entry for the document and notifies subscribers.
func (dc *DiagnosticsCache) Publish(params protocol.PublishDiagnosticsParams) {
	snap := DiagnosticSnapshot{
		URI:         string(params.Uri),
		Version:     &params.Version,
		Diagnostics: params.Diagnostics,
		ReceivedAt:  time.Now(),
	}
	if snap.Diagnostics == nil {
		snap.Diagnostics = []protocol.Diagnostic{}
	}

	dc.mu.Lock()
	dc.byURI[snap.URI] = snap
	subs := dc.subscribers
	dc.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// Get returns the current snapshot for a document, if any.
func (dc *DiagnosticsCache) Get(uri string) (DiagnosticSnapshot, bool) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	snap, ok := dc.byURI[uri]
	return snap, ok
}

// Evict removes a document's snapshot (called when the document closes).
func (dc *DiagnosticsCache) Evict(uri string) {
	dc.mu.Lock()
	delete(dc.byURI, uri)
	dc.mu.Unlock()
}

// URIs returns the documents currently holding diagnostics.
func (dc *DiagnosticsCache) URIs() []string {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	uris := make([]string, 0, len(dc.byURI))
	for uri := range dc.byURI {
		uris = append(uris, uri)
	}
	return uris
}

// Subscribe registers a callback for every published snapshot.
func (dc *DiagnosticsCache) Subscribe(sub DiagnosticsSubscriber) {
	dc.mu.Lock()
	dc.subscribers = append(dc.subscribers, sub)
	dc.mu.Unlock()
}

// WaitFor polls until a snapshot exists for the document or the timeout
// elapses, then returns whatever is present. Servers publish nothing for
// clean files, so an absent result after the timeout is a normal outcome,
// not an error.
func (dc *DiagnosticsCache) WaitFor(ctx context.Context, uri string, timeout time.Duration) (DiagnosticSnapshot, bool) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(diagnosticsPollInterval)
	defer ticker.Stop()

	for {
		if snap, ok := dc.Get(uri); ok {
			return snap, true
		}
		if time.Now().After(deadline) {
			return DiagnosticSnapshot{}, false
		}
		select {
		case <-ctx.Done():
			return DiagnosticSnapshot{}, false
		case <-ticker.C:
		}
	}
}
