package bridge

import (
	"os"
	"path/filepath"
	"testing"

	protocol "github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/lsp"
)

func publishFor(uri string) protocol.PublishDiagnosticsParams {
	return protocol.PublishDiagnosticsParams{
		Uri:         protocol.DocumentUri(uri),
		Diagnostics: []protocol.Diagnostic{{Message: "stale"}},
	}
}

// recordingSync captures document notifications instead of sending them.
type recordingSync struct {
	cache   *lsp.DiagnosticsCache
	opens   []string
	changes []int32
	closes  []string
}

func newRecordingSync() *recordingSync {
	return &recordingSync{cache: lsp.NewDiagnosticsCache()}
}

func (r *recordingSync) DidOpen(uri, text string, version int32) error {
	r.opens = append(r.opens, uri)
	return nil
}

func (r *recordingSync) DidChange(uri string, version int32, text string) error {
	r.changes = append(r.changes, version)
	return nil
}

func (r *recordingSync) DidClose(uri string) error {
	r.closes = append(r.closes, uri)
	return nil
}

func (r *recordingSync) Diagnostics() *lsp.DiagnosticsCache { return r.cache }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestEnsureOpen_FirstSightOpensAtVersionOne(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Program.cs", "class Program {}")
	sync := newRecordingSync()
	store := newDocumentStore()

	uri, err := store.ensureOpen(sync, path)
	if err != nil {
		t.Fatalf("ensureOpen: %v", err)
	}
	if len(sync.opens) != 1 || sync.opens[0] != uri {
		t.Fatalf("expected one didOpen for %q, got %v", uri, sync.opens)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 tracked document, got %d", store.count())
	}
}

func TestEnsureOpen_UnchangedContentIsNoOp(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Program.cs", "class Program {}")
	sync := newRecordingSync()
	store := newDocumentStore()

	if _, err := store.ensureOpen(sync, path); err != nil {
		t.Fatalf("first ensureOpen: %v", err)
	}
	if _, err := store.ensureOpen(sync, path); err != nil {
		t.Fatalf("second ensureOpen: %v", err)
	}
	if len(sync.opens) != 1 {
		t.Fatalf("unchanged reopen must not re-send didOpen: %v", sync.opens)
	}
	if len(sync.changes) != 0 {
		t.Fatalf("unchanged reopen must not bump the version: %v", sync.changes)
	}
}

func TestEnsureOpen_ContentChangeBumpsVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Program.cs", "class Program {}")
	sync := newRecordingSync()
	store := newDocumentStore()

	if _, err := store.ensureOpen(sync, path); err != nil {
		t.Fatalf("ensureOpen: %v", err)
	}

	writeFile(t, dir, "Program.cs", "class Program { static void Main() {} }")
	if _, err := store.ensureOpen(sync, path); err != nil {
		t.Fatalf("ensureOpen after edit: %v", err)
	}
	if len(sync.changes) != 1 || sync.changes[0] != 2 {
		t.Fatalf("expected didChange at version 2, got %v", sync.changes)
	}

	writeFile(t, dir, "Program.cs", "class Program { }")
	if _, err := store.ensureOpen(sync, path); err != nil {
		t.Fatalf("ensureOpen after second edit: %v", err)
	}
	if len(sync.changes) != 2 || sync.changes[1] != 3 {
		t.Fatalf("expected didChange at version 3, got %v", sync.changes)
	}
}

func TestEnsureOpen_MissingFile(t *testing.T) {
	store := newDocumentStore()
	if _, err := store.ensureOpen(newRecordingSync(), "/does/not/exist.cs"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestClose_EvictsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Program.cs", "class Program {}")
	sync := newRecordingSync()
	store := newDocumentStore()

	uri, err := store.ensureOpen(sync, path)
	if err != nil {
		t.Fatalf("ensureOpen: %v", err)
	}
	sync.cache.Publish(publishFor(uri))

	if err := store.close(sync, uri); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(sync.closes) != 1 {
		t.Fatalf("expected one didClose, got %v", sync.closes)
	}
	if _, ok := sync.cache.Get(uri); ok {
		t.Fatal("diagnostics must be evicted on close")
	}
	if store.count() != 0 {
		t.Fatal("closed document still tracked")
	}

	// Closing an untracked document is a no-op.
	if err := store.close(sync, uri); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if len(sync.closes) != 1 {
		t.Fatal("untracked close must not notify the server")
	}
}

func TestCloseAll_DrainsEveryOpenDocument(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "Program.cs", "class Program {}")
	second := writeFile(t, dir, "Service.cs", "class Service {}")
	sync := newRecordingSync()
	store := newDocumentStore()

	uriFirst, err := store.ensureOpen(sync, first)
	if err != nil {
		t.Fatalf("ensureOpen: %v", err)
	}
	uriSecond, err := store.ensureOpen(sync, second)
	if err != nil {
		t.Fatalf("ensureOpen: %v", err)
	}
	sync.cache.Publish(publishFor(uriFirst))
	sync.cache.Publish(publishFor(uriSecond))

	store.closeAll(sync)

	if len(sync.closes) != 2 {
		t.Fatalf("expected didClose for both documents, got %v", sync.closes)
	}
	if store.count() != 0 {
		t.Fatalf("store still tracks %d documents", store.count())
	}
	for _, uri := range []string{uriFirst, uriSecond} {
		if _, ok := sync.cache.Get(uri); ok {
			t.Fatalf("diagnostics for %q survived closeAll", uri)
		}
	}
}
