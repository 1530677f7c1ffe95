package bridge

import (
	"fmt"
	"os"
	"sync"

	"sharpbridge/mcp-csharp-bridge/logger"
	"sharpbridge/mcp-csharp-bridge/lsp"
	"sharpbridge/mcp-csharp-bridge/utils"
)

type openDocument struct {
	uri     string
	path    string
	version int32
	content string
}

// documentSync is the slice of the language client the store drives.
type documentSync interface {
	DidOpen(uri, text string, version int32) error
	DidChange(uri string, version int32, text string) error
	DidClose(uri string) error
	Diagnostics() *lsp.DiagnosticsCache
}

// documentStore tracks which files the bridge has opened on the server and
// their revision numbers. csharp-ls answers positional requests only for
// documents it has seen via didOpen.
type documentStore struct {
	mu    sync.Mutex
	byURI map[string]*openDocument
}

func newDocumentStore() *documentStore {
	return &documentStore{byURI: make(map[string]*openDocument)}
}

// ensureOpen reads the file from disk and synchronizes it with the server:
// didOpen on first sight, didChange when the on-disk content moved since the
// last sync, nothing when it is already current. The version only advances
// on real content changes.
func (s *documentStore) ensureOpen(client documentSync, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	content := string(data)
	uri := utils.PathToFileURI(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byURI[uri]
	if !ok {
		if err := client.DidOpen(uri, content, 1); err != nil {
			return "", err
		}
		s.byURI[uri] = &openDocument{uri: uri, path: path, version: 1, content: content}
		return uri, nil
	}
	if doc.content == content {
		return uri, nil
	}
	doc.version++
	doc.content = content
	if err := client.DidChange(uri, doc.version, content); err != nil {
		return "", err
	}
	return uri, nil
}

// close tells the server to drop the document and evicts its cached
// diagnostics so stale results never outlive the close.
func (s *documentStore) close(client documentSync, uri string) error {
	s.mu.Lock()
	_, ok := s.byURI[uri]
	delete(s.byURI, uri)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := client.DidClose(uri); err != nil {
		return err
	}
	client.Diagnostics().Evict(uri)
	return nil
}

// closeAll closes every tracked document. Best effort: a session that died
// cannot carry didClose, so failures are logged and the store is cleared
// regardless.
func (s *documentStore) closeAll(client documentSync) {
	s.mu.Lock()
	uris := make([]string, 0, len(s.byURI))
	for uri := range s.byURI {
		uris = append(uris, uri)
	}
	s.mu.Unlock()

	for _, uri := range uris {
		if err := s.close(client, uri); err != nil {
			logger.Debug("closing document "+uri+":", err.Error())
		}
	}
}

func (s *documentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byURI)
}
