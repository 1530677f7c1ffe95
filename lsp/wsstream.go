package lsp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sharpbridge/mcp-csharp-bridge/logger"
)

// wsStream adapts a websocket connection to the byte-stream interface the
// framing codec expects. Each websocket message may carry any slice of the
// frame stream; reads are re-chunked through a pending buffer.
type wsStream struct {
	conn *websocket.Conn

	readMu  sync.Mutex
	pending bytes.Buffer

	writeMu sync.Mutex
}

func (s *wsStream) Read(p []byte) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	for s.pending.Len() == 0 {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		s.pending.Write(data)
	}
	return s.pending.Read(p)
}

func (s *wsStream) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}

// connectWebSocket dials a remote analysis endpoint and wires the stream into
// the same reader/writer fields the stdio path uses. Retries with a short
// linear backoff before giving up.
func (lc *LanguageClient) connectWebSocket() error {
	host := lc.config.Host
	if host == "" {
		host = "localhost"
	}
	port := lc.config.Port
	if port <= 0 {
		port = 9999
	}

	// localhost resolution is flaky in minimal containers; pin to IPv4.
	addr := strings.Replace(fmt.Sprintf("%s:%d", host, port), "localhost", "127.0.0.1", 1)
	wsURL := fmt.Sprintf("ws://%s/lsp", addr)

	var conn *websocket.Conn
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
		conn, _, err = dialer.Dial(wsURL, http.Header{})
		if err == nil {
			break
		}
		logger.Warn(fmt.Sprintf("WebSocket connection attempt %d/5 to %s failed: %v", attempt, wsURL, err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsURL, err)
	}

	stream := &wsStream{conn: conn}
	lc.stdin = nopWriteCloser{stream}
	lc.reader = bufio.NewReaderSize(stream, 64*1024)
	lc.closer = stream

	logger.Info("Connected to language server via WebSocket: " + wsURL)
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
