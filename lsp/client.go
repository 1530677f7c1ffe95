package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/logger"
)

// SendRequest issues one call and blocks until its response arrives, the
// timeout elapses, the caller's context is cancelled, or the session dies,
// whichever comes first. The pending-table entry never outlives the call.
//
// A null or absent result leaves *result untouched rather than failing;
// "nothing found" is a valid answer for most LSP methods.
func (lc *LanguageClient) SendRequest(ctx context.Context, method string, params any, result any, timeout time.Duration) error {
	if !lc.IsConnected() {
		return ErrNotConnected
	}
	if timeout <= 0 {
		timeout = lc.config.RequestTimeout
	}

	id := lc.nextID.Add(1)
	ch := make(chan *message, 1)

	lc.pendingMu.Lock()
	lc.pending[id] = ch
	lc.pendingMu.Unlock()

	// The entry is removed on every outcome: success, server error, timeout,
	// cancellation. Late responses for an evicted id are dropped in dispatch.
	defer func() {
		lc.pendingMu.Lock()
		delete(lc.pending, id)
		lc.pendingMu.Unlock()
	}()

	if err := lc.writeMessage(&message{JSONRPC: "2.0", ID: &id, Method: method, Params: marshalParams(params)}); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-lc.done:
		return ErrShutdown
	case <-timer.C:
		logger.Warn(fmt.Sprintf("Request %s (id=%d) timed out after %s", method, id, timeout))
		return fmt.Errorf("%s after %s: %w", method, timeout, ErrTimeout)
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s: server error %d: %w", method, resp.Error.Code, resp.Error)
		}
		if result == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
		return nil
	}
}

// SendNotification sends a fire-and-forget message.
func (lc *LanguageClient) SendNotification(method string, params any) error {
	if !lc.IsConnected() {
		return ErrNotConnected
	}
	if err := lc.writeMessage(&message{JSONRPC: "2.0", Method: method, Params: marshalParams(params)}); err != nil {
		return fmt.Errorf("notify %s: %w", method, err)
	}
	return nil
}

// reply answers a server-initiated request.
func (lc *LanguageClient) reply(id int64, result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return lc.writeMessage(&message{JSONRPC: "2.0", ID: &id, Result: body})
}

func marshalParams(params any) json.RawMessage {
	if params == nil {
		return nil
	}
	body, err := json.Marshal(params)
	if err != nil {
		logger.Error("Failed to marshal request params", err)
		return nil
	}
	return body
}

// writeMessage frames and writes one message under the write mutex. The byte
// length in the header is computed on the encoded form.
func (lc *LanguageClient) writeMessage(msg *message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	lc.writeMu.Lock()
	defer lc.writeMu.Unlock()

	if lc.stdin == nil {
		return ErrNotConnected
	}
	return WriteFrame(lc.stdin, body)
}

// readLoop consumes the server's output stream for the session lifetime.
// It runs on its own goroutine; all inbound messages are processed here, in
// arrival order. A single corrupt frame is logged and skipped; only stream
// closure or cancellation ends the loop.
func (lc *LanguageClient) readLoop() {
	defer close(lc.readerDone)

	for {
		select {
		case <-lc.ctx.Done():
			return
		default:
		}

		body, err := ReadFrame(lc.reader)
		if err != nil {
			if err == errMissingLength {
				logger.Warn("Skipping frame without Content-Length header")
				continue
			}
			if lc.ctx.Err() != nil {
				return
			}
			// EOF, truncated body or a closed pipe: the session is over.
			logger.Info(fmt.Sprintf("Language server stream closed: %v", err))
			lc.handleStreamClosed(err)
			return
		}

		lc.dispatch(body)
	}
}

// handleStreamClosed marks the session dead and releases waiting callers.
// A client Stop already moved to StatusStopped stays stopped; the process
// monitor firing afterwards must not resurrect it as disconnected.
func (lc *LanguageClient) handleStreamClosed(cause error) {
	lc.status.CompareAndSwap(int32(StatusConnected), int32(StatusDisconnected))
	lc.status.CompareAndSwap(int32(StatusInitialized), int32(StatusDisconnected))
	if cause != io.EOF {
		lc.setLastError(cause)
	}
	lc.markDone()
}

// dispatch routes one decoded payload: responses to their pending call,
// server requests to canned replies, notifications to the method switch.
// Decode failures are confined to the offending frame.
func (lc *LanguageClient) dispatch(body []byte) {
	var msg message
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Warn(fmt.Sprintf("Dropping undecodable frame (%d bytes): %v", len(body), err))
		return
	}

	switch {
	case msg.ID != nil && msg.Method == "":
		lc.resolvePending(&msg)
	case msg.ID != nil:
		lc.handleServerRequest(&msg)
	case msg.Method != "":
		lc.handleNotification(&msg)
	default:
		logger.Debug("Dropping frame with neither id nor method")
	}
}

// resolvePending completes the matching call. Responses whose id is no longer
// in the table (timed out, cancelled) are dropped silently.
func (lc *LanguageClient) resolvePending(msg *message) {
	lc.pendingMu.Lock()
	ch, ok := lc.pending[*msg.ID]
	if ok {
		delete(lc.pending, *msg.ID)
	}
	lc.pendingMu.Unlock()

	if !ok {
		logger.Debug(fmt.Sprintf("Dropping response for unknown id %d", *msg.ID))
		return
	}
	ch <- msg
}

// handleServerRequest answers the few client-side requests servers rely on.
// Replying with method-not-found to the rest keeps strict servers happy.
func (lc *LanguageClient) handleServerRequest(msg *message) {
	switch msg.Method {
	case "client/registerCapability", "client/unregisterCapability":
		if err := lc.reply(*msg.ID, map[string]any{}); err != nil {
			logger.Debug(fmt.Sprintf("Failed to reply to %s: %v", msg.Method, err))
		}
	case "workspace/configuration":
		// Reply with one null per requested item.
		var params protocol.ConfigurationParams
		items := 1
		if err := json.Unmarshal(msg.Params, &params); err == nil && len(params.Items) > 0 {
			items = len(params.Items)
		}
		if err := lc.reply(*msg.ID, make([]any, items)); err != nil {
			logger.Debug(fmt.Sprintf("Failed to reply to workspace/configuration: %v", err))
		}
	case "window/workDoneProgress/create":
		if err := lc.reply(*msg.ID, map[string]any{}); err != nil {
			logger.Debug(fmt.Sprintf("Failed to reply to workDoneProgress/create: %v", err))
		}
	default:
		logger.Warn(fmt.Sprintf("Unhandled server request: %s", msg.Method))
		errBody, _ := json.Marshal(&message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error:   &ResponseError{Code: -32601, Message: "Method not found"},
		})
		lc.writeMu.Lock()
		if lc.stdin != nil {
			_ = WriteFrame(lc.stdin, errBody)
		}
		lc.writeMu.Unlock()
	}
}

// handleNotification routes unsolicited server messages. Diagnostic reports
// feed the cache; subscribers run synchronously on this goroutine, so they
// must not block. Unknown methods are ignored.
func (lc *LanguageClient) handleNotification(msg *message) {
	switch msg.Method {
	case "textDocument/publishDiagnostics":
		var params protocol.PublishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			logger.Warn(fmt.Sprintf("Failed to decode publishDiagnostics: %v", err))
			return
		}
		lc.diagnostics.Publish(params)

	case "window/logMessage":
		var params protocol.LogMessageParams
		if err := json.Unmarshal(msg.Params, &params); err == nil {
			logger.Debug("Server log: " + params.Message)
		}

	case "window/showMessage":
		var params protocol.ShowMessageParams
		if err := json.Unmarshal(msg.Params, &params); err == nil {
			logger.Info("Server message: " + params.Message)
		}

	case "$/progress":
		// Indexing progress; surfaced via lsp_status, noisy at info level.
		logger.Debug("Server progress: " + string(msg.Params))

	default:
		logger.Debug("Unhandled notification: " + msg.Method)
	}
}
