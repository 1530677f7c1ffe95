package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/myleshyson/lsprotocol-go/protocol"
)

// ClientStatus tracks the connection lifecycle of a LanguageClient.
type ClientStatus int32

const (
	StatusStopped ClientStatus = iota
	StatusStarting
	StatusConnected
	StatusInitialized
	StatusDisconnected
)

func (s ClientStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusConnected:
		return "connected"
	case StatusInitialized:
		return "initialized"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConnected is returned for requests issued before Start succeeds
	// or after the session died.
	ErrNotConnected = errors.New("language server not connected")
	// ErrTimeout is returned when a call exceeds its per-call bound.
	ErrTimeout = errors.New("request timed out")
	// ErrShutdown is returned to callers whose pending calls were cut off by
	// session teardown or stream closure.
	ErrShutdown = errors.New("language server connection closed")
)

// ServerConfig describes how to locate and launch the language server.
type ServerConfig struct {
	// Command is an explicit server binary. When empty, CandidatePaths are
	// probed in order.
	Command string `json:"command,omitempty"`
	// CandidatePaths are probed with a version check; first working wins.
	// Defaults to DefaultCandidatePaths() when empty.
	CandidatePaths []string `json:"candidate_paths,omitempty"`
	Args           []string `json:"args,omitempty"`
	// Mode selects the transport: "stdio" (default) spawns the process,
	// "websocket" dials a remote analysis endpoint.
	Mode string `json:"mode,omitempty"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	InitializationOptions map[string]any `json:"initialization_options,omitempty"`

	// RequestTimeout bounds ordinary calls; heavier operations use their own
	// bounds in methods.go. Zero means defaultRequestTimeout.
	RequestTimeout time.Duration `json:"-"`
}

// IsWebSocketMode reports whether the client should dial instead of spawn.
func (c ServerConfig) IsWebSocketMode() bool { return c.Mode == "websocket" }

const (
	defaultRequestTimeout   = 30 * time.Second
	initializeTimeout       = 120 * time.Second
	shutdownRequestTimeout  = 5 * time.Second
	readerDrainTimeout      = 2 * time.Second
	processExitTimeout      = 5 * time.Second
	spawnGraceWindow        = 250 * time.Millisecond
	diagnosticsPollInterval = 100 * time.Millisecond
)

// message is the wire envelope. Requests and responses carry an id;
// notifications do not. Result and Error are mutually exclusive on responses.
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the server-reported failure for a single call.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ResponseError) Error() string { return e.Message }

// LanguageClient is one session with an external language-analysis process.
// It owns the process handle, the framing reader loop, the pending-call table
// and the diagnostics cache. A client is not restartable: after Stop or
// process death, create a new one.
type LanguageClient struct {
	config ServerConfig

	// startMu serializes Start/Stop; concurrent starts must not race the
	// process spawn.
	startMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
	reader *bufio.Reader
	// closer tears down the websocket stream in websocket mode.
	closer io.Closer

	// writeMu serializes outbound frames so concurrent callers cannot
	// interleave partial messages.
	writeMu sync.Mutex

	nextID    atomic.Int64
	pendingMu sync.Mutex
	pending   map[int64]chan *message

	diagnostics *DiagnosticsCache

	status     atomic.Int32
	lastError  atomic.Value // error
	exitCh     chan error
	readerDone chan struct{}
	// done is closed exactly once when the session terminates; pending
	// callers select on it to fail fast.
	done     chan struct{}
	doneOnce sync.Once

	serverCapabilities protocol.ServerCapabilities
	capsMu             sync.RWMutex

	startedAt time.Time
}

// NewLanguageClient creates an unstarted client.
func NewLanguageClient(config ServerConfig) *LanguageClient {
	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	lc := &LanguageClient{
		config:      config,
		pending:     make(map[int64]chan *message),
		diagnostics: NewDiagnosticsCache(),
		exitCh:      make(chan error, 1),
		readerDone:  make(chan struct{}),
		done:        make(chan struct{}),
	}
	lc.status.Store(int32(StatusStopped))
	return lc
}

// Status returns the current lifecycle state.
func (lc *LanguageClient) Status() ClientStatus {
	return ClientStatus(lc.status.Load())
}

// IsConnected reports whether requests can currently be sent.
func (lc *LanguageClient) IsConnected() bool {
	s := lc.Status()
	return s == StatusConnected || s == StatusInitialized
}

// Diagnostics exposes the per-document diagnostic cache.
func (lc *LanguageClient) Diagnostics() *DiagnosticsCache {
	return lc.diagnostics
}

// ServerCapabilities returns the capabilities negotiated at handshake.
func (lc *LanguageClient) ServerCapabilities() protocol.ServerCapabilities {
	lc.capsMu.RLock()
	defer lc.capsMu.RUnlock()
	return lc.serverCapabilities
}

// lastErrBox gives every stored error the same concrete type, as
// atomic.Value requires.
type lastErrBox struct{ err error }

// LastError returns the most recent terminal error, if any.
func (lc *LanguageClient) LastError() error {
	if v := lc.lastError.Load(); v != nil {
		return v.(lastErrBox).err
	}
	return nil
}

func (lc *LanguageClient) setLastError(err error) {
	if err != nil {
		lc.lastError.Store(lastErrBox{err})
	}
}

func (lc *LanguageClient) markDone() {
	lc.doneOnce.Do(func() { close(lc.done) })
}
