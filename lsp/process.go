package lsp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"sharpbridge/mcp-csharp-bridge/logger"
)

const serverBinaryName = "csharp-ls"

// DefaultCandidatePaths returns the ordered probe list for the server binary:
// bare name via PATH, the dotnet tools directory, then common system prefixes.
func DefaultCandidatePaths() []string {
	candidates := []string{serverBinaryName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".dotnet", "tools", serverBinaryName))
	}
	candidates = append(candidates,
		filepath.Join("/usr/local/bin", serverBinaryName),
		filepath.Join("/usr/bin", serverBinaryName),
	)
	return candidates
}

// ResolveServerBinary probes candidates in order by running a version check
// and returns the first one that exits zero. Exhausting the list is fatal for
// the start attempt.
func ResolveServerBinary(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidatePaths()
	}
	for _, candidate := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := exec.CommandContext(probeCtx, candidate, "--version").Run()
		cancel()
		if err == nil {
			logger.Info("Resolved language server binary: " + candidate)
			return candidate, nil
		}
		logger.Debug(fmt.Sprintf("Candidate %s failed version probe: %v", candidate, err))
	}
	return "", fmt.Errorf("no working %s binary found (probed %d candidates)", serverBinaryName, len(candidates))
}

// Start launches the language server and begins the reader loop. It does not
// perform the handshake; the bridge sequences that afterwards.
//
// Start is idempotent: calling it on a connected client is a no-op. Concurrent
// calls are serialized. On any failure the partially-started state is torn
// down before the error is returned.
func (lc *LanguageClient) Start(ctx context.Context, workspaceRoot string) error {
	lc.startMu.Lock()
	defer lc.startMu.Unlock()

	if lc.IsConnected() {
		return nil
	}
	if lc.Status() != StatusStopped {
		return fmt.Errorf("client is %s and cannot be restarted", lc.Status())
	}

	lc.status.Store(int32(StatusStarting))
	lc.ctx, lc.cancel = context.WithCancel(context.WithoutCancel(ctx))

	var err error
	if lc.config.IsWebSocketMode() {
		err = lc.connectWebSocket()
	} else {
		err = lc.spawnProcess(ctx, workspaceRoot)
	}
	if err != nil {
		lc.teardown()
		lc.status.Store(int32(StatusStopped))
		lc.setLastError(err)
		return err
	}

	go lc.readLoop()

	lc.status.Store(int32(StatusConnected))
	lc.startedAt = time.Now()
	return nil
}

// spawnProcess resolves the binary and wires up raw byte pipes. stdout must
// stay binary-safe for the framing codec; stderr is drained into logging only.
func (lc *LanguageClient) spawnProcess(ctx context.Context, workspaceRoot string) error {
	command := lc.config.Command
	if command == "" {
		resolved, err := ResolveServerBinary(ctx, lc.config.CandidatePaths)
		if err != nil {
			return err
		}
		command = resolved
	}

	cmd := exec.Command(command, lc.config.Args...)
	if workspaceRoot != "" {
		cmd.Dir = workspaceRoot
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("start %s: %w", command, err)
	}

	lc.cmd = cmd
	lc.stdin = stdin
	lc.stdout = stdout
	lc.stderr = stderr
	lc.reader = bufio.NewReaderSize(stdout, 64*1024)

	go lc.drainStderr(stderr)
	go lc.monitorExit()

	// Catch servers that die immediately (bad args, missing runtime) before
	// the bridge wastes a handshake on them.
	select {
	case exitErr := <-lc.exitCh:
		return fmt.Errorf("%s exited during startup: %w", command, exitErr)
	case <-time.After(spawnGraceWindow):
	}

	logger.Info(fmt.Sprintf("Started %s (pid %d)", command, cmd.Process.Pid))
	return nil
}

// drainStderr forwards server stderr line-by-line into diagnostic logging.
// It is never parsed for control data.
func (lc *LanguageClient) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Debug("csharp-ls stderr: " + scanner.Text())
	}
}

// monitorExit reports process termination exactly once.
func (lc *LanguageClient) monitorExit() {
	if lc.cmd == nil {
		return
	}
	err := lc.cmd.Wait()
	select {
	case lc.exitCh <- exitError(err):
	default:
	}
	lc.handleStreamClosed(exitError(err))
}

func exitError(err error) error {
	if err == nil {
		return fmt.Errorf("process exited")
	}
	return err
}

// Stop shuts the session down: stop the reader, ask the server to terminate
// politely, then force it. Resources are released unconditionally.
func (lc *LanguageClient) Stop() error {
	lc.startMu.Lock()
	defer lc.startMu.Unlock()

	if lc.Status() == StatusStopped {
		return nil
	}

	// Polite shutdown/exit exchange first, while the pipes still work.
	if lc.IsConnected() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownRequestTimeout)
		if err := lc.SendRequest(ctx, "shutdown", nil, nil, shutdownRequestTimeout); err != nil {
			logger.Debug(fmt.Sprintf("Shutdown request failed: %v", err))
		}
		if err := lc.SendNotification("exit", nil); err != nil {
			logger.Debug(fmt.Sprintf("Exit notification failed: %v", err))
		}
		cancel()
	}

	// Stop the reader and wait for it to drain, bounded.
	if lc.cancel != nil {
		lc.cancel()
	}
	if lc.stdin != nil {
		lc.stdin.Close()
	}
	select {
	case <-lc.readerDone:
	case <-time.After(readerDrainTimeout):
		logger.Warn("Reader loop did not stop within grace timeout")
	}

	// Wait for natural exit, then force.
	if lc.cmd != nil && lc.cmd.Process != nil {
		select {
		case <-lc.exitCh:
		case <-time.After(processExitTimeout):
			logger.Warn("Language server did not exit; killing process")
			_ = lc.cmd.Process.Kill()
		}
	}

	lc.teardown()
	lc.status.Store(int32(StatusStopped))
	lc.markDone()
	return nil
}

// teardown releases streams, cancellation and the process handle. Safe to
// call on partially-started state.
func (lc *LanguageClient) teardown() {
	if lc.cancel != nil {
		lc.cancel()
	}
	lc.writeMu.Lock()
	if lc.stdin != nil {
		lc.stdin.Close()
		lc.stdin = nil
	}
	lc.writeMu.Unlock()
	if lc.stdout != nil {
		lc.stdout.Close()
		lc.stdout = nil
	}
	if lc.stderr != nil {
		lc.stderr.Close()
		lc.stderr = nil
	}
	if lc.closer != nil {
		lc.closer.Close()
		lc.closer = nil
	}
}
