package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The base protocol frames every message as
//
//	Content-Length: <n>\r\n
//	...other headers...\r\n
//	\r\n
//	<n bytes of JSON body>
//
// The length counts encoded bytes, not characters. Headers are matched
// case-insensitively because server implementations disagree on casing.

var (
	// errMissingLength marks a header block without a usable Content-Length.
	// The reader loop skips the frame and keeps going.
	errMissingLength = errors.New("frame header missing Content-Length")
)

var headerTerminator = []byte("\r\n\r\n")

// WriteFrame writes one framed message body. Callers must serialize writes;
// the client holds its write mutex around this.
func WriteFrame(w io.Writer, body []byte) error {
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one framed message body from r.
//
// A header block without a positive Content-Length yields errMissingLength so
// the caller can skip the frame without tearing down the session. io.EOF (or
// io.ErrUnexpectedEOF on a truncated body) means the stream is gone; a partial
// body is never returned.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	header, err := readHeaderBlock(r)
	if err != nil {
		return nil, err
	}

	length := parseContentLength(header)
	if length <= 0 {
		return nil, errMissingLength
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return body, nil
}

// readHeaderBlock consumes bytes until the \r\n\r\n terminator.
func readHeaderBlock(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && buf.Len() > 0 {
				// Stream died mid-header.
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf.WriteByte(b)
		if buf.Len() >= len(headerTerminator) && bytes.HasSuffix(buf.Bytes(), headerTerminator) {
			return buf.Bytes(), nil
		}
	}
}

// parseContentLength scans header lines case-insensitively for the length
// field. Returns 0 when absent or unparseable.
func parseContentLength(header []byte) int {
	for _, line := range strings.Split(string(header), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}
