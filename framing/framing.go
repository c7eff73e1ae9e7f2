/*
Copyright (c) 2023-2025 Microbus LLC and various contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package framing turns a raw byte stream into newline-delimited frames
// and back: the layer directly below the topic classifier and directly
// above whatever io.ReadWriteCloser carries bytes to the engine.
package framing

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/microbus-io/errors"

	"github.com/lowlevl/yengine/ylog"
)

// DefaultSoftBound is the line length above which Reader logs a warning
// but still delivers the frame; the protocol itself imposes no hard cap.
const DefaultSoftBound = 8192

// Reader splits an underlying stream into frames, one per line, stripping
// a trailing '\r' so CRLF transports are tolerated transparently.
type Reader struct {
	scanner   *bufio.Scanner
	softBound int
}

// NewReader wraps r, scanning lines up to an very large hard cap (64 MiB,
// to avoid an unbounded buffer on a misbehaving peer) while only warning,
// not failing, past softBound.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, DefaultSoftBound), 64<<20)
	return &Reader{scanner: scanner, softBound: DefaultSoftBound}
}

// SetSoftBound overrides the line-length warning threshold.
func (r *Reader) SetSoftBound(n int) {
	r.softBound = n
}

// ReadFrame returns the next frame, with its trailing '\r' (if any)
// stripped. It returns io.EOF when the stream is exhausted cleanly.
func (r *Reader) ReadFrame(ctx context.Context) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", errors.Trace(fmt.Errorf("reading frame: %w", err))
		}
		return "", io.EOF
	}
	line := r.scanner.Text()
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if r.softBound > 0 && len(line) > r.softBound {
		ylog.Warn(ctx, "frame exceeds soft length bound", "length", len(line), "bound", r.softBound)
	}
	return line, nil
}

// Writer serializes frames onto an underlying stream, one per line,
// flushing after every write so a peer waiting on a reply sees it
// promptly. Writer is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame appends '\n' to frame and flushes it to the underlying
// stream, holding the writer's lock throughout so frames written
// concurrently never interleave.
func (w *Writer) WriteFrame(frame string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.w.WriteString(frame); err != nil {
		return errors.Trace(fmt.Errorf("writing frame: %w", err))
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return errors.Trace(fmt.Errorf("writing frame: %w", err))
	}
	if err := w.w.Flush(); err != nil {
		return errors.Trace(fmt.Errorf("writing frame: %w", err))
	}
	return nil
}
