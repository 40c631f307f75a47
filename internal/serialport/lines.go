package serialport

import (
	"bytes"
	"context"
	"io"
)

const readChunkSize = 256

// LineReader reads newline-terminated records from a port whose reads time
// out. bufio.Scanner gives up after repeated empty reads, which is exactly
// how a serial read timeout looks, so the buffering is done here instead.
type LineReader struct {
	r       io.Reader
	pending []byte
	chunk   []byte
}

// NewLineReader creates a LineReader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		r:     r,
		chunk: make([]byte, readChunkSize),
	}
}

// ReadLine returns the next line without its terminator. When a read times
// out before a newline arrives, the partial (possibly empty) line collected
// so far is returned with a nil error. Transport errors, including io.EOF
// on a closed port, are returned as is.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	for {
		if i := bytes.IndexByte(l.pending, '\n'); i >= 0 {
			line := string(bytes.TrimRight(l.pending[:i], "\r"))
			l.pending = l.pending[i+1:]
			return line, nil
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := l.r.Read(l.chunk)
		if n > 0 {
			l.pending = append(l.pending, l.chunk[:n]...)
			continue
		}
		if err != nil {
			return "", err
		}

		// timed out
		line := string(bytes.TrimRight(l.pending, "\r"))
		l.pending = l.pending[:0]
		return line, nil
	}
}

// Discard drops any buffered partial input.
func (l *LineReader) Discard() {
	l.pending = l.pending[:0]
}

// Buffered returns the number of bytes held but not yet returned.
func (l *LineReader) Buffered() int {
	return len(l.pending)
}
