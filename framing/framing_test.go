package framing

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/microbus-io/testarossa"
)

func TestReader_SplitsLines(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	r := NewReader(strings.NewReader("one\ntwo\r\nthree\n"))
	ctx := context.Background()

	f1, err := r.ReadFrame(ctx)
	assert.NoError(err)
	assert.Equal("one", f1)

	f2, err := r.ReadFrame(ctx)
	assert.NoError(err)
	assert.Equal("two", f2)

	f3, err := r.ReadFrame(ctx)
	assert.NoError(err)
	assert.Equal("three", f3)

	_, err = r.ReadFrame(ctx)
	assert.Equal(io.EOF, err)
}

func TestWriter_AppendsNewline(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	var buf strings.Builder
	w := NewWriter(&buf)
	assert.NoError(w.WriteFrame("%%>quit"))
	assert.Equal("%%>quit\n", buf.String())
}

func TestWriter_ConcurrentSafe(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	var buf strings.Builder
	w := NewWriter(&buf)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = w.WriteFrame("%%>output:hi")
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(8, strings.Count(buf.String(), "\n"))
}
