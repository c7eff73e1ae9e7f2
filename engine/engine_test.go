package engine

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/microbus-io/testarossa"
)

// harness wires an Engine to a fake transport the test can script: writes
// the module makes land on out (read line by line with readLine); frames
// written to in are delivered to the module as if the engine sent them.
type harness struct {
	engine *Engine
	outR   *bufio.Reader
	inW    io.WriteCloser
}

type rwc struct {
	io.Reader
	io.Writer
	io.Closer
}

func newHarness() *harness {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	transport := rwc{Reader: inR, Writer: outW, Closer: inR}

	return &harness{
		engine: New(transport),
		outR:   bufio.NewReader(outR),
		inW:    inW,
	}
}

func (h *harness) readLine(t *testing.T) string {
	t.Helper()
	line, err := h.outR.ReadString('\n')
	if err != nil {
		t.Fatalf("reading module output: %v", err)
	}
	return line[:len(line)-1]
}

func (h *harness) send(t *testing.T, frame string) {
	t.Helper()
	if _, err := h.inW.Write([]byte(frame + "\n")); err != nil {
		t.Fatalf("sending frame to module: %v", err)
	}
}

func TestEngine_InstallRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	h := newHarness()
	errc := make(chan error, 1)
	var result bool
	go func() {
		priority := uint64(50)
		ok, err := h.engine.Install(context.Background(), &priority, "engine.timer", nil)
		result = ok
		errc <- err
	}()

	out := h.readLine(t)
	assert.Equal("%%>install:50:engine.timer", out)
	h.send(t, "%%<install:50:engine.timer:true")

	select {
	case err := <-errc:
		assert.NoError(err)
		assert.True(result)
	case <-time.After(2 * time.Second):
		t.Fatal("Install did not complete")
	}
}

func TestEngine_UnsolicitedMessageAutoAck(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	h := newHarness()
	// No messages() subscriber is registered: the frame falls through to
	// the router's default response, which must auto-ack it.
	h.send(t, "%%<message:abc:false:call.route::caller=1")

	out := h.readLine(t)
	assert.Equal("%%<message:abc:false:::caller=1", out)
}

func TestEngine_WatchDelivery(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	h := newHarness()
	stream, err := h.engine.Watches()
	assert.NoError(err)
	defer stream.Close()

	h.send(t, "%%<message:234479208:false:engine.timer::time=1095112795")

	ack, ok := stream.Next(context.Background())
	assert.True(ok)
	assert.Equal("234479208", ack.ID)
	assert.False(ack.Processed)
}

func TestEngine_GetLocal(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	h := newHarness()
	errc := make(chan error, 1)
	var value string
	go func() {
		v, err := h.engine.GetLocal(context.Background(), "engine.version")
		value = v
		errc <- err
	}()

	out := h.readLine(t)
	assert.Equal("%%>setlocal:engine.version:", out)
	h.send(t, "%%<setlocal:engine.version:6.4.0:true")

	select {
	case err := <-errc:
		assert.NoError(err)
		assert.Equal("6.4.0", value)
	case <-time.After(2 * time.Second):
		t.Fatal("GetLocal did not complete")
	}
}

func TestEngine_Quit(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	h := newHarness()
	errc := make(chan error, 1)
	go func() {
		errc <- h.engine.Quit(context.Background())
	}()

	out := h.readLine(t)
	assert.Equal("%%>quit", out)
	h.send(t, "%%<quit")

	select {
	case err := <-errc:
		assert.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("Quit did not complete")
	}
}
