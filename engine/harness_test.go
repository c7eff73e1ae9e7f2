package engine

import (
	"context"
	"testing"
	"time"

	"github.com/microbus-io/testarossa"

	"github.com/lowlevl/yengine/wire"
)

type testModule struct {
	gotMessage chan *Request
	gotWatch   chan wire.MessageAck
	quit       chan struct{}
}

func (m *testModule) Install(ctx context.Context, e *Engine) error {
	<-m.quit
	return e.Quit(ctx)
}

func (m *testModule) OnWatch(ctx context.Context, e *Engine, watch wire.MessageAck) error {
	m.gotWatch <- watch
	return nil
}

func (m *testModule) OnMessage(ctx context.Context, e *Engine, req *Request) (bool, error) {
	m.gotMessage <- req
	return true, nil
}

func TestAttach_EndToEnd(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	h := newHarness()
	mod := &testModule{
		gotMessage: make(chan *Request, 1),
		gotWatch:   make(chan wire.MessageAck, 1),
		quit:       make(chan struct{}),
	}

	errc := make(chan error, 1)
	go func() { errc <- Attach(context.Background(), h.engine, mod) }()

	h.send(t, "%%<message:1:1095112795:engine.timer:")

	var req *Request
	select {
	case req = <-mod.gotMessage:
	case <-time.After(2 * time.Second):
		t.Fatal("OnMessage was not invoked")
	}
	assert.Equal("1", req.ID())
	assert.Equal("engine.timer", req.Name())

	ackOut := h.readLine(t)
	assert.Equal("%%<message:1:true:engine.timer:", ackOut)

	h.send(t, "%%<message:234479208:false:engine.timer::time=1095112795")

	select {
	case watch := <-mod.gotWatch:
		assert.Equal("234479208", watch.ID)
		assert.False(watch.Processed)
	case <-time.After(2 * time.Second):
		t.Fatal("OnWatch was not invoked")
	}

	close(mod.quit)
	quitOut := h.readLine(t)
	assert.Equal("%%>quit", quitOut)
	h.send(t, "%%<quit")

	select {
	case err := <-errc:
		assert.NoError(err)
	case <-time.After(2 * time.Second):
		t.Fatal("Attach did not return")
	}
}
