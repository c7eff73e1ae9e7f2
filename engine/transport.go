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

package engine

import (
	"context"
	"io"
	"time"

	"github.com/lowlevl/yengine/framing"
	"github.com/lowlevl/yengine/metrics"
	"github.com/lowlevl/yengine/router"
	"github.com/lowlevl/yengine/wire"
)

// New constructs an Engine over rw and starts reading frames from it in
// the background. rw is typically the module process's stdin/stdout
// pair, or a dialed socket; Close shuts it down.
func New(rw io.ReadWriteCloser) *Engine {
	e := &Engine{
		writer: framing.NewWriter(rw),
		ids:    newIDGenerator(),
		closer: rw,
	}
	e.router = router.New(e.defaultResponse)

	reader := framing.NewReader(rw)
	go e.readLoop(reader)

	return e
}

// Close closes the underlying transport. Any request in flight observes
// ErrUnexpectedEOF once the read loop notices the stream is gone.
func (e *Engine) Close() error {
	return e.closer.Close()
}

// readLoop is the module harness's single reader of the shared stream:
// it owns framing.Reader exclusively, so "the stream is read only while
// the router lock is held" (invariant I3) holds trivially — there is
// never a second reader to race against.
func (e *Engine) readLoop(reader *framing.Reader) {
	ctx := context.Background()
	defer e.router.UnsubscribeAll()
	for {
		frame, err := reader.ReadFrame(ctx)
		if err != nil {
			metrics.FramesRead.WithLabelValues("error").Inc()
			e.recordReadErr(err)
			return
		}
		metrics.FramesRead.WithLabelValues("ok").Inc()
		e.router.Dispatch(ctx, frame)
	}
}

func unixNow() uint64 {
	return uint64(time.Now().Unix())
}

// MessageStream yields Requests for messages dispatched by the engine
// that no other handler has consumed. Each Request must be ack'd.
type MessageStream struct {
	sub *router.Subscription
}

// Next blocks for the next dispatched message, returning ok=false once
// the stream has been closed or the underlying connection is gone.
func (s *MessageStream) Next(ctx context.Context) (req *Request, ok bool) {
	frame, ok := s.sub.Recv(ctx)
	if !ok {
		return nil, false
	}
	msg, err := wire.ParseMessageTagged(frame, wire.TagMessageIn)
	if err != nil {
		// Malformed frames never reach here: the topic classifier only
		// routes to this subscription frames it itself parsed as Message.
		return nil, false
	}
	ack := wire.MessageAck{ID: msg.ID, Name: &msg.Name, Retvalue: msg.Retvalue, KV: msg.KV}
	return newRequest(ack), true
}

// Close stops this stream, waking a blocked Next with ok=false.
func (s *MessageStream) Close() { s.sub.Close() }

// WatchStream yields a copy of every message dispatched to a watched
// topic. No ack is expected in reply.
type WatchStream struct {
	sub *router.Subscription
}

// Next blocks for the next watch delivery.
func (s *WatchStream) Next(ctx context.Context) (ack wire.MessageAck, ok bool) {
	frame, ok := s.sub.Recv(ctx)
	if !ok {
		return wire.MessageAck{}, false
	}
	parsed, err := wire.ParseMessageAck(frame)
	if err != nil {
		return wire.MessageAck{}, false
	}
	return parsed, true
}

// Close stops this stream, waking a blocked Next with ok=false.
func (s *WatchStream) Close() { s.sub.Close() }
