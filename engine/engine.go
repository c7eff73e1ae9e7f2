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

// Package engine is the client-side connector to the Yate telephony
// engine: the request/response façade, the module harness that drives
// it, and the Request guard that keeps inbound dispatches honest.
package engine

import (
	"context"
	"io"
	"sync"

	"github.com/microbus-io/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lowlevl/yengine/framing"
	"github.com/lowlevl/yengine/metrics"
	"github.com/lowlevl/yengine/router"
	"github.com/lowlevl/yengine/topic"
	"github.com/lowlevl/yengine/wire"
	"github.com/lowlevl/yengine/ylog"
)

var tracer = otel.Tracer("github.com/lowlevl/yengine/engine")

// Engine is the connector to the telephony engine. Construct one with
// New over any io.ReadWriteCloser — a pair of stdio pipes when the
// module is launched as an engine child process, or a dialed socket
// when it runs free-standing and connects in.
type Engine struct {
	writer *framing.Writer
	router *router.Router
	ids    *idGenerator
	closer io.Closer

	mu      sync.Mutex
	readErr error
}

func (e *Engine) recordReadErr(err error) {
	e.mu.Lock()
	e.readErr = err
	e.mu.Unlock()
}

// request subscribes to t, writes frame, and blocks for exactly one
// Match, handing any interleaved NoMatch to the router's own fallback
// (which runs inside Dispatch, not here). A caller-driven cancellation
// surfaces as ctx.Err(); end-of-stream before the ack arrives (and
// before ctx was ever cancelled) surfaces as ErrUnexpectedEOF.
func (e *Engine) request(ctx context.Context, t topic.Topic, frame string) (string, error) {
	sub, err := e.router.Subscribe(t)
	if err != nil {
		return "", err
	}
	defer sub.Close()

	if err := e.writer.WriteFrame(frame); err != nil {
		return "", err
	}

	reply, ok := sub.Recv(ctx)
	if !ok {
		if cerr := ctx.Err(); cerr != nil {
			return "", errors.Trace(cerr)
		}
		return "", ErrUnexpectedEOF
	}
	return reply, nil
}

func (e *Engine) fireAndForget(frame string) error {
	return e.writer.WriteFrame(frame)
}

func startSpan(ctx context.Context, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "yengine."+method, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, method string, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		metrics.FacadeCalls.WithLabelValues(method, "error").Inc()
	} else {
		metrics.FacadeCalls.WithLabelValues(method, "ok").Inc()
	}
	span.End()
}

// Install requests that the engine route messages named name through
// this module, in priority order, optionally restricted by filter.
func (e *Engine) Install(ctx context.Context, priority *uint64, name string, filter *wire.Filter) (success bool, err error) {
	ctx, span := startSpan(ctx, "install", attribute.String("name", name))
	defer func() { endSpan(span, "install", err) }()

	msg := wire.Install{Priority: priority, Name: name, Filter: filter}
	reply, err := e.request(ctx, topic.Topic{Kind: topic.KindInstallAck, Key: name}, msg.Serialize())
	if err != nil {
		return false, err
	}
	ack, err := wire.ParseInstallAck(reply)
	if err != nil {
		return false, err
	}
	return ack.Success, nil
}

// Uninstall removes a previously installed handler.
func (e *Engine) Uninstall(ctx context.Context, name string) (success bool, err error) {
	ctx, span := startSpan(ctx, "uninstall", attribute.String("name", name))
	defer func() { endSpan(span, "uninstall", err) }()

	msg := wire.Uninstall{Name: name}
	reply, err := e.request(ctx, topic.Topic{Kind: topic.KindUninstallAck, Key: name}, msg.Serialize())
	if err != nil {
		return false, err
	}
	ack, err := wire.ParseUninstallAck(reply)
	if err != nil {
		return false, err
	}
	return ack.Success, nil
}

// Watch requests that the engine send a copy of every matching message
// to this module's watch stream.
func (e *Engine) Watch(ctx context.Context, name string) (success bool, err error) {
	ctx, span := startSpan(ctx, "watch", attribute.String("name", name))
	defer func() { endSpan(span, "watch", err) }()

	msg := wire.Watch{Name: name}
	reply, err := e.request(ctx, topic.Topic{Kind: topic.KindWatchAck, Key: name}, msg.Serialize())
	if err != nil {
		return false, err
	}
	ack, err := wire.ParseWatchAck(reply)
	if err != nil {
		return false, err
	}
	return ack.Success, nil
}

// Unwatch removes a previously installed watcher.
func (e *Engine) Unwatch(ctx context.Context, name string) (success bool, err error) {
	ctx, span := startSpan(ctx, "unwatch", attribute.String("name", name))
	defer func() { endSpan(span, "unwatch", err) }()

	msg := wire.Unwatch{Name: name}
	reply, err := e.request(ctx, topic.Topic{Kind: topic.KindUnwatchAck, Key: name}, msg.Serialize())
	if err != nil {
		return false, err
	}
	ack, err := wire.ParseUnwatchAck(reply)
	if err != nil {
		return false, err
	}
	return ack.Success, nil
}

// SetLocal sets a local parameter, described by localparam, to value.
func (e *Engine) SetLocal(ctx context.Context, name, value string) (success bool, err error) {
	ctx, span := startSpan(ctx, "setlocal", attribute.String("name", name))
	defer func() { endSpan(span, "setlocal", err) }()

	v := value
	msg := wire.SetLocal{Name: name, Value: &v}
	reply, err := e.request(ctx, topic.Topic{Kind: topic.KindSetLocalAck, Key: name}, msg.Serialize())
	if err != nil {
		return false, err
	}
	ack, err := wire.ParseSetLocalAck(reply)
	if err != nil {
		return false, err
	}
	return ack.Success, nil
}

// GetLocal queries the current value of a local parameter, sending a
// SetLocal with no value.
func (e *Engine) GetLocal(ctx context.Context, name string) (value string, err error) {
	ctx, span := startSpan(ctx, "getlocal", attribute.String("name", name))
	defer func() { endSpan(span, "getlocal", err) }()

	msg := wire.SetLocal{Name: name}
	reply, err := e.request(ctx, topic.Topic{Kind: topic.KindSetLocalAck, Key: name}, msg.Serialize())
	if err != nil {
		return "", err
	}
	ack, err := wire.ParseSetLocalAck(reply)
	if err != nil {
		return "", err
	}
	return ack.Value, nil
}

// Message sends name to the engine for routing, waiting for its ack.
// The id correlating request and ack is generated by the façade.
func (e *Engine) Message(ctx context.Context, name, retvalue string, kv map[string]string) (processed bool, retvalueOut string, kvOut map[string]string, err error) {
	ctx, span := startSpan(ctx, "message", attribute.String("name", name))
	defer func() { endSpan(span, "message", err) }()

	id := e.ids.next()
	msg := wire.Message{ID: id, Time: unixNow(), Name: name, Retvalue: retvalue, KV: kv}
	reply, err := e.request(ctx, topic.Topic{Kind: topic.KindMessageAck, Key: id}, msg.Serialize())
	if err != nil {
		return false, "", nil, err
	}
	ack, err := wire.ParseMessageAck(reply)
	if err != nil {
		return false, "", nil, err
	}
	return ack.Processed, ack.Retvalue, ack.KV, nil
}

// Messages subscribes to the raw (time-bearing) dispatch topic and
// returns a stream of Requests, each of which must be ack'd.
func (e *Engine) Messages() (*MessageStream, error) {
	sub, err := e.router.Subscribe(topic.Topic{Kind: topic.KindMessage})
	if err != nil {
		return nil, err
	}
	return &MessageStream{sub: sub}, nil
}

// Watches subscribes to the watch delivery topic and returns a stream of
// MessageAck records; no ack is expected in reply to these.
func (e *Engine) Watches() (*WatchStream, error) {
	sub, err := e.router.Subscribe(topic.Topic{Kind: topic.KindWatch})
	if err != nil {
		return nil, err
	}
	return &WatchStream{sub: sub}, nil
}

// Ack replies to a Request, supplying the processed flag the handler
// computed. Calling Ack more than once on the same Request is a no-op on
// the second and later calls.
func (e *Engine) Ack(ctx context.Context, req *Request, processed bool) error {
	if req.acked {
		return nil
	}
	ack := wire.MessageAck{
		ID:        req.msg.ID,
		Processed: processed,
		Name:      req.msg.Name,
		Retvalue:  req.msg.Retvalue,
		KV:        req.msg.KV,
	}
	req.markAcked()
	return e.fireAndForget(ack.Serialize())
}

// Connect identifies this module to the engine, for socket-based modules
// that dial in rather than running as a child process.
func (e *Engine) Connect(role string, channel *wire.ChannelRef) error {
	msg := wire.Connect{Role: role, Channel: channel}
	return e.fireAndForget(msg.Serialize())
}

// Output writes text to the engine's log.
func (e *Engine) Output(text string) error {
	msg := wire.Output{Text: text}
	return e.fireAndForget(msg.Serialize())
}

// Debug writes text to the engine's log at the given debug level.
func (e *Engine) Debug(level int, text string) error {
	msg := wire.Debug{Level: level, Text: text}
	return e.fireAndForget(msg.Serialize())
}

// Quit tells the engine this module is stopping, waits for its ack, and
// then unsubscribes every other outstanding stream so they observe "no
// more items" on their next receive.
func (e *Engine) Quit(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "quit")
	defer func() { endSpan(span, "quit", err) }()

	_, err = e.request(ctx, topic.Topic{Kind: topic.KindQuitAck}, wire.Quit{}.Serialize())
	e.router.UnsubscribeAll()
	return err
}

// defaultResponse is the router's Fallback: it runs for any frame whose
// topic (after the MessageAck→Watch rule) has no subscriber.
func (e *Engine) defaultResponse(ctx context.Context, frame string) {
	if msg, err := wire.ParseMessageTagged(frame, wire.TagMessageIn); err == nil {
		e.autoAck(msg.ID, msg.Retvalue, msg.KV)
		return
	}
	if ack, err := wire.ParseMessageAck(frame); err == nil {
		e.autoAck(ack.ID, ack.Retvalue, ack.KV)
		return
	}
	if errIn, err := wire.ParseErrorIn(frame); err == nil {
		ylog.Error(ctx, "engine reported a malformed line", "line", errIn.Original)
		return
	}
	ylog.Warn(ctx, "dropping unroutable frame", "frame", frame)
}

// autoAck unblocks the engine's dispatch queue for a message no handler
// consumed, echoing its id, retvalue and map with processed=false.
func (e *Engine) autoAck(id, retvalue string, kv map[string]string) {
	ack := wire.MessageAck{ID: id, Processed: false, Retvalue: retvalue, KV: kv}
	_ = e.fireAndForget(ack.Serialize())
}
