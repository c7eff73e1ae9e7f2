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

	"golang.org/x/sync/errgroup"

	"github.com/lowlevl/yengine/wire"
)

// Module is the contract a caller implements to drive an Engine through
// Attach. Install runs once; OnWatch and OnMessage run repeatedly for
// the lifetime of the connection.
type Module interface {
	// Install installs the handlers and watchers this module cares
	// about. A typical implementation awaits a shutdown signal after
	// installing and then calls Engine.Quit.
	Install(ctx context.Context, e *Engine) error

	// OnWatch processes an incoming watch delivery. It never needs to
	// reply: watches carry no ack.
	OnWatch(ctx context.Context, e *Engine, watch wire.MessageAck) error

	// OnMessage processes a dispatched message. Its return value is the
	// processed flag Attach passes to Engine.Ack on the module's behalf,
	// in both the success and the error case.
	OnMessage(ctx context.Context, e *Engine, req *Request) (bool, error)
}

// Attach runs the three cooperating tasks that drive a Module against e
// — the one-shot install, the watch loop and the message loop — failing
// as soon as any of them fails, via errgroup's "first error cancels the
// group" semantics.
func Attach(ctx context.Context, e *Engine, m Module) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.Install(ctx, e)
	})
	g.Go(func() error {
		return watchLoop(ctx, e, m)
	})
	g.Go(func() error {
		return messageLoop(ctx, e, m)
	})

	return g.Wait()
}

func watchLoop(ctx context.Context, e *Engine, m Module) error {
	stream, err := e.Watches()
	if err != nil {
		return err
	}
	defer stream.Close()

	wg, ctx := errgroup.WithContext(ctx)
	for {
		watch, ok := stream.Next(ctx)
		if !ok {
			break
		}
		wg.Go(func() error {
			return m.OnWatch(ctx, e, watch)
		})
	}
	return wg.Wait()
}

// messageLoop receives each dispatched Request and hands it to its own
// goroutine, exactly like watchLoop: a handler that takes time, or that
// itself makes an awaiting façade call (e.Message, e.Install, …), must
// never hold up receiving the next frame, since the router's single
// dispatcher goroutine is the same goroutine reading every ack this
// loop — and every other façade caller — is waiting on.
func messageLoop(ctx context.Context, e *Engine, m Module) error {
	stream, err := e.Messages()
	if err != nil {
		return err
	}
	defer stream.Close()

	wg, ctx := errgroup.WithContext(ctx)
	for {
		req, ok := stream.Next(ctx)
		if !ok {
			break
		}
		wg.Go(func() error {
			processed, procErr := m.OnMessage(ctx, e, req)
			ackErr := e.Ack(ctx, req, processed)
			if procErr != nil {
				return procErr
			}
			return ackErr
		})
	}
	return wg.Wait()
}
