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

// Command yengine-module is a runnable example of a module built on top
// of the engine package. Run with no flags to be launched as a child
// process of the Yate engine, talking over stdio; pass -addr to instead
// dial in over TCP as a free-standing module, retrying the connection
// with an exponential backoff.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/lowlevl/yengine/engine"
	"github.com/lowlevl/yengine/localparam"
	"github.com/lowlevl/yengine/rand"
	"github.com/lowlevl/yengine/wire"
	"github.com/lowlevl/yengine/ylog"
)

func main() {
	addr := flag.String("addr", "", "dial the engine at this TCP address instead of using stdio")
	name := flag.String("name", "example.route", "the message name this module installs a handler for")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instance := rand.AlphaNum32(8)
	ylog.Info(ctx, "starting module", "instance", instance, "addr", *addr)

	transport, err := dial(ctx, *addr)
	if err != nil {
		ylog.Error(ctx, "could not establish transport", "error", err)
		os.Exit(1)
	}
	defer transport.Close()

	e := engine.New(transport)
	if *addr != "" {
		if err := e.Connect("global", nil); err != nil {
			ylog.Error(ctx, "connect handshake failed", "error", err)
			os.Exit(1)
		}
	}

	mod := &exampleModule{name: *name, done: ctx.Done()}
	if err := engine.Attach(ctx, e, mod); err != nil {
		ylog.Error(ctx, "module exited with an error", "error", err)
		os.Exit(1)
	}
}

// dial returns the stdio pair when addr is empty, or a TCP connection to
// addr otherwise, retrying with an exponential backoff until ctx is
// cancelled — the engine may not have opened its listener yet when this
// module starts.
func dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	if addr == "" {
		return stdioConn{}, nil
	}

	op := func() (net.Conn, error) {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			ylog.Warn(ctx, "dial failed, retrying", "addr", addr, "error", err)
			return nil, err
		}
		return conn, nil
	}

	conn, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return conn, nil
}

// stdioConn adapts os.Stdin/os.Stdout to the io.ReadWriteCloser the
// engine expects when run as the engine's own child process.
type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioConn) Close() error                { return os.Stdin.Close() }

// exampleModule installs a single handler and watcher, echoes whatever
// it is asked to process, and quits once its context is cancelled.
type exampleModule struct {
	name string
	done <-chan struct{}
}

func (m *exampleModule) Install(ctx context.Context, e *engine.Engine) error {
	if ok, err := e.Install(ctx, nil, m.name, nil); err != nil {
		return err
	} else if !ok {
		ylog.Warn(ctx, "engine refused install", "name", m.name)
	}
	if ok, err := e.Watch(ctx, m.name); err != nil {
		return err
	} else if !ok {
		ylog.Warn(ctx, "engine refused watch", "name", m.name)
	}
	if v, err := e.GetLocal(ctx, localparam.EngineParamPrefix+"version"); err == nil {
		ylog.Info(ctx, "connected to engine", "version", v)
	}

	<-m.done
	quitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Quit(quitCtx)
}

func (m *exampleModule) OnWatch(ctx context.Context, e *engine.Engine, watch wire.MessageAck) error {
	ylog.Debug(ctx, "watched message", "id", watch.ID, "processed", watch.Processed)
	return nil
}

func (m *exampleModule) OnMessage(ctx context.Context, e *engine.Engine, req *engine.Request) (bool, error) {
	ylog.Info(ctx, "dispatched message", "id", req.ID(), "name", req.Name())
	return true, nil
}
