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
	"runtime"

	"github.com/lowlevl/yengine/wire"
	"github.com/lowlevl/yengine/ylog"
)

// Request owns an inbound Message that the engine is waiting on a reply
// for. It must be ack'd — via Engine.Ack — exactly once; a Request that
// is garbage collected without having been ack'd logs a diagnostic,
// since the engine's dispatch queue is left blocked on a reply nobody
// will send.
type Request struct {
	msg   wire.MessageAck
	acked bool
}

func newRequest(msg wire.MessageAck) *Request {
	r := &Request{msg: msg}
	runtime.SetFinalizer(r, func(r *Request) {
		if !r.acked {
			ylog.Error(context.Background(), "message was not ack'ed, every message must be ack'ed",
				"id", r.msg.ID, "name", namePtrOrEmpty(r.msg.Name))
		}
	})
	return r
}

func namePtrOrEmpty(name *string) string {
	if name == nil {
		return ""
	}
	return *name
}

// ID is the message's correlation id, echoed back on Ack.
func (r *Request) ID() string { return r.msg.ID }

// Name is the dispatched message's name (e.g. "call.route").
func (r *Request) Name() string { return namePtrOrEmpty(r.msg.Name) }

// Retvalue is the return value slot the engine supplied, generally empty
// on dispatch. Ack echoes it back unchanged; Request has no method to
// replace it.
func (r *Request) Retvalue() string { return r.msg.Retvalue }

// KV is the flattened parameter map the engine attached to the message.
func (r *Request) KV() map[string]string { return r.msg.KV }

func (r *Request) markAcked() {
	r.acked = true
	runtime.SetFinalizer(r, nil)
}
