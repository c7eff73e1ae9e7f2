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

// Package router is the fan-out hub described by the adapter's dispatch
// algorithm: every inbound frame is classified into a Topic and handed
// to exactly one subscriber, or, lacking one, to a fallback.
//
// The wire contract's "poll any subscription, peek the stream under a
// lock, wake whichever subscription owns the topic" algorithm assumes
// several concurrent pollers racing over a shared, lockable stream. This
// implementation reaches the same observable guarantees (I1-I4) with a
// single dispatcher goroutine that owns the only read of the underlying
// stream and pushes each classified frame to the matching subscriber's
// channel (or the fallback) directly — a design the wire contract's own
// Design Notes call out as an acceptable substitution, since there is
// only ever one reader of the stream by construction, a strictly
// stronger guarantee than "read only while a lock is held".
//
// Pushing directly to a subscriber's channel makes Dispatch block for as
// long as that one subscriber is not receiving, which would stall every
// other subscription's delivery too if a consumer ever read-and-process
// in lockstep. Every long-lived consumer in this module (the module
// harness's watch and message loops) receives a frame and hands it to
// its own goroutine before looping back for the next one, and each
// Subscription additionally buffers a bounded backlog (subscriberBuffer)
// so a briefly slow consumer does not immediately back-pressure the
// dispatcher — together these keep "progress does not depend on any
// subscription being polled first" true for the push design.
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/microbus-io/errors"

	"github.com/lowlevl/yengine/metrics"
	"github.com/lowlevl/yengine/topic"
)

// subscriberBuffer bounds how many undelivered frames a subscription
// holds before Dispatch blocks on it. It exists so a consumer that is
// briefly busy on one topic (e.g. a module handler mid-flight) cannot
// stall the single dispatcher's delivery to every other subscription;
// it is not a substitute for a consumer that keeps up on average.
const subscriberBuffer = 32

// Fallback is invoked, serially with every other dispatch, for a frame
// whose topic (after the MessageAck→Watch rule) has no subscriber.
type Fallback func(ctx context.Context, frame string)

// Subscription is a handle returned by Router.Subscribe. Recv blocks
// until a matching frame arrives or the subscription is closed.
type Subscription struct {
	topic  topic.Topic
	ch     chan string
	done   chan struct{}
	once   sync.Once
	router *Router
}

// Topic reports the topic this subscription was registered for.
func (s *Subscription) Topic() topic.Topic {
	return s.topic
}

// Recv waits for the next matching frame. It returns ok=false once the
// subscription has been closed (directly, or by UnsubscribeAll) without
// a frame arriving.
func (s *Subscription) Recv(ctx context.Context) (frame string, ok bool) {
	select {
	case f, open := <-s.ch:
		return f, open
	case <-s.done:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// Close removes this subscription's slot, synchronously (I4), and wakes
// any pending Recv with ok=false.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.router.remove(s)
		close(s.done)
	})
}

func (s *Subscription) deliver(frame string) bool {
	select {
	case s.ch <- frame:
		return true
	case <-s.done:
		return false
	}
}

// Router is the subscriber hub. The zero value is not usable; construct
// with New.
type Router struct {
	mu       sync.Mutex
	subs     map[topic.Topic]*Subscription
	fallback Fallback
}

// New constructs a Router whose unmatched frames are handed to fallback.
func New(fallback Fallback) *Router {
	return &Router{
		subs:     make(map[topic.Topic]*Subscription),
		fallback: fallback,
	}
}

// Subscribe registers a slot for t. Subscribing twice to the same topic
// before the first subscription is closed is a defect (I1) and returns
// an error rather than silently replacing the existing slot.
func (r *Router) Subscribe(t topic.Topic) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[t]; exists {
		return nil, errors.Trace(fmt.Errorf("yengine/router: duplicate subscription for topic %s", t))
	}
	sub := &Subscription{
		topic:  t,
		ch:     make(chan string, subscriberBuffer),
		done:   make(chan struct{}),
		router: r,
	}
	r.subs[t] = sub
	metrics.Subscriptions.WithLabelValues(t.Kind.String()).Inc()
	return sub, nil
}

func (r *Router) remove(sub *Subscription) {
	r.mu.Lock()
	if cur, ok := r.subs[sub.topic]; ok && cur == sub {
		delete(r.subs, sub.topic)
		metrics.Subscriptions.WithLabelValues(sub.topic.Kind.String()).Dec()
	}
	r.mu.Unlock()
}

// UnsubscribeAll closes every live subscription, so every outstanding
// Recv call returns ok=false.
func (r *Router) UnsubscribeAll() {
	r.mu.Lock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// Dispatch classifies frame and delivers it to the one matching
// subscription, applying the MessageAck→Watch fallback rule, or to the
// router's Fallback if none matches. Dispatch must be called by a single
// goroutine at a time — the engine package owns this discipline: each
// Engine's background read loop is the only caller.
func (r *Router) Dispatch(ctx context.Context, frame string) {
	t := topic.Classify(frame)

	r.mu.Lock()
	sub, ok := r.subs[t]
	if !ok && t.Kind == topic.KindMessageAck {
		t = t.AsWatch()
		sub, ok = r.subs[t]
	}
	r.mu.Unlock()

	if ok && sub.deliver(frame) {
		metrics.Deliveries.WithLabelValues("match").Inc()
		return
	}

	metrics.Deliveries.WithLabelValues("nomatch").Inc()
	r.fallback(ctx, frame)
}
