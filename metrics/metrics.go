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

// Package metrics instruments the router and engine façade with
// Prometheus counters, the way the teacher connector instruments its
// dispatch paths with named counters and gauges.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// FramesRead counts frames the line framer has split off the
	// underlying transport, labeled "ok" for a frame read and "error" when
	// the read failed or the stream ended.
	FramesRead = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yengine_frames_read_total",
		Help: "Frames read from the transport, by outcome.",
	}, []string{"outcome"})

	// Deliveries counts frames the router handed to a subscriber, a
	// fallback, or the default-response path.
	Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yengine_router_deliveries_total",
		Help: "Frames delivered by the router, by path.",
	}, []string{"path"})

	// Subscriptions tracks the number of live subscriptions per topic kind.
	Subscriptions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "yengine_router_subscriptions",
		Help: "Live subscriptions, by topic kind.",
	}, []string{"kind"})

	// FacadeCalls counts engine façade method invocations, by method and
	// whether the call returned an error; an ack reporting failure still
	// counts as "ok".
	FacadeCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yengine_facade_calls_total",
		Help: "Engine façade calls, by method and outcome.",
	}, []string{"method", "outcome"})
)

func init() {
	prometheus.MustRegister(FramesRead, Deliveries, Subscriptions, FacadeCalls)
}
