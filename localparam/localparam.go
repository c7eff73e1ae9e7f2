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

// Package localparam documents the local parameter names the engine
// recognizes for setlocal. The registry is informational only: the
// adapter forwards whatever name and value a caller supplies and does
// not validate against this list.
package localparam

// Known names the engine's setlocal handler responds to. Unlisted names
// are accepted by the engine too, generally for routing/module-specific
// configuration (the "engine.*" and "config.*" families below).
const (
	// ID reports or sets the module's identification used when routing.
	ID = "id"
	// Disconnected toggles whether channel disconnects are delivered.
	Disconnected = "disconnected"
	// TrackParam sets the parameter name used to mark handled messages.
	TrackParam = "trackparam"
	// Reason retrieves the last disconnect reason of the current channel.
	Reason = "reason"
	// Timeout sets the message wait timeout, in milliseconds.
	Timeout = "timeout"
	// Timebomb sets a deadline after which the module is killed.
	Timebomb = "timebomb"
	// Bufsize sets the size of the engine-side read buffer.
	Bufsize = "bufsize"
	// Setdata enables setting channel data from the module side.
	Setdata = "setdata"
	// Reenter allows a module to see messages it installed handlers for
	// even when it originated them itself.
	Reenter = "reenter"
	// Selfwatch allows a module watching a message to see its own.
	Selfwatch = "selfwatch"
	// Restart requests the engine restart this external module on exit.
	Restart = "restart"
)

// EngineParamPrefix and ConfigParamPrefix name the two families of
// dynamically-named local parameters the engine exposes: engine.* reads
// engine-wide settings (e.g. engine.version) and config.* reads values
// from the engine's configuration files.
const (
	EngineParamPrefix = "engine."
	ConfigParamPrefix = "config."
)
