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

package wire

import (
	"sort"
	"strconv"
	"strings"
)

// Tag constants for every record the adapter exchanges with the engine.
// The "Error in" tag intentionally embeds a space: it is not one of the
// "%%" keywords, it is the engine's own literal error prefix.
const (
	TagInstall     = "%%>install"
	TagInstallAck  = "%%<install"
	TagUninstall   = "%%>uninstall"
	TagUninstallAck = "%%<uninstall"
	TagWatch       = "%%>watch"
	TagWatchAck    = "%%<watch"
	TagUnwatch     = "%%>unwatch"
	TagUnwatchAck  = "%%<unwatch"
	TagSetLocal    = "%%>setlocal"
	TagSetLocalAck = "%%<setlocal"
	TagMessageOut  = "%%>message"
	TagMessageIn   = "%%<message"
	TagOutput      = "%%>output"
	TagDebug       = "%%>debug"
	TagConnect     = "%%>connect"
	TagQuit        = "%%>quit"
	TagQuitAck     = "%%<quit"
	TagErrorIn     = "Error in"
)

// splitTagged splits a frame into its tag and the remaining colon-separated
// segments, verifying the tag matches what the caller expects.
func splitTagged(frame, tag string) ([]string, error) {
	if frame == "" {
		return nil, newError(KindMissingTag, tag, frame)
	}
	parts := strings.Split(frame, ":")
	if parts[0] != tag {
		return nil, newError(KindMismatchedTag, tag, frame)
	}
	return parts[1:], nil
}

func encodeMap(kv map[string]string) []string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	segs := make([]string, 0, len(keys))
	for _, k := range keys {
		segs = append(segs, Encode(k)+"="+Encode(kv[k]))
	}
	return segs
}

func parseMap(tag, frame string, segs []string) (map[string]string, error) {
	kv := make(map[string]string, len(segs))
	for _, seg := range segs {
		i := strings.IndexByte(seg, '=')
		if i < 0 {
			return nil, newError(KindMisformedMap, tag, frame)
		}
		k, err := Decode(seg[:i])
		if err != nil {
			return nil, wrapError(KindMisformedMap, tag, frame, err)
		}
		v, err := Decode(seg[i+1:])
		if err != nil {
			return nil, wrapError(KindMisformedMap, tag, frame, err)
		}
		kv[k] = v
	}
	return kv, nil
}

func parseBool(tag, frame, seg string) (bool, error) {
	switch seg {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, newError(KindMissingValue, tag, frame)
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// --- Install / InstallAck ---

// Filter narrows an Install handler to messages carrying a matching key,
// and optionally a matching value for that key.
type Filter struct {
	Key   string
	Value *string
}

// Install requests that the engine route messages named Name through this
// module, in priority order, optionally restricted by Filter.
type Install struct {
	Priority *uint64
	Name     string
	Filter   *Filter
}

func (m Install) Serialize() string {
	segs := []string{TagInstall}
	if m.Priority != nil {
		segs = append(segs, strconv.FormatUint(*m.Priority, 10))
	} else {
		segs = append(segs, "")
	}
	segs = append(segs, Encode(m.Name))
	if m.Filter != nil {
		segs = append(segs, Encode(m.Filter.Key))
		if m.Filter.Value != nil {
			segs = append(segs, Encode(*m.Filter.Value))
		}
	}
	return strings.Join(segs, ":")
}

func ParseInstall(frame string) (Install, error) {
	segs, err := splitTagged(frame, TagInstall)
	if err != nil {
		return Install{}, err
	}
	var m Install
	if len(segs) == 0 {
		return Install{}, newError(KindMissingValue, TagInstall, frame)
	}
	if segs[0] != "" {
		v, err := strconv.ParseUint(segs[0], 10, 64)
		if err != nil {
			return Install{}, wrapError(KindMissingValue, TagInstall, frame, err)
		}
		m.Priority = &v
	}
	if len(segs) < 2 {
		return Install{}, newError(KindMissingValue, TagInstall, frame)
	}
	name, err := Decode(segs[1])
	if err != nil {
		return Install{}, wrapError(KindMissingValue, TagInstall, frame, err)
	}
	m.Name = name
	if len(segs) >= 3 {
		key, err := Decode(segs[2])
		if err != nil {
			return Install{}, wrapError(KindMissingValue, TagInstall, frame, err)
		}
		f := &Filter{Key: key}
		if len(segs) >= 4 {
			v, err := Decode(segs[3])
			if err != nil {
				return Install{}, wrapError(KindMissingValue, TagInstall, frame, err)
			}
			f.Value = &v
		}
		m.Filter = f
	}
	return m, nil
}

// InstallAck is the engine's answer to an Install request.
type InstallAck struct {
	Priority uint64
	Name     string
	Success  bool
}

func (m InstallAck) Serialize() string {
	return strings.Join([]string{
		TagInstallAck,
		strconv.FormatUint(m.Priority, 10),
		Encode(m.Name),
		formatBool(m.Success),
	}, ":")
}

func ParseInstallAck(frame string) (InstallAck, error) {
	segs, err := splitTagged(frame, TagInstallAck)
	if err != nil {
		return InstallAck{}, err
	}
	if len(segs) < 3 {
		return InstallAck{}, newError(KindMissingValue, TagInstallAck, frame)
	}
	priority, err := strconv.ParseUint(segs[0], 10, 64)
	if err != nil {
		return InstallAck{}, wrapError(KindMissingValue, TagInstallAck, frame, err)
	}
	name, err := Decode(segs[1])
	if err != nil {
		return InstallAck{}, wrapError(KindMissingValue, TagInstallAck, frame, err)
	}
	success, err := parseBool(TagInstallAck, frame, segs[2])
	if err != nil {
		return InstallAck{}, err
	}
	return InstallAck{Priority: priority, Name: name, Success: success}, nil
}

// --- Uninstall / UninstallAck ---

type Uninstall struct {
	Name string
}

func (m Uninstall) Serialize() string {
	return TagUninstall + ":" + Encode(m.Name)
}

func ParseUninstall(frame string) (Uninstall, error) {
	segs, err := splitTagged(frame, TagUninstall)
	if err != nil {
		return Uninstall{}, err
	}
	if len(segs) < 1 {
		return Uninstall{}, newError(KindMissingValue, TagUninstall, frame)
	}
	name, err := Decode(segs[0])
	if err != nil {
		return Uninstall{}, wrapError(KindMissingValue, TagUninstall, frame, err)
	}
	return Uninstall{Name: name}, nil
}

type UninstallAck struct {
	Priority uint64
	Name     string
	Success  bool
}

func (m UninstallAck) Serialize() string {
	return strings.Join([]string{
		TagUninstallAck,
		strconv.FormatUint(m.Priority, 10),
		Encode(m.Name),
		formatBool(m.Success),
	}, ":")
}

func ParseUninstallAck(frame string) (UninstallAck, error) {
	segs, err := splitTagged(frame, TagUninstallAck)
	if err != nil {
		return UninstallAck{}, err
	}
	if len(segs) < 3 {
		return UninstallAck{}, newError(KindMissingValue, TagUninstallAck, frame)
	}
	priority, err := strconv.ParseUint(segs[0], 10, 64)
	if err != nil {
		return UninstallAck{}, wrapError(KindMissingValue, TagUninstallAck, frame, err)
	}
	name, err := Decode(segs[1])
	if err != nil {
		return UninstallAck{}, wrapError(KindMissingValue, TagUninstallAck, frame, err)
	}
	success, err := parseBool(TagUninstallAck, frame, segs[2])
	if err != nil {
		return UninstallAck{}, err
	}
	return UninstallAck{Priority: priority, Name: name, Success: success}, nil
}

// --- Watch / WatchAck ---

type Watch struct {
	Name string
}

func (m Watch) Serialize() string {
	return TagWatch + ":" + Encode(m.Name)
}

func ParseWatch(frame string) (Watch, error) {
	segs, err := splitTagged(frame, TagWatch)
	if err != nil {
		return Watch{}, err
	}
	if len(segs) < 1 {
		return Watch{}, newError(KindMissingValue, TagWatch, frame)
	}
	name, err := Decode(segs[0])
	if err != nil {
		return Watch{}, wrapError(KindMissingValue, TagWatch, frame, err)
	}
	return Watch{Name: name}, nil
}

type WatchAck struct {
	Name    string
	Success bool
}

func (m WatchAck) Serialize() string {
	return strings.Join([]string{TagWatchAck, Encode(m.Name), formatBool(m.Success)}, ":")
}

func ParseWatchAck(frame string) (WatchAck, error) {
	segs, err := splitTagged(frame, TagWatchAck)
	if err != nil {
		return WatchAck{}, err
	}
	if len(segs) < 2 {
		return WatchAck{}, newError(KindMissingValue, TagWatchAck, frame)
	}
	name, err := Decode(segs[0])
	if err != nil {
		return WatchAck{}, wrapError(KindMissingValue, TagWatchAck, frame, err)
	}
	success, err := parseBool(TagWatchAck, frame, segs[1])
	if err != nil {
		return WatchAck{}, err
	}
	return WatchAck{Name: name, Success: success}, nil
}

// --- Unwatch / UnwatchAck ---

type Unwatch struct {
	Name string
}

func (m Unwatch) Serialize() string {
	return TagUnwatch + ":" + Encode(m.Name)
}

func ParseUnwatch(frame string) (Unwatch, error) {
	segs, err := splitTagged(frame, TagUnwatch)
	if err != nil {
		return Unwatch{}, err
	}
	if len(segs) < 1 {
		return Unwatch{}, newError(KindMissingValue, TagUnwatch, frame)
	}
	name, err := Decode(segs[0])
	if err != nil {
		return Unwatch{}, wrapError(KindMissingValue, TagUnwatch, frame, err)
	}
	return Unwatch{Name: name}, nil
}

type UnwatchAck struct {
	Name    string
	Success bool
}

func (m UnwatchAck) Serialize() string {
	return strings.Join([]string{TagUnwatchAck, Encode(m.Name), formatBool(m.Success)}, ":")
}

func ParseUnwatchAck(frame string) (UnwatchAck, error) {
	segs, err := splitTagged(frame, TagUnwatchAck)
	if err != nil {
		return UnwatchAck{}, err
	}
	if len(segs) < 2 {
		return UnwatchAck{}, newError(KindMissingValue, TagUnwatchAck, frame)
	}
	name, err := Decode(segs[0])
	if err != nil {
		return UnwatchAck{}, wrapError(KindMissingValue, TagUnwatchAck, frame, err)
	}
	success, err := parseBool(TagUnwatchAck, frame, segs[1])
	if err != nil {
		return UnwatchAck{}, err
	}
	return UnwatchAck{Name: name, Success: success}, nil
}

// --- SetLocal / SetLocalAck ---

// SetLocal changes (Value set) or queries (Value nil) a local parameter.
type SetLocal struct {
	Name  string
	Value *string
}

func (m SetLocal) Serialize() string {
	segs := []string{TagSetLocal, Encode(m.Name)}
	if m.Value != nil {
		segs = append(segs, Encode(*m.Value))
	} else {
		segs = append(segs, "")
	}
	return strings.Join(segs, ":")
}

func ParseSetLocal(frame string) (SetLocal, error) {
	segs, err := splitTagged(frame, TagSetLocal)
	if err != nil {
		return SetLocal{}, err
	}
	if len(segs) < 1 {
		return SetLocal{}, newError(KindMissingValue, TagSetLocal, frame)
	}
	name, err := Decode(segs[0])
	if err != nil {
		return SetLocal{}, wrapError(KindMissingValue, TagSetLocal, frame, err)
	}
	m := SetLocal{Name: name}
	if len(segs) >= 2 && segs[1] != "" {
		v, err := Decode(segs[1])
		if err != nil {
			return SetLocal{}, wrapError(KindMissingValue, TagSetLocal, frame, err)
		}
		m.Value = &v
	}
	return m, nil
}

type SetLocalAck struct {
	Name    string
	Value   string
	Success bool
}

func (m SetLocalAck) Serialize() string {
	return strings.Join([]string{TagSetLocalAck, Encode(m.Name), Encode(m.Value), formatBool(m.Success)}, ":")
}

func ParseSetLocalAck(frame string) (SetLocalAck, error) {
	segs, err := splitTagged(frame, TagSetLocalAck)
	if err != nil {
		return SetLocalAck{}, err
	}
	if len(segs) < 3 {
		return SetLocalAck{}, newError(KindMissingValue, TagSetLocalAck, frame)
	}
	name, err := Decode(segs[0])
	if err != nil {
		return SetLocalAck{}, wrapError(KindMissingValue, TagSetLocalAck, frame, err)
	}
	value, err := Decode(segs[1])
	if err != nil {
		return SetLocalAck{}, wrapError(KindMissingValue, TagSetLocalAck, frame, err)
	}
	success, err := parseBool(TagSetLocalAck, frame, segs[2])
	if err != nil {
		return SetLocalAck{}, err
	}
	return SetLocalAck{Name: name, Value: value, Success: success}, nil
}

// --- Message (module-originated, carries a creation timestamp) ---

// Message is a message the module sends into the engine for routing, or
// (rarer: self-watched/reentrant dispatch) one the engine reflects back.
type Message struct {
	ID       string
	Time     uint64
	Name     string
	Retvalue string
	KV       map[string]string
}

func (m Message) Serialize() string {
	segs := []string{
		TagMessageOut,
		Encode(m.ID),
		strconv.FormatUint(m.Time, 10),
		Encode(m.Name),
		Encode(m.Retvalue),
	}
	segs = append(segs, encodeMap(m.KV)...)
	return strings.Join(segs, ":")
}

// ParseMessageTagged parses m using the given tag, since the same wire
// shape travels outbound ("%%>message") and, rarely, inbound ("%%<message").
func ParseMessageTagged(frame, tag string) (Message, error) {
	segs, err := splitTagged(frame, tag)
	if err != nil {
		return Message{}, err
	}
	if len(segs) < 4 {
		return Message{}, newError(KindMissingValue, tag, frame)
	}
	id, err := Decode(segs[0])
	if err != nil {
		return Message{}, wrapError(KindMissingValue, tag, frame, err)
	}
	t, err := strconv.ParseUint(segs[1], 10, 64)
	if err != nil {
		return Message{}, wrapError(KindMissingValue, tag, frame, err)
	}
	name, err := Decode(segs[2])
	if err != nil {
		return Message{}, wrapError(KindMissingValue, tag, frame, err)
	}
	retvalue, err := Decode(segs[3])
	if err != nil {
		return Message{}, wrapError(KindMissingValue, tag, frame, err)
	}
	kv, err := parseMap(tag, frame, segs[4:])
	if err != nil {
		return Message{}, err
	}
	return Message{ID: id, Time: t, Name: name, Retvalue: retvalue, KV: kv}, nil
}

func ParseMessage(frame string) (Message, error) {
	return ParseMessageTagged(frame, TagMessageOut)
}

// --- MessageAck (bidirectional: ack to an outgoing message, unsolicited
// dispatch of a message for processing, and watch deliveries all share
// this shape over the "%%<message" tag) ---

type MessageAck struct {
	ID        string
	Processed bool
	Name      *string
	Retvalue  string
	KV        map[string]string
}

func (m MessageAck) Serialize() string {
	segs := []string{
		TagMessageIn,
		Encode(m.ID),
		formatBool(m.Processed),
	}
	if m.Name != nil {
		segs = append(segs, Encode(*m.Name))
	} else {
		segs = append(segs, "")
	}
	segs = append(segs, Encode(m.Retvalue))
	segs = append(segs, encodeMap(m.KV)...)
	return strings.Join(segs, ":")
}

func ParseMessageAck(frame string) (MessageAck, error) {
	segs, err := splitTagged(frame, TagMessageIn)
	if err != nil {
		return MessageAck{}, err
	}
	if len(segs) < 2 {
		return MessageAck{}, newError(KindMissingValue, TagMessageIn, frame)
	}
	id, err := Decode(segs[0])
	if err != nil {
		return MessageAck{}, wrapError(KindMissingValue, TagMessageIn, frame, err)
	}
	processed, err := parseBool(TagMessageIn, frame, segs[1])
	if err != nil {
		return MessageAck{}, err
	}
	m := MessageAck{ID: id, Processed: processed}
	if len(segs) >= 3 && segs[2] != "" {
		name, err := Decode(segs[2])
		if err != nil {
			return MessageAck{}, wrapError(KindMissingValue, TagMessageIn, frame, err)
		}
		m.Name = &name
	}
	if len(segs) >= 4 {
		retvalue, err := Decode(segs[3])
		if err != nil {
			return MessageAck{}, wrapError(KindMissingValue, TagMessageIn, frame, err)
		}
		m.Retvalue = retvalue
	}
	if len(segs) > 4 {
		kv, err := parseMap(TagMessageIn, frame, segs[4:])
		if err != nil {
			return MessageAck{}, err
		}
		m.KV = kv
	}
	return m, nil
}

// --- Output / Debug (raw, unescaped trailing text) ---

type Output struct {
	Text string
}

func (m Output) Serialize() string {
	return TagOutput + ":" + m.Text
}

func ParseOutput(frame string) (Output, error) {
	if !strings.HasPrefix(frame, TagOutput+":") {
		if frame == TagOutput {
			return Output{}, nil
		}
		return Output{}, newError(KindMismatchedTag, TagOutput, frame)
	}
	return Output{Text: frame[len(TagOutput)+1:]}, nil
}

type Debug struct {
	Level int
	Text  string
}

func (m Debug) Serialize() string {
	return TagDebug + ":" + strconv.Itoa(m.Level) + ":" + m.Text
}

func ParseDebug(frame string) (Debug, error) {
	prefix := TagDebug + ":"
	if !strings.HasPrefix(frame, prefix) {
		return Debug{}, newError(KindMismatchedTag, TagDebug, frame)
	}
	rest := frame[len(prefix):]
	i := strings.IndexByte(rest, ':')
	if i < 0 {
		return Debug{}, newError(KindMissingValue, TagDebug, frame)
	}
	level, err := strconv.Atoi(rest[:i])
	if err != nil {
		return Debug{}, wrapError(KindMissingValue, TagDebug, frame, err)
	}
	return Debug{Level: level, Text: rest[i+1:]}, nil
}

// --- Connect ---

type ChannelRef struct {
	ID   string
	Type *string
}

type Connect struct {
	Role    string
	Channel *ChannelRef
}

func (m Connect) Serialize() string {
	segs := []string{TagConnect, Encode(m.Role)}
	if m.Channel != nil {
		segs = append(segs, Encode(m.Channel.ID))
		if m.Channel.Type != nil {
			segs = append(segs, Encode(*m.Channel.Type))
		}
	}
	return strings.Join(segs, ":")
}

func ParseConnect(frame string) (Connect, error) {
	segs, err := splitTagged(frame, TagConnect)
	if err != nil {
		return Connect{}, err
	}
	if len(segs) < 1 {
		return Connect{}, newError(KindMissingValue, TagConnect, frame)
	}
	role, err := Decode(segs[0])
	if err != nil {
		return Connect{}, wrapError(KindMissingValue, TagConnect, frame, err)
	}
	m := Connect{Role: role}
	if len(segs) >= 2 {
		id, err := Decode(segs[1])
		if err != nil {
			return Connect{}, wrapError(KindMissingValue, TagConnect, frame, err)
		}
		ch := &ChannelRef{ID: id}
		if len(segs) >= 3 {
			t, err := Decode(segs[2])
			if err != nil {
				return Connect{}, wrapError(KindMissingValue, TagConnect, frame, err)
			}
			ch.Type = &t
		}
		m.Channel = ch
	}
	return m, nil
}

// --- Quit / QuitAck ---

type Quit struct{}

func (Quit) Serialize() string { return TagQuit }

func ParseQuit(frame string) (Quit, error) {
	if frame != TagQuit {
		return Quit{}, newError(KindMismatchedTag, TagQuit, frame)
	}
	return Quit{}, nil
}

type QuitAck struct{}

func (QuitAck) Serialize() string { return TagQuitAck }

func ParseQuitAck(frame string) (QuitAck, error) {
	if frame != TagQuitAck {
		return QuitAck{}, newError(KindMismatchedTag, TagQuitAck, frame)
	}
	return QuitAck{}, nil
}

// --- ErrorIn ---

// ErrorIn is the engine's notice that a line it received was malformed.
// The adapter must never reply to one (risk of an infinite loop).
type ErrorIn struct {
	Original string
}

func (m ErrorIn) Serialize() string {
	return TagErrorIn + ":" + m.Original
}

func ParseErrorIn(frame string) (ErrorIn, error) {
	prefix := TagErrorIn + ":"
	if !strings.HasPrefix(frame, prefix) {
		return ErrorIn{}, newError(KindMismatchedTag, TagErrorIn, frame)
	}
	return ErrorIn{Original: frame[len(prefix):]}, nil
}
