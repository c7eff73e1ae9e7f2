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

// Package topic classifies inbound frames into the correlation key a
// subscriber registers against. A Topic is a small, comparable struct so
// it can be used directly as a map key by the router.
package topic

import "github.com/lowlevl/yengine/wire"

// Kind names the label space a Topic is drawn from.
type Kind int

const (
	KindOther Kind = iota
	KindInstallAck
	KindUninstallAck
	KindWatchAck
	KindUnwatchAck
	KindSetLocalAck
	KindMessage
	KindMessageAck
	KindWatch
	KindQuitAck
)

func (k Kind) String() string {
	switch k {
	case KindInstallAck:
		return "InstallAck"
	case KindUninstallAck:
		return "UninstallAck"
	case KindWatchAck:
		return "WatchAck"
	case KindUnwatchAck:
		return "UnwatchAck"
	case KindSetLocalAck:
		return "SetLocalAck"
	case KindMessage:
		return "Message"
	case KindMessageAck:
		return "MessageAck"
	case KindWatch:
		return "Watch"
	case KindQuitAck:
		return "QuitAck"
	default:
		return "Other"
	}
}

// Topic is the router's correlation key: a kind plus, for the variants
// that carry one, the name or id that disambiguates it from its peers.
// Topic is comparable and may be used directly as a map key.
type Topic struct {
	Kind Kind
	Key  string
}

func (t Topic) String() string {
	if t.Key == "" {
		return t.Kind.String()
	}
	return t.Kind.String() + "(" + t.Key + ")"
}

// AsWatch returns the Watch topic that corresponds to a MessageAck topic,
// used by the router's fallback rule (see Classify's doc comment).
func (t Topic) AsWatch() Topic {
	return Topic{Kind: KindWatch}
}

// Classify maps a raw inbound frame to the Topic a subscriber would
// register to receive it. It tries tag-prefixed parses in the priority
// order the wire contract fixes: InstallAck, UninstallAck, WatchAck,
// UnwatchAck, SetLocalAck, Message, MessageAck, QuitAck. The first parse
// that succeeds wins; if none match, the topic is Other.
//
// Classify never applies the MessageAck→Watch fallback rule (an inbound
// %%<message whose id nobody awaits is a watch delivery): that rule
// depends on which subscriptions are currently registered, a piece of
// state the classifier does not have. The router applies it after
// calling Classify.
func Classify(frame string) Topic {
	if ack, err := wire.ParseInstallAck(frame); err == nil {
		return Topic{Kind: KindInstallAck, Key: ack.Name}
	}
	if ack, err := wire.ParseUninstallAck(frame); err == nil {
		return Topic{Kind: KindUninstallAck, Key: ack.Name}
	}
	if ack, err := wire.ParseWatchAck(frame); err == nil {
		return Topic{Kind: KindWatchAck, Key: ack.Name}
	}
	if ack, err := wire.ParseUnwatchAck(frame); err == nil {
		return Topic{Kind: KindUnwatchAck, Key: ack.Name}
	}
	if ack, err := wire.ParseSetLocalAck(frame); err == nil {
		return Topic{Kind: KindSetLocalAck, Key: ack.Name}
	}
	if _, err := wire.ParseMessageTagged(frame, wire.TagMessageIn); err == nil {
		return Topic{Kind: KindMessage}
	}
	if ack, err := wire.ParseMessageAck(frame); err == nil {
		return Topic{Kind: KindMessageAck, Key: ack.ID}
	}
	if _, err := wire.ParseQuitAck(frame); err == nil {
		return Topic{Kind: KindQuitAck}
	}
	return Topic{Kind: KindOther}
}
