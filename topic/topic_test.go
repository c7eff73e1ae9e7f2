package topic

import (
	"testing"

	"github.com/microbus-io/testarossa"
)

func TestClassify_Acks(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	cases := []struct {
		frame string
		want  Topic
	}{
		{"%%<install:100:engine.timer:true", Topic{Kind: KindInstallAck, Key: "engine.timer"}},
		{"%%<uninstall:100:engine.timer:true", Topic{Kind: KindUninstallAck, Key: "engine.timer"}},
		{"%%<watch:engine.timer:true", Topic{Kind: KindWatchAck, Key: "engine.timer"}},
		{"%%<unwatch:engine.timer:true", Topic{Kind: KindUnwatchAck, Key: "engine.timer"}},
		{"%%<setlocal:engine.version:6.4.0:true", Topic{Kind: KindSetLocalAck, Key: "engine.version"}},
		{"%%<quit", Topic{Kind: KindQuitAck}},
		{"garbage", Topic{Kind: KindOther}},
	}
	for _, c := range cases {
		assert.Equal(c.want, Classify(c.frame))
	}
}

func TestClassify_MessageVsMessageAck(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	// A numeric second field parses as the time-bearing Message shape.
	asMessage := Classify("%%<message:yengine.1.1:1095112795:engine.timer:")
	assert.Equal(Topic{Kind: KindMessage}, asMessage)

	// A boolean second field fails the Message parse and falls through
	// to MessageAck, carrying the id as its correlation key.
	asAck := Classify("%%<message:234479208:false:engine.timer::time=1095112795")
	assert.Equal(Topic{Kind: KindMessageAck, Key: "234479208"}, asAck)
}

func TestTopic_String(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	assert.Equal("MessageAck(abc)", Topic{Kind: KindMessageAck, Key: "abc"}.String())
	assert.Equal("Watch", Topic{Kind: KindWatch}.String())
}
