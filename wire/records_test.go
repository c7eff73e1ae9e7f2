package wire

import (
	"testing"

	"github.com/microbus-io/testarossa"
)

func ptr[T any](v T) *T { return &v }

func TestRecords_InstallRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	cases := []struct {
		frame string
		want  Install
	}{
		{"%%>install::engine.timer", Install{Name: "engine.timer"}},
		{"%%>install:50:engine.timer", Install{Priority: ptr(uint64(50)), Name: "engine.timer"}},
		{"%%>install::engine.timer:key", Install{Name: "engine.timer", Filter: &Filter{Key: "key"}}},
		{"%%>install:50:engine.timer:key:value", Install{Priority: ptr(uint64(50)), Name: "engine.timer", Filter: &Filter{Key: "key", Value: ptr("value")}}},
	}
	for _, c := range cases {
		got, err := ParseInstall(c.frame)
		assert.NoError(err)
		assert.Equal(c.want.Name, got.Name)
		if c.want.Priority != nil {
			assert.NotNil(got.Priority)
			assert.Equal(*c.want.Priority, *got.Priority)
		} else {
			assert.Nil(got.Priority)
		}
		if c.want.Filter != nil {
			assert.NotNil(got.Filter)
			assert.Equal(c.want.Filter.Key, got.Filter.Key)
		} else {
			assert.Nil(got.Filter)
		}
		assert.Equal(c.frame, got.Serialize())
	}
}

func TestRecords_InstallAckRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	frame := "%%<install:100:engine.timer:true"
	got, err := ParseInstallAck(frame)
	assert.NoError(err)
	assert.Equal(uint64(100), got.Priority)
	assert.Equal("engine.timer", got.Name)
	assert.True(got.Success)
	assert.Equal(frame, got.Serialize())
}

func TestRecords_SetLocalRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	query := "%%>setlocal:trackparam:"
	got, err := ParseSetLocal(query)
	assert.NoError(err)
	assert.Equal("trackparam", got.Name)
	assert.Nil(got.Value)
	assert.Equal(query, got.Serialize())

	set := "%%>setlocal:trackparam:yengine.1"
	got2, err := ParseSetLocal(set)
	assert.NoError(err)
	assert.NotNil(got2.Value)
	assert.Equal("yengine.1", *got2.Value)
	assert.Equal(set, got2.Serialize())

	// P5: truncated input (no trailing segment at all) also defaults to nil
	truncated := "%%>setlocal:trackparam"
	got3, err := ParseSetLocal(truncated)
	assert.NoError(err)
	assert.Nil(got3.Value)
}

func TestRecords_MessageOutRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	noKV := "%%>message:yengine.1.1:1095112795:engine.timer:"
	got, err := ParseMessageTagged(noKV, TagMessageOut)
	assert.NoError(err)
	assert.Equal("yengine.1.1", got.ID)
	assert.Equal(uint64(1095112795), got.Time)
	assert.Equal("engine.timer", got.Name)
	assert.Equal("", got.Retvalue)
	assert.Equal(0, len(got.KV))
	assert.Equal(noKV, got.Serialize())

	withKV := "%%>message:yengine.1.4:1095112794:app.job::done=75%%:job=cleanup:path=a%zb"
	got2, err := ParseMessageTagged(withKV, TagMessageOut)
	assert.NoError(err)
	assert.Equal("app.job", got2.Name)
	assert.Equal("75%", got2.KV["done"])
	assert.Equal("cleanup", got2.KV["job"])
	assert.Equal("a:b", got2.KV["path"])
	assert.Equal(withKV, got2.Serialize())
}

func TestRecords_MessageAckRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	frame := "%%<message:234479208:false:engine.timer::time=1095112795"
	got, err := ParseMessageAck(frame)
	assert.NoError(err)
	assert.Equal("234479208", got.ID)
	assert.False(got.Processed)
	assert.NotNil(got.Name)
	assert.Equal("engine.timer", *got.Name)
	assert.Equal("", got.Retvalue)
	assert.Equal("1095112795", got.KV["time"])
	assert.Equal(frame, got.Serialize())

	frame2 := "%%<message:yengine.1.4:true:app.job:Restart required:path=a%zb%zc"
	got2, err := ParseMessageAck(frame2)
	assert.NoError(err)
	assert.True(got2.Processed)
	assert.Equal("Restart required", got2.Retvalue)
	assert.Equal("a:b:c", got2.KV["path"])
	assert.Equal(frame2, got2.Serialize())
}

func TestRecords_ConnectRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	frame := "%%>connect:play:ourstream/1"
	got, err := ParseConnect(frame)
	assert.NoError(err)
	assert.Equal("play", got.Role)
	assert.NotNil(got.Channel)
	assert.Equal("ourstream/1", got.Channel.ID)
	assert.Nil(got.Channel.Type)
	assert.Equal(frame, got.Serialize())
}

func TestRecords_QuitRoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	got, err := ParseQuit(TagQuit)
	assert.NoError(err)
	assert.Equal(TagQuit, got.Serialize())

	gotAck, err := ParseQuitAck(TagQuitAck)
	assert.NoError(err)
	assert.Equal(TagQuitAck, gotAck.Serialize())
}

func TestRecords_ErrorIn(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	frame := "Error in:this is an error"
	got, err := ParseErrorIn(frame)
	assert.NoError(err)
	assert.Equal("this is an error", got.Original)
	assert.Equal(frame, got.Serialize())
}

func TestRecords_MismatchedTag(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	_, err := ParseInstall("%%>watch:engine.timer")
	assert.Error(err)
	assert.True(Is(err, KindMismatchedTag))
}

func TestRecords_MissingTag(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	_, err := ParseInstall("")
	assert.Error(err)
	assert.True(Is(err, KindMissingTag))
}
