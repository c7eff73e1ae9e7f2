package wire

import (
	"testing"

	"github.com/microbus-io/testarossa"
)

func TestEscape_RoundTrip(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	cases := []string{
		"",
		"plain",
		"engine.timer",
		"a:b:c",
		"100%",
		"a\x01b",
		"/bin:/usr/bin",
	}
	for _, raw := range cases {
		enc := Encode(raw)
		dec, err := Decode(enc)
		assert.NoError(err)
		assert.Equal(raw, dec)
	}
}

func TestEscape_ZeroCopy(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	raw := "no-escapes-needed-here"
	assert.Equal(raw, Encode(raw))

	dec, err := Decode(raw)
	assert.NoError(err)
	assert.Equal(raw, dec)
}

func TestEscape_Colon(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)
	assert.Equal("a%zb", Encode("a:b"))
}

func TestEscape_Percent(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)
	assert.Equal("100%%", Encode("100%"))
}

func TestEscape_InvalidUpcode(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)

	_, err := Decode("a%\x00b")
	if assert.Error(err) {
		var upErr *InvalidUpcodeError
		assert.True(errorsAs(err, &upErr))
	}
}

func TestEscape_TrailingPercent(t *testing.T) {
	t.Parallel()
	assert := testarossa.For(t)
	_, err := Decode("abc%")
	assert.Error(err)
}

func errorsAs(err error, target **InvalidUpcodeError) bool {
	e, ok := err.(*InvalidUpcodeError)
	if !ok {
		return false
	}
	*target = e
	return true
}
