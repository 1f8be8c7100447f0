package paysera

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDropsNilAndNormalizesBool(t *testing.T) {
	data := Encode(Params{{"a", 1}, {"b", nil}, {"c", true}})

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "c": "1"}, decoded)

	raw, err := base64.StdEncoding.DecodeString(strings.NewReplacer("-", "+", "_", "/").Replace(data))
	require.NoError(t, err)
	assert.Equal(t, "a=1&c=1", string(raw))
}

func TestEncodeRoundTrip(t *testing.T) {
	params := Params{
		{"projectid", "123456"},
		{"orderid", "ord-5f1c"},
		{"accepturl", "https://yakiwood.lt/order-confirmation?provider=paysera&order_id=ord 1"},
		{"amount", int64(12099)},
		{"rate", 0.21},
		{"p_firstname", "Žydrūnas ~*+/"},
		{"test", false},
		{"skip", nil},
	}
	decoded, err := Decode(Encode(params))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"projectid":   "123456",
		"orderid":     "ord-5f1c",
		"accepturl":   "https://yakiwood.lt/order-confirmation?provider=paysera&order_id=ord 1",
		"amount":      "12099",
		"rate":        "0.21",
		"p_firstname": "Žydrūnas ~*+/",
		"test":        "0",
	}, decoded)
}

func TestEncodeIsURLSafe(t *testing.T) {
	for _, value := range []string{"??>>~~", "ÿÿÿ", "ûûû", "a>b?c"} {
		data := Encode(Params{{"k", value}})
		assert.NotContains(t, data, "+")
		assert.NotContains(t, data, "/")

		std := base64.StdEncoding.EncodeToString([]byte("k=" + formEscape(value)))
		assert.Equal(t, strings.NewReplacer("+", "-", "/", "_").Replace(std), data)
	}
}

func TestEncodeFormEscaping(t *testing.T) {
	data := Encode(Params{{"q", "a b*c~d"}})
	raw, err := base64.StdEncoding.DecodeString(strings.NewReplacer("-", "+", "_", "/").Replace(data))
	require.NoError(t, err)
	assert.Equal(t, "q=a+b*c%7Ed", string(raw))
}

func TestSetReplacesInPlace(t *testing.T) {
	params := Params{{"a", 1}, {"b", 2}}.Set("a", 3).Set("c", 4)
	assert.Equal(t, Params{{"a", 3}, {"b", 2}, {"c", 4}}, params)

	raw, err := Decode(Encode(Params{{"x", 1}, {"y", 2}, {"x", 3}}))
	require.NoError(t, err)
	assert.Equal(t, "3", raw["x"])
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"not base64":     "!!!!",
		"bad length":     "YWJjZ",
		"bad percent":    base64.URLEncoding.EncodeToString([]byte("a=%zz")),
		"not utf8":       base64.URLEncoding.EncodeToString([]byte{0xff, 0xfe, '=', 'x'}),
		"bad semicolons": base64.URLEncoding.EncodeToString([]byte("a=1;b=2")),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := Decode(data)
			var mpe *MalformedPayloadError
			require.ErrorAs(t, err, &mpe)
			assert.Nil(t, m)
		})
	}
}

func TestDecodeAcceptsMissingPadding(t *testing.T) {
	data := strings.TrimRight(Encode(Params{{"ab", "c"}}), "=")
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "c", decoded["ab"])
}

func TestSign(t *testing.T) {
	// md5("abc")
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", Sign("ab", "c"))
	assert.Equal(t, Sign("data", "secret"), Sign("data", "secret"))
	assert.NotEqual(t, Sign("data", "secret"), Sign("datb", "secret"))
	assert.NotEqual(t, Sign("data", "secret"), Sign("data", "secreT"))
	assert.Len(t, Sign("", ""), 32)
}

func TestVerify(t *testing.T) {
	sig := Sign("payload", "pw")
	assert.True(t, Verify(sig, "payload", "pw"))
	assert.True(t, Verify(strings.ToUpper(sig), "payload", "pw"))
	assert.False(t, Verify(sig, "payload", "other"))
	assert.False(t, Verify(sig[:31], "payload", "pw"))
	assert.False(t, Verify(sig+"0", "payload", "pw"))
	assert.False(t, Verify("", "payload", "pw"))

	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	assert.False(t, Verify(string(flipped), "payload", "pw"))
}
