package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex("00"))
	assert.True(t, IsHex("deadBEEF"))
	assert.False(t, IsHex(""))
	assert.False(t, IsHex("abc"))   // odd length
	assert.False(t, IsHex("zz"))    // not hex
	assert.False(t, IsHex("0x00")) // no prefix allowed
}

func TestIsNumericString(t *testing.T) {
	assert.True(t, IsNumericString("0"))
	assert.True(t, IsNumericString("42"))
	assert.True(t, IsNumericString("10000000000000000000000"))
	assert.False(t, IsNumericString(""))
	assert.False(t, IsNumericString("007"))
	assert.False(t, IsNumericString("-1"))
	assert.False(t, IsNumericString("1.5"))
	assert.False(t, IsNumericString(" 1"))
}

func TestIsAddress(t *testing.T) {
	// 64-hex public key fallback.
	assert.True(t, IsAddress(strings.Repeat("ab", 32)))
	// Genesis block coinbase, base58 version 0x00.
	assert.True(t, IsAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
	// Base58 version 0x05 script address.
	assert.True(t, IsAddress("3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"))
	// Bech32.
	assert.True(t, IsAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"))

	assert.False(t, IsAddress(""))
	assert.False(t, IsAddress("hello"))
	assert.False(t, IsAddress(strings.Repeat("zz", 32)))
	assert.False(t, IsAddress("bc1!!!"))
}

func TestCompileAndValidate(t *testing.T) {
	v, err := Compile("test", `{
		"type": "object",
		"required": ["id", "amount"],
		"properties": {
			"id": {"type": "string", "format": "hex", "minLength": 64, "maxLength": 64},
			"amount": {"type": "string", "format": "numeric-string"}
		},
		"additionalProperties": false
	}`)
	require.NoError(t, err)
	assert.Equal(t, "test", v.Name())

	good := `{"id": "` + strings.Repeat("0a", 32) + `", "amount": "15"}`
	assert.True(t, v.OKRaw([]byte(good)))

	for _, bad := range []string{
		`{"id": "zz", "amount": "15"}`,
		`{"id": "` + strings.Repeat("0a", 32) + `", "amount": "015"}`,
		`{"id": "` + strings.Repeat("0a", 32) + `"}`,
		`{"id": "` + strings.Repeat("0a", 32) + `", "amount": "15", "extra": 1}`,
		`not json at all`,
		`[]`,
	} {
		assert.False(t, v.OKRaw([]byte(bad)), "input: %s", bad)
	}
}

func TestCompileRejectsBadDocument(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	require.Error(t, err)
}

func TestValidateNeverPanics(t *testing.T) {
	v := MustCompile("any", `{"type": "object"}`)
	assert.False(t, v.OKRaw(nil))
	assert.False(t, v.OK("just a string"))
	assert.True(t, v.OK(map[string]any{}))
}
