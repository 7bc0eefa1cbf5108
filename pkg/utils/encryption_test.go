package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	sealed, err := c.Encrypt("dear diary")
	require.NoError(t, err)
	assert.NotEqual(t, "dear diary", sealed)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "dear diary", plain)
}

func TestCipher_NilPassesThrough(t *testing.T) {
	var c *Cipher
	out, err := c.Encrypt("x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	out, err = c.Decrypt("x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestNewCipher_Errors(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
	_, err = NewCipher("not base64!!")
	assert.Error(t, err)
	_, err = NewCipher(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestCipher_DecryptTampered(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)
	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("tiny")))
	assert.Error(t, err)
}
