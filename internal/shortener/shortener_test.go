package shortener

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	gen := NewCodeGenerator(6)

	for i := 0; i < 100; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)

		assert.Len(t, code, 6)
		for _, char := range code {
			assert.True(t, strings.ContainsRune(base62Chars, char),
				"code %q contains character outside the base62 alphabet", code)
		}
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	gen := NewCodeGenerator(6)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		seen[code] = true
	}

	// 50 draws from a 62^6 space colliding down to a handful of values
	// would mean a broken random source
	assert.Greater(t, len(seen), 45)
}

func TestNewCodeGenerator_ClampsLength(t *testing.T) {
	assert.Equal(t, 6, NewCodeGenerator(3).Length())
	assert.Equal(t, 8, NewCodeGenerator(8).Length())
	assert.Equal(t, 12, NewCodeGenerator(40).Length())
}

func TestAdminKey(t *testing.T) {
	gen := NewCodeGenerator(6)

	key, err := gen.AdminKey()
	require.NoError(t, err)

	// 32 bytes in unpadded URL-safe base64
	assert.Len(t, key, 43)
	assert.NotContains(t, key, "+")
	assert.NotContains(t, key, "/")
	assert.NotContains(t, key, "=")

	other, err := gen.AdminKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestIsValid(t *testing.T) {
	gen := NewCodeGenerator(6)

	assert.True(t, gen.IsValid("aB3xYz"))
	assert.False(t, gen.IsValid("abc"))        // too short
	assert.False(t, gen.IsValid("abcdefg"))    // too long
	assert.False(t, gen.IsValid("ab-cde"))     // invalid character
	assert.False(t, gen.IsValid(""))
}
