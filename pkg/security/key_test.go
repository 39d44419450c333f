package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
)

func testParams() config.ReaderKeyConfig {
	// small parameters keep the test fast
	return config.ReaderKeyConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyKey(t *testing.T) {
	hash, err := HashKey("SEGREDO123", testParams())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyKey("SEGREDO123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyKey("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyKeyMalformedHash(t *testing.T) {
	_, err := VerifyKey("x", "$2a$10$legacybcrypt")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestHashKeyEmpty(t *testing.T) {
	_, err := HashKey("", testParams())
	assert.Error(t, err)
}
