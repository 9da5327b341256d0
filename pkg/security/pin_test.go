package security_test

import (
	"testing"

	"github.com/angelmondragon/backhouse/pkg/config"
	"github.com/angelmondragon/backhouse/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPINConfig = config.PINConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := security.HashPIN("4821", testPINConfig)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	ok, err := security.VerifyPIN("4821", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPIN("4822", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = security.VerifyPIN("48a1", hash)
	require.NoError(t, err)
	assert.False(t, ok, "malformed pins never match")
}

func TestHashPINRejectsMalformedInput(t *testing.T) {
	for _, pin := range []string{"", "123", "123456789", "12 4", "abcd"} {
		_, err := security.HashPIN(pin, testPINConfig)
		assert.ErrorIs(t, err, security.ErrMalformedPIN, "pin %q", pin)
	}
}

func TestVerifyPINBadHash(t *testing.T) {
	_, err := security.VerifyPIN("1234", "not-a-hash")
	assert.ErrorIs(t, err, security.ErrInvalidHash)
}

func TestHashPINSaltsEachHash(t *testing.T) {
	first, err := security.HashPIN("0000", testPINConfig)
	require.NoError(t, err)
	second, err := security.HashPIN("0000", testPINConfig)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
