package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("s3cretpass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpass", hash)

	assert.NoError(t, CompareHash(hash, "s3cretpass"))
	assert.Error(t, CompareHash(hash, "wrongpass"))
}

func TestGetHash_Salted(t *testing.T) {
	first, err := GetHash("s3cretpass")
	require.NoError(t, err)
	second, err := GetHash("s3cretpass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
