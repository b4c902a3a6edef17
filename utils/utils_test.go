package utils_test

import (
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorKeyRoundTrip(t *testing.T) {
	hash, err := utils.HashOperatorKey("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, utils.CheckOperatorKey("s3cret", hash))
	assert.False(t, utils.CheckOperatorKey("guess", hash))
	assert.False(t, utils.CheckOperatorKey("s3cret", "not-a-hash"))
}

func TestPtr(t *testing.T) {
	p := utils.Ptr(4)
	require.NotNil(t, p)
	assert.Equal(t, 4, *p)
}
