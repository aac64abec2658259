package utils

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CalculateMD5(nil))
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", CalculateMD5([]byte("hello")))
}

func TestNewAnalysisID(t *testing.T) {
	a, err := NewAnalysisID()
	require.NoError(t, err)
	b, err := NewAnalysisID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	parsed, err := uuid.FromString(a)
	require.NoError(t, err)
	assert.Equal(t, byte(uuid.V7), parsed.Version())
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "简历...", TruncateRunes("简历分析", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 0))
}
