package signing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	v, err := NewVerifier("key", "")
	require.NoError(t, err)
	assert.Equal(t,
		"de7c9b85b8b78aa6bc8a7a36f70a90701c9db4d9",
		v.Generate("The quick brown fox jumps over the lazy dog"))

	v, err = NewVerifier("key", "sha256")
	require.NoError(t, err)
	assert.Equal(t,
		"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8",
		v.Generate("The quick brown fox jumps over the lazy dog"))
}

func TestVerify(t *testing.T) {
	v, err := NewVerifier("s3cret", "sha1")
	require.NoError(t, err)

	digest := v.Generate("show-42-100x100")
	assert.NoError(t, v.Verify("show-42-100x100", digest))
	assert.ErrorIs(t, v.Verify("show-42-200x200", digest), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("show-42-100x100", digest[:len(digest)-1]), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("", v.Generate("")), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("show-42-100x100", ""), ErrInvalidSignature)

	other, err := NewVerifier("other", "sha1")
	require.NoError(t, err)
	assert.False(t, other.Valid("show-42-100x100", digest))
}

// flip toggles the lowest bit of the hex digit at i.
func flip(digest string, i int) string {
	n, _ := strconv.ParseUint(digest[i:i+1], 16, 8)
	return digest[:i] + strconv.FormatUint(n^1, 16) + digest[i+1:]
}

func TestVerifyRejectsFlippedBits(t *testing.T) {
	for _, digest := range []string{"sha1", "sha256"} {
		v, err := NewVerifier("s3cret", digest)
		require.NoError(t, err)

		signed := v.Generate("original-42")
		for i := range signed {
			flipped := flip(signed, i)
			require.NotEqual(t, signed, flipped)
			assert.ErrorIs(t, v.Verify("original-42", flipped), ErrInvalidSignature, "%s position %d", digest, i)
		}
	}
}

func TestNewVerifier(t *testing.T) {
	_, err := NewVerifier("", "sha1")
	assert.Error(t, err)

	_, err = NewVerifier("s3cret", "md5")
	assert.ErrorIs(t, err, ErrUnknownDigest)
}
