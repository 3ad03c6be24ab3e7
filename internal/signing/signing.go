package signing

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownDigest    = errors.New("unknown digest")
)

// Verifier signs and checks URL keys with an HMAC of a shared secret.
type Verifier struct {
	secret []byte
	digest func() hash.Hash
}

// NewVerifier accepts "sha1" (the default when empty) or "sha256".
func NewVerifier(secret, digest string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}

	var fn func() hash.Hash
	switch digest {
	case "", "sha1":
		fn = sha1.New
	case "sha256":
		fn = sha256.New
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDigest, digest)
	}

	return &Verifier{secret: []byte(secret), digest: fn}, nil
}

func (v *Verifier) Generate(data string) string {
	mac := hmac.New(v.digest, v.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *Verifier) Valid(data, digest string) bool {
	if data == "" || digest == "" {
		return false
	}
	return hmac.Equal([]byte(digest), []byte(v.Generate(data)))
}

func (v *Verifier) Verify(data, digest string) error {
	if !v.Valid(data, digest) {
		return ErrInvalidSignature
	}
	return nil
}
