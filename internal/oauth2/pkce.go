package oauth2

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"

	autherrors "github.com/alexjbarnes/authkit/internal/errors"
)

// CodeChallengeMethod is the PKCE transformation applied to the verifier.
type CodeChallengeMethod string

const (
	CodeChallengeMethodPlain CodeChallengeMethod = "plain"
	CodeChallengeMethodS256  CodeChallengeMethod = "S256"
)

// unreservedChars is the RFC 7636 code verifier alphabet.
const unreservedChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const (
	minVerifierLen = 43
	maxVerifierLen = 128

	stateBytes = 32
)

// PKCEPair is a code verifier and the challenge derived from it. It
// belongs to exactly one authorization attempt.
type PKCEPair struct {
	CodeVerifier  string
	CodeChallenge string
	Method        CodeChallengeMethod
}

// GenerateCodeVerifier returns a verifier of random length in [43,128]
// drawn uniformly from the unreserved character set.
func GenerateCodeVerifier() (string, error) {
	span, err := rand.Int(rand.Reader, big.NewInt(maxVerifierLen-minVerifierLen+1))
	if err != nil {
		return "", fmt.Errorf("generating verifier length: %w", err)
	}

	n := minVerifierLen + int(span.Int64())
	alphabet := big.NewInt(int64(len(unreservedChars)))

	ret := make([]byte, n)
	for i := range ret {
		idx, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("generating verifier: %w", err)
		}
		ret[i] = unreservedChars[idx.Int64()]
	}

	return string(ret), nil
}

// GenerateCodeChallenge derives the challenge for verifier. plain returns
// the verifier unchanged; S256 returns base64url(SHA-256(verifier))
// without padding.
func GenerateCodeChallenge(verifier string, method CodeChallengeMethod) (string, error) {
	switch method {
	case CodeChallengeMethodPlain:
		return verifier, nil
	case CodeChallengeMethodS256:
		h := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(h[:]), nil
	default:
		return "", fmt.Errorf("%w: %q", autherrors.ErrUnsupportedMethod, method)
	}
}

// NewPKCEPair generates a fresh verifier and its challenge.
func NewPKCEPair(method CodeChallengeMethod) (*PKCEPair, error) {
	if method == "" {
		method = CodeChallengeMethodS256
	}

	verifier, err := GenerateCodeVerifier()
	if err != nil {
		return nil, err
	}

	challenge, err := GenerateCodeChallenge(verifier, method)
	if err != nil {
		return nil, err
	}

	return &PKCEPair{
		CodeVerifier:  verifier,
		CodeChallenge: challenge,
		Method:        method,
	}, nil
}

// GenerateState returns a random value used to correlate an
// authorization redirect with its callback.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
