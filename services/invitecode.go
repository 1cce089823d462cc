package services

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	inviteCodeBytes        = 8  // 16 hex chars on the wire
	verificationTokenBytes = 32 // 256 bits, no collision loop needed

	// DefaultCodeAttempts bounds the collision-check loop in
	// GenerateUniqueInviteCode.
	DefaultCodeAttempts = 10
)

// GenerateInviteCode returns a random uppercase hex invite code.
func GenerateInviteCode() (string, error) {
	b := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// GenerateUniqueInviteCode generates codes until exists reports a free one.
// If maxAttempts is exhausted the last candidate is returned anyway: with a
// 64-bit code space the residual collision odds are accepted over failing
// the caller, and the unique index on invite_code backstops the store.
func GenerateUniqueInviteCode(exists func(code string) (bool, error), maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultCodeAttempts
	}

	var code string
	for i := 0; i < maxAttempts; i++ {
		c, err := GenerateInviteCode()
		if err != nil {
			return "", err
		}
		code = c

		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return code, nil
}

// GenerateVerificationToken returns a 256-bit hex token for invitation and
// email-verification links.
func GenerateVerificationToken() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
