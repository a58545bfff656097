package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	verificationTTL        = 24 * time.Hour
	verificationTokenBytes = 32
)

// VerificationTokens generates opaque email verification tokens.
type VerificationTokens struct {
	ttl time.Duration
	now func() time.Time
}

func NewVerificationTokens() *VerificationTokens {
	return &VerificationTokens{ttl: verificationTTL, now: time.Now}
}

// Generate returns a random hex token and the instant it stops being accepted.
func (g *VerificationTokens) Generate() (string, time.Time, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(b), g.now().Add(g.ttl).UTC(), nil
}
