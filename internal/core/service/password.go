package service

import (
	"crypto/rand"

	"golang.org/x/crypto/bcrypt"
)

// Alphabet for generated one-time passwords; excludes look-alike
// characters (0/O, 1/l/I, j/i).
const (
	onetimePasswordSeed   = "23456789abcdefghkmnpqrstuvwxyzABCDEFGHKMNPQRSTUVWXYZ-_!."
	onetimePasswordLength = 15
)

// Passwords implements ports.PasswordService with bcrypt digests.
type Passwords struct {
	cost int
}

func NewPasswords() *Passwords {
	return &Passwords{cost: bcrypt.DefaultCost}
}

// GeneratePassword returns a random one-time secret.
func (p *Passwords) GeneratePassword() string {
	b := make([]byte, onetimePasswordLength)
	rand.Read(b)
	for i := range b {
		b[i] = onetimePasswordSeed[int(b[i])%len(onetimePasswordSeed)]
	}
	return string(b)
}

// DigestPassword returns the bcrypt digest of password.
func (p *Passwords) DigestPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether candidate matches the stored digest.
func (p *Passwords) VerifyPassword(digest, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate)) == nil
}
