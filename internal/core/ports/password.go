package ports

// PasswordService generates one-time secrets and digests passwords.
// Plaintext passwords never reach the repository.
type PasswordService interface {
	GeneratePassword() string
	DigestPassword(password string) (string, error)
	VerifyPassword(digest, candidate string) bool
}
