package controlplane

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a plaintext admin password for storage in
// Config.AdminPasswordHash. Used by smbdctl's bootstrap command, never
// by the running server itself.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword reports whether password matches hash.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
