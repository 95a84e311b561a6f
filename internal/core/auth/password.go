package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a one-way, salted hash from a plaintext password. The
// salt and cost parameters are embedded in the returned string, so no
// separate salt storage is needed for verification.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash. The
// comparison inside bcrypt is constant-time.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
