package hash

import "golang.org/x/crypto/bcrypt"

type Hasher struct {
	Cost int
}

func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns a bcrypt digest with a freshly generated salt embedded in it.
func (h *Hasher) Hash(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

// Verify reports false for a corrupt or empty hash instead of failing.
func (h *Hasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var defaultHasher = New(bcrypt.DefaultCost)

func HashPassword(password string) (string, error) {
	return defaultHasher.Hash(password)
}

func CheckPassword(hash, password string) bool {
	return defaultHasher.Verify(password, hash)
}
