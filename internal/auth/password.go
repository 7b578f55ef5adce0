package auth

import "golang.org/x/crypto/bcrypt"

const defaultHashCost = 10

// Hasher wraps the slow adaptive password hash.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. Costs outside bcrypt's accepted range fall
// back to the default cost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultHashCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a one-way hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	data, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Verify reports whether password matches hash.
func (h *Hasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
