package utils

import (
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

// HashOperatorKey returns the bcrypt hash stored in OPERATOR_API_KEY_HASH.
func HashOperatorKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	return string(bytes), err
}

func CheckOperatorKey(key, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	return err == nil
}

func Ptr[T any](v T) *T {
	return &v
}
