package utils

import (
	"math/rand"
)

const (
	// Client visible error codes.
	ErrorTokenAuthFail = 40001
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RandomAlphabetString returns a random lowercase string of the given
// length. Not cryptographically secure; used for test database names.
func RandomAlphabetString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
