package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns n random bytes as an uppercase hexadecimal string.
// Ticket codes use n=16 for 128 bits of entropy.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateDigits returns a random numeric string of the given length,
// used for order number suffixes.
func GenerateDigits(length int) (string, error) {
	const charset = "0123456789"

	code := make([]byte, length)

	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < length; i++ {
		code[i] = charset[int(code[i])%len(charset)]
	}

	return string(code), nil
}
