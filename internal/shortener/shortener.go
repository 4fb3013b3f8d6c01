package shortener

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// Base62 character set (0-9, A-Z, a-z) - 62 characters total
// Using base62 instead of base64 avoids special characters that might cause URL issues
const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// adminKeyBytes matches a 32-byte random token rendered URL-safe
const adminKeyBytes = 32

// CodeGenerator produces short codes from a cryptographically secure random
// source. Allocation is purely random, with no counter or sequence, so codes
// are not guessable or enumerable. Thread-safe.
type CodeGenerator struct {
	length int // Length of generated codes
}

// NewCodeGenerator creates a new code generator with specified length.
// At 6 characters the space is 62^6 (~56 billion), which keeps the
// per-draw collision probability near 1/62^6 at realistic volumes.
func NewCodeGenerator(length int) *CodeGenerator {
	if length < 6 {
		length = 6 // Minimum safe length
	}
	if length > 12 {
		length = 12 // Maximum reasonable length
	}

	return &CodeGenerator{
		length: length,
	}
}

// Generate creates a random short code using base62 encoding.
// Uniqueness is the caller's responsibility; the generator itself has no
// state and no store dependency.
func (g *CodeGenerator) Generate() (string, error) {
	result := make([]byte, g.length)

	for i := 0; i < g.length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(base62Chars))))
		if err != nil {
			return "", fmt.Errorf("random source failed: %w", err)
		}

		result[i] = base62Chars[num.Int64()]
	}

	return string(result), nil
}

// AdminKey generates a 32-byte random token rendered URL-safe. The token is
// the sole owner credential for a link, so it must be high-entropy and unique.
func (g *CodeGenerator) AdminKey() (string, error) {
	buf := make([]byte, adminKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random source failed: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Length returns the configured code length
func (g *CodeGenerator) Length() int {
	return g.length
}

// IsValid checks if a short code contains only valid base62 characters
func (g *CodeGenerator) IsValid(code string) bool {
	if len(code) != g.length {
		return false
	}

	for _, char := range code {
		if !strings.ContainsRune(base62Chars, char) {
			return false
		}
	}

	return true
}
