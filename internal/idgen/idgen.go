// Package idgen generates collision-resistant entity IDs.
//
// IDs are short base36 hashes with a per-entity prefix ("sk-", "task-",
// "stu-"), derived from the entity's content plus creation time so that
// identical names created at different moments still get distinct IDs.
package idgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultLength is the hash portion length used for generated IDs.
const DefaultLength = 5

// Entity prefixes
const (
	PrefixSkill   = "sk"
	PrefixTask    = "task"
	PrefixStudent = "stu"
)

// EncodeBase36 converts a byte slice to a base36 string of the given length.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)

	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	// Digits come out least-significant first
	var b strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		b.WriteByte(chars[i])
	}

	str := b.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// New creates a hash-based ID with the given prefix. The nonce handles
// collisions: callers retry with an incremented nonce until the ID is free.
func New(prefix, content string, timestamp time.Time, nonce int) string {
	seed := fmt.Sprintf("%s|%d|%d", content, timestamp.UnixNano(), nonce)
	hash := sha256.Sum256([]byte(seed))

	// 4 bytes = 32 bits, comfortably fills 5 base36 chars
	return fmt.Sprintf("%s-%s", prefix, EncodeBase36(hash[:4], DefaultLength))
}

// HasPrefix reports whether id carries the given entity prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}
