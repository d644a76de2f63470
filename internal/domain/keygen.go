package domain

import (
	"crypto/rand"
)

const (
	keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	documentIDLength = 15
	chunkIDLength    = 20
)

// NewDocumentID returns a fresh 15-character base62 document id. Ids are
// generated without a store round-trip; the collision probability at expected
// corpus sizes is negligible and accepted.
func NewDocumentID() string {
	return newKey(documentIDLength)
}

// NewChunkID returns a fresh 20-character base62 chunk id, globally unique
// across the corpus with the same statistical argument as document ids.
func NewChunkID() string {
	return newKey(chunkIDLength)
}

func newKey(length int) string {
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic("keygen: " + err.Error())
		}
		out = appendKeyBytes(out, buf, length)
	}
	return string(out)
}

// appendKeyBytes maps random bytes onto the alphabet until dst reaches limit.
// 248 is the largest multiple of 62 below 256; bytes at or above it would
// overweight the low alphabet positions under the modulo and are redrawn.
func appendKeyBytes(dst, src []byte, limit int) []byte {
	for _, b := range src {
		if len(dst) == limit {
			break
		}
		if b >= 248 {
			continue
		}
		dst = append(dst, keyAlphabet[int(b)%len(keyAlphabet)])
	}
	return dst
}
