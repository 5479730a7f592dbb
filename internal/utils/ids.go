package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateAccountID returns a random positive 63-bit identifier
func GenerateAccountID() (int64, error) {
	b := make([]byte, 8)
	for {
		if _, err := rand.Read(b); err != nil {
			return 0, fmt.Errorf("failed to generate random id: %w", err)
		}
		id := int64(binary.BigEndian.Uint64(b) &^ (1 << 63))
		if id != 0 {
			return id, nil
		}
	}
}

// GenerateHMAC signs the given fields with HMAC-SHA256
func GenerateHMAC(secret string, fields ...string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC reports whether signature matches the fields
func VerifyHMAC(secret, signature string, fields ...string) bool {
	expected, err := hex.DecodeString(GenerateHMAC(secret, fields...))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
