// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
	"time"
)

const (
	codeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeSuffixLen = 6
)

// GenerateTransactionCode returns TXN-YYYYMMDD-XXXXXX. The suffix skips
// characters that are easy to misread over the phone.
func GenerateTransactionCode(now time.Time) (string, error) {
	suffix, err := randomFrom(codeAlphabet, codeSuffixLen)
	if err != nil {
		return "", err
	}
	return "TXN-" + now.Format("20060102") + "-" + suffix, nil
}

func randomFrom(charset string, length int) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}
