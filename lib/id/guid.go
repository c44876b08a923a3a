package id

// References:
// https://datatracker.ietf.org/doc/html/rfc4122

import (
	crand "crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CryptoGUID returns a generator of v4 uuid strings backed by
// crypto/rand. Collisions never happen by construction, so the
// values are safe to hand out as ephemeral placeholders.
func CryptoGUID() StrGen {
	return uuid.NewString
}

var shortTokenAlphabet = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_")

// ShortToken generates compact random strings for lock tokens and
// subscriber handles. Not a uuid, only unique enough for in-process
// bookkeeping.
func ShortToken(length int) (StrGen, error) {
	if length < 2 || length > 255 {
		return nil, errors.New("invalid short token length")
	}
	mask := byte(len(shortTokenAlphabet) - 1)
	return func() string {
		entropy := make([]byte, length)
		if _, err := crand.Read(entropy); err != nil {
			panic(fmt.Errorf("[short-token] read entropy failed, %w", err))
		}
		for i := 0; i < length; i++ {
			entropy[i] = shortTokenAlphabet[entropy[i]&mask]
		}
		return string(entropy)
	}, nil
}
