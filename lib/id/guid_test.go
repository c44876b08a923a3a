package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCryptoGUID(t *testing.T) {
	guid := CryptoGUID()
	set := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		set[guid()] = struct{}{}
	}
	require.Len(t, set, 1000)
}

func TestShortToken(t *testing.T) {
	_, err := ShortToken(1)
	require.Error(t, err)
	_, err = ShortToken(256)
	require.Error(t, err)

	token, err := ShortToken(16)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.Len(t, token(), 16)
	}
}

func BenchmarkCryptoGUID(b *testing.B) {
	guid := CryptoGUID()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = guid()
	}
	b.ReportAllocs()
}
