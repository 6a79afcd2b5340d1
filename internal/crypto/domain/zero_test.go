package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("wipes decrypted value", func(t *testing.T) {
		b := []byte("hunter2")
		Zero(b)
		assert.Equal(t, make([]byte, 7), b)
	})

	t.Run("wipes only the aliased window", func(t *testing.T) {
		backing := []byte("nonce|plaintext|tag")
		Zero(backing[6:15])
		assert.Equal(t, []byte("nonce|"), backing[:6])
		assert.Equal(t, make([]byte, 9), backing[6:15])
		assert.Equal(t, []byte("|tag"), backing[15:])
	})

	t.Run("wipes up to len, not cap", func(t *testing.T) {
		backing := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		Zero(backing[:4:8])
		assert.Equal(t, []byte{0, 0, 0, 0, 5, 6, 7, 8}, backing)
	})

	t.Run("empty and nil slices", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero([]byte{}) })
		assert.NotPanics(t, func() { Zero(nil) })
	})
}
