package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// ErrNoKey is returned when a Cipher is built without a key.
var ErrNoKey = errors.New("encryption key not set")

// Cipher seals and opens values with AES-256-GCM. Ciphertexts are base64
// encoded with the nonce prepended.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a passphrase. Short keys are zero padded
// and long keys truncated to 32 bytes.
func NewCipher(key string) (*Cipher, error) {
	if key == "" {
		return nil, ErrNoKey
	}
	if len(key) < 32 {
		padding := make([]byte, 32-len(key))
		key = key + string(padding)
	}

	block, err := aes.NewCipher([]byte(key[:32]))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(encrypted string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < c.aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:c.aead.NonceSize()]
	ciphertext = ciphertext[c.aead.NonceSize():]

	return c.aead.Open(nil, nonce, ciphertext, nil)
}
