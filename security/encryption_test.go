package security

import (
	"errors"
	"testing"
)

const testKey = "test-encryption-key-12345678901234"

func TestNewCipherKeyLengths(t *testing.T) {
	keys := []string{
		"short-key",
		"12345678901234567890123456789012",
		"this-is-a-very-long-key-that-exceeds-32-bytes-by-quite-a-lot",
	}
	for _, key := range keys {
		if _, err := NewCipher(key); err != nil {
			t.Errorf("Expected key %q to be accepted, got %v", key, err)
		}
	}
}

func TestNewCipherRequiresKey(t *testing.T) {
	_, err := NewCipher("")
	if !errors.Is(err, ErrNoKey) {
		t.Errorf("Expected ErrNoKey, got %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	testCases := []struct {
		name  string
		value string
	}{
		{"Simple text", "Hello, world!"},
		{"Empty string", ""},
		{"JSON document", `[{"id":"1","customerName":"Ann","gender":"F"}]`},
		{"Special characters", "!@#$%^&*()_+{}|:<>?~"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encrypted, err := c.Encrypt([]byte(tc.value))
			if err != nil {
				t.Fatalf("Error encrypting '%s': %v", tc.value, err)
			}

			if encrypted == tc.value && tc.value != "" {
				t.Errorf("Encrypted value '%s' is the same as the original", encrypted)
			}

			decrypted, err := c.Decrypt(encrypted)
			if err != nil {
				t.Fatalf("Error decrypting '%s': %v", encrypted, err)
			}

			if string(decrypted) != tc.value {
				t.Errorf("Expected decrypted value '%s', got '%s'", tc.value, decrypted)
			}
		})
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	a, _ := NewCipher(testKey)
	b, _ := NewCipher("another-key")

	encrypted, err := a.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := b.Decrypt(encrypted); err == nil {
		t.Error("Expected error when decrypting with a different key, got nil")
	}
}

func TestDecryptInvalidData(t *testing.T) {
	c, _ := NewCipher(testKey)

	if _, err := c.Decrypt("not-base64"); err == nil {
		t.Error("Expected error when decrypting invalid base64 data, got nil")
	}

	if _, err := c.Decrypt("aGVsbG8="); err == nil {
		t.Error("Expected error when decrypting invalid ciphertext, got nil")
	}
}
