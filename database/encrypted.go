package database

import (
	"context"
	"fmt"

	"customerdash/backend/security"
	"customerdash/backend/store"
)

var _ store.Storage = (*EncryptedStorage)(nil)

// EncryptedStorage seals every value before it reaches the inner Storage.
type EncryptedStorage struct {
	inner  store.Storage
	cipher *security.Cipher
}

func NewEncryptedStorage(inner store.Storage, c *security.Cipher) *EncryptedStorage {
	return &EncryptedStorage{inner: inner, cipher: c}
}

func (e *EncryptedStorage) Load(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.inner.Load(ctx, key)
	if err != nil || len(sealed) == 0 {
		return sealed, err
	}
	plain, err := e.cipher.Decrypt(string(sealed))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return plain, nil
}

func (e *EncryptedStorage) Save(ctx context.Context, key string, data []byte) error {
	sealed, err := e.cipher.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return e.inner.Save(ctx, key, []byte(sealed))
}
