// Package secret stores the account password encrypted at rest so a session
// can be re-established without asking again.
package secret

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	keyFile    = "vault.key"
	sealedFile = "password.sealed"
)

// Vault keeps one sealed password in dir. The key lives next to it in a file
// only the owner can read.
type Vault struct {
	dir string
}

// NewVault creates a vault rooted at dir.
func NewVault(dir string) *Vault {
	return &Vault{dir: dir}
}

// Encrypt seals password and replaces any stored one.
func (v *Vault) Encrypt(password string) error {
	key, err := v.key(true)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(password)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(password), nil)

	if err := os.WriteFile(filepath.Join(v.dir, sealedFile), sealed, 0600); err != nil {
		return fmt.Errorf("write sealed password: %w", err)
	}
	return nil
}

// Decrypt returns the stored password. It reports false when nothing is
// stored or the blob cannot be opened with the current key.
func (v *Vault) Decrypt() (string, bool) {
	sealed, err := os.ReadFile(filepath.Join(v.dir, sealedFile))
	if err != nil {
		return "", false
	}
	key, err := v.key(false)
	if err != nil {
		return "", false
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil || len(sealed) < aead.NonceSize() {
		return "", false
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

// Forget removes the stored password. The key is kept.
func (v *Vault) Forget() error {
	err := os.Remove(filepath.Join(v.dir, sealedFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// key loads the vault key, creating it when create is set.
func (v *Vault) key(create bool) ([]byte, error) {
	path := filepath.Join(v.dir, keyFile)
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("vault key %s has wrong size", path)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) || !create {
		return nil, fmt.Errorf("read vault key: %w", err)
	}

	if err := os.MkdirAll(v.dir, 0700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("write vault key: %w", err)
	}
	return key, nil
}
