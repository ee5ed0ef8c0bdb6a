package adaptive

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SealedPrefix marks a value produced by SealString.
const SealedPrefix = "nvsec:v1:"

var (
	ErrNotSealed     = errors.New("adaptive: value is not sealed")
	ErrMalformedSeal = errors.New("adaptive: malformed sealed value")
)

// GenerateKey returns a new random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadOrCreateKey reads the key at path, creating it with mode 0600 when the
// file does not exist. The parent directory is created with mode 0700.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != KeySize {
			return nil, fmt.Errorf("%w: %s holds %d bytes", ErrInvalidKeySize, path, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if key, err = GenerateKey(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	// O_EXCL so two processes racing on first use do not overwrite each other.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return LoadOrCreateKey(path)
	}
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return key, nil
}

// IsSealed reports whether s looks like a SealString result.
func IsSealed(s string) bool {
	return strings.HasPrefix(s, SealedPrefix)
}

// SealString encrypts plaintext with the preferred cipher and returns
// "nvsec:v1:<cipher>:<base64>". The additional data binds the value to its
// purpose, typically the config key it is stored under.
func SealString(key []byte, plaintext string, additionalData []byte) (string, error) {
	c, err := New(key)
	if err != nil {
		return "", err
	}
	ct, err := c.Encrypt([]byte(plaintext), additionalData)
	if err != nil {
		return "", err
	}
	return SealedPrefix + string(c.Type()) + ":" + base64.RawURLEncoding.EncodeToString(ct), nil
}

// OpenString reverses SealString. The cipher named in the value is used,
// regardless of which one this machine prefers.
func OpenString(key []byte, sealed string, additionalData []byte) (string, error) {
	if !IsSealed(sealed) {
		return "", ErrNotSealed
	}
	typ, payload, ok := strings.Cut(strings.TrimPrefix(sealed, SealedPrefix), ":")
	if !ok || typ == "" || payload == "" {
		return "", ErrMalformedSeal
	}
	ct, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSeal, err)
	}
	c, err := NewWithType(key, CipherType(typ))
	if err != nil {
		return "", err
	}
	pt, err := c.Decrypt(ct, additionalData)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
