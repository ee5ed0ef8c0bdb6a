package adaptive

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNew(t *testing.T) {
	c, err := New(testKey())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Type() != Preferred() {
		t.Errorf("New().Type() = %s, want %s", c.Type(), Preferred())
	}
}

func TestNewWithType(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		typ     CipherType
		wantErr error
	}{
		{"aes-gcm", testKey(), CipherAESGCM, nil},
		{"chacha20", testKey(), CipherChaCha20, nil},
		{"unknown type", testKey(), CipherType("rot13"), ErrUnknownCipher},
		{"short key", make([]byte, 16), CipherAESGCM, ErrInvalidKeySize},
		{"long key", make([]byte, 64), CipherChaCha20, ErrInvalidKeySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithType(tt.key, tt.typ)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewWithType() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && c.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", c.Type(), tt.typ)
			}
		})
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			c, err := NewWithType(testKey(), typ)
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}

			plaintexts := [][]byte{nil, []byte("k"), bytes.Repeat([]byte("engine-api-key"), 100)}
			for _, pt := range plaintexts {
				ct, err := c.Encrypt(pt, []byte("aad"))
				if err != nil {
					t.Fatalf("Encrypt() error = %v", err)
				}
				if got, want := len(ct), len(pt)+c.NonceSize()+c.Overhead(); got != want {
					t.Errorf("len(ciphertext) = %d, want %d", got, want)
				}
				got, err := c.Decrypt(ct, []byte("aad"))
				if err != nil {
					t.Fatalf("Decrypt() error = %v", err)
				}
				if !bytes.Equal(got, pt) {
					t.Errorf("Decrypt() = %q, want %q", got, pt)
				}
			}
		})
	}
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, _ := New(testKey())
	a, _ := c.Encrypt([]byte("same"), nil)
	b, _ := c.Encrypt([]byte("same"), nil)
	if bytes.Equal(a, b) {
		t.Error("Encrypt() produced identical ciphertexts for the same input")
	}
}

func TestCipher_DecryptRejectsTampering(t *testing.T) {
	c, _ := NewWithType(testKey(), CipherChaCha20)
	ct, _ := c.Encrypt([]byte("secret"), []byte("aad"))

	flipped := bytes.Clone(ct)
	flipped[len(flipped)-1] ^= 0xff

	tests := []struct {
		name string
		ct   []byte
		aad  []byte
	}{
		{"flipped tag", flipped, []byte("aad")},
		{"wrong aad", ct, []byte("other")},
		{"truncated", ct[:c.NonceSize()], []byte("aad")},
		{"empty", nil, []byte("aad")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decrypt(tt.ct, tt.aad); err == nil {
				t.Error("Decrypt() error = nil, want error")
			}
		})
	}
}

func TestSealString_RoundTrip(t *testing.T) {
	key := testKey()
	aad := []byte("engine.api_key")

	sealed, err := SealString(key, "s3cr3t", aad)
	if err != nil {
		t.Fatalf("SealString() error = %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatalf("IsSealed(%q) = false, want true", sealed)
	}
	if strings.Contains(sealed, "s3cr3t") {
		t.Errorf("SealString() = %q leaks the plaintext", sealed)
	}
	if !strings.HasPrefix(sealed, SealedPrefix+string(Preferred())+":") {
		t.Errorf("SealString() = %q, want cipher %s in prefix", sealed, Preferred())
	}

	got, err := OpenString(key, sealed, aad)
	if err != nil {
		t.Fatalf("OpenString() error = %v", err)
	}
	if got != "s3cr3t" {
		t.Errorf("OpenString() = %q, want %q", got, "s3cr3t")
	}
}

func TestOpenString_UsesRecordedCipher(t *testing.T) {
	key := testKey()
	other := CipherChaCha20
	if Preferred() == CipherChaCha20 {
		other = CipherAESGCM
	}
	c, _ := NewWithType(key, other)
	ct, _ := c.Encrypt([]byte("portable"), nil)
	sealed := SealedPrefix + string(other) + ":" + encodeForTest(ct)

	got, err := OpenString(key, sealed, nil)
	if err != nil {
		t.Fatalf("OpenString() error = %v", err)
	}
	if got != "portable" {
		t.Errorf("OpenString() = %q, want %q", got, "portable")
	}
}

func TestOpenString_Errors(t *testing.T) {
	key := testKey()
	sealed, _ := SealString(key, "value", []byte("a"))

	tests := []struct {
		name    string
		key     []byte
		in      string
		aad     []byte
		wantErr error
	}{
		{"plain text", key, "value", nil, ErrNotSealed},
		{"missing payload", key, SealedPrefix + "aes-gcm", nil, ErrMalformedSeal},
		{"bad base64", key, SealedPrefix + "aes-gcm:!!!", nil, ErrMalformedSeal},
		{"unknown cipher", key, SealedPrefix + "rot13:AAAA", nil, ErrUnknownCipher},
		{"wrong aad", key, sealed, []byte("b"), nil},
		{"wrong key", make([]byte, KeySize), sealed, []byte("a"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenString(tt.key, tt.in, tt.aad)
			if err == nil {
				t.Fatal("OpenString() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("OpenString() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secret.key")

	first, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKey() error = %v", err)
	}
	if len(first) != KeySize {
		t.Fatalf("len(key) = %d, want %d", len(first), KeySize)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %o, want 600", perm)
	}

	second, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKey() second call error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("LoadOrCreateKey() returned a different key on reload")
	}
}

func TestLoadOrCreateKey_RejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")
	if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrCreateKey(path); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("LoadOrCreateKey() error = %v, want %v", err, ErrInvalidKeySize)
	}
}

func encodeForTest(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
