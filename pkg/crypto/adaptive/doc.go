// Package adaptive seals small secrets, such as engine API keys, before they
// are written to disk.
//
// A Cipher is chosen by hardware: AES-256-GCM where the CPU has AES
// instructions, ChaCha20-Poly1305 otherwise. Sealed values are self
// describing text ("nvsec:v1:<cipher>:<base64>") so a value written on one
// machine can be opened on another that would have picked a different
// cipher.
//
// Usage:
//
//	key, err := adaptive.LoadOrCreateKey(filepath.Join(dir, "secret.key"))
//	sealed, err := adaptive.SealString(key, apiKey, []byte("engine.api_key"))
//	apiKey, err = adaptive.OpenString(key, sealed, []byte("engine.api_key"))
package adaptive
