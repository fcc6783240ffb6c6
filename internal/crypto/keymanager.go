// Package crypto provides secret-setting encryption, password hashing, and
// HMAC-signed access tokens for the marketplace API.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// saltLen is the random salt length in bytes.
	saltLen = 16
	// aesKeyLen is the derived AES-256 key length.
	aesKeyLen = 32
	// currentVersion is the sealed-value JSON schema version.
	currentVersion = 1
	// sealedPrefix marks a stored value as sealed by a Vault.
	sealedPrefix = "enc:v1:"
)

// sealedJSON is the stored format for an encrypted setting value.
type sealedJSON struct {
	Version    int    `json:"version"`
	Iterations int    `json:"iter"`
	Salt       string `json:"salt"`       // base64 standard encoding
	Nonce      string `json:"nonce"`      // base64 standard encoding
	Ciphertext string `json:"ciphertext"` // base64 standard encoding
}

// Vault encrypts and decrypts secret site settings with a password using
// PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM authenticated encryption.
// Derived keys are cached per salt, so repeated reads of the same value only
// pay for derivation once. A Vault is safe for concurrent use.
type Vault struct {
	password   []byte
	iterations int

	mu   sync.Mutex
	keys map[string][]byte // salt -> derived key
}

// NewVault creates a Vault for the given password.
func NewVault(password string) (*Vault, error) {
	return newVault(password, pbkdf2Iterations)
}

func newVault(password string, iterations int) (*Vault, error) {
	if password == "" {
		return nil, errors.New("crypto: password must not be empty")
	}
	return &Vault{
		password:   []byte(password),
		iterations: iterations,
		keys:       make(map[string][]byte),
	}, nil
}

// IsSealed reports whether v was produced by Seal.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealedPrefix)
}

// Seal encrypts plaintext and returns a printable string suitable for storing
// in a text column.
func (v *Vault) Seal(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: generating salt: %w", err)
	}

	gcm, err := v.gcm(salt, v.iterations)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	out, err := json.Marshal(sealedJSON{
		Version:    currentVersion,
		Iterations: v.iterations,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("crypto: encoding sealed value: %w", err)
	}
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (v *Vault) Open(sealed string) (string, error) {
	if !IsSealed(sealed) {
		return "", errors.New("crypto: value is not sealed")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("crypto: decoding sealed value: %w", err)
	}

	var stored sealedJSON
	if err := json.Unmarshal(raw, &stored); err != nil {
		return "", fmt.Errorf("crypto: parsing sealed value: %w", err)
	}
	if stored.Version != currentVersion {
		return "", fmt.Errorf("crypto: unsupported version %d", stored.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return "", fmt.Errorf("crypto: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return "", fmt.Errorf("crypto: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("crypto: decoding ciphertext: %w", err)
	}

	gcm, err := v.gcm(salt, stored.Iterations)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errors.New("crypto: bad nonce length")
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: decryption failed (wrong password?): %w", err)
	}
	return string(plaintext), nil
}

func (v *Vault) gcm(salt []byte, iterations int) (cipher.AEAD, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("crypto: bad iteration count %d", iterations)
	}
	cacheKey := fmt.Sprintf("%d:%x", iterations, salt)

	v.mu.Lock()
	key, ok := v.keys[cacheKey]
	if !ok {
		key = pbkdf2.Key(v.password, salt, iterations, aesKeyLen, sha256.New)
		v.keys[cacheKey] = key
	}
	v.mu.Unlock()

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: creating GCM: %w", err)
	}
	return gcm, nil
}
