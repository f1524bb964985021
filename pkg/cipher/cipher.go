// Package cipher encrypts personally identifying officer fields with keys scoped to an
// administrative district.
//
// Every district key is derived from one master secret with HKDF-SHA256, so a leaked district
// key exposes only that district's records. Encryption is deterministic: the nonce is a
// synthetic IV computed as HMAC-SHA256 over the plaintext, and the payload is sealed with
// XChaCha20-Poly1305 using the district code as associated data. Equal plaintexts within a
// district therefore produce equal ciphertexts. That supports exact-match lookups against
// stored values (registry and control numbers) and reveals which records share a value.
// This is a deliberate trade of semantic security for searchability; do not use this package
// for fields that need unlinkable ciphertexts.
//
// Decryption fails closed. Any malformed payload, wrong district, or tampered byte yields
// ErrDecryptionFailure and never partial plaintext.
package cipher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	versionPrefix = "v1."
	keySize       = chacha20poly1305.KeySize
	// MinMasterKeyLength is the minimum accepted master secret length in bytes.
	MinMasterKeyLength = 32
)

var hkdfSalt = []byte("officer-registry/field-cipher/v1")

// ErrDecryptionFailure reports a ciphertext that cannot be opened with the district key.
var ErrDecryptionFailure = errors.New("cipher: decryption failure")

// ErrDistrictRequired reports a blank district code.
var ErrDistrictRequired = errors.New("cipher: district code is required")

// FieldCipher is the single capability every caller uses to protect officer fields.
type FieldCipher interface {
	Encrypt(plaintext, districtCode string) (string, error)
	Decrypt(ciphertext, districtCode string) (string, error)
}

type districtKeys struct {
	aead []byte
	siv  []byte
}

// DistrictCipher implements FieldCipher with per-district derived keys.
type DistrictCipher struct {
	master []byte

	mu   sync.RWMutex
	keys map[string]districtKeys
}

// New builds a DistrictCipher from the configured master secret.
func New(masterKey string) (*DistrictCipher, error) {
	if len(masterKey) < MinMasterKeyLength {
		return nil, fmt.Errorf("cipher: master key must be at least %d bytes", MinMasterKeyLength)
	}
	return &DistrictCipher{
		master: []byte(masterKey),
		keys:   make(map[string]districtKeys),
	}, nil
}

// Encrypt seals plaintext for the district. The empty string stays empty.
func (c *DistrictCipher) Encrypt(plaintext, districtCode string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	district, err := normalizeDistrict(districtCode)
	if err != nil {
		return "", err
	}
	keys, err := c.keysFor(district)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(keys.aead)
	if err != nil {
		return "", fmt.Errorf("cipher: init aead: %w", err)
	}

	nonce := syntheticNonce(keys.siv, plaintext)
	sealed := aead.Seal(nil, nonce, []byte(plaintext), []byte(district))

	payload := make([]byte, 0, len(nonce)+len(sealed))
	payload = append(payload, nonce...)
	payload = append(payload, sealed...)
	return versionPrefix + base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decrypt opens a ciphertext produced by Encrypt for the same district.
func (c *DistrictCipher) Decrypt(ciphertext, districtCode string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	district, err := normalizeDistrict(districtCode)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailure, err)
	}
	if !strings.HasPrefix(ciphertext, versionPrefix) {
		return "", fmt.Errorf("%w: unknown payload version", ErrDecryptionFailure)
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(ciphertext, versionPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: malformed payload", ErrDecryptionFailure)
	}
	if len(payload) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", fmt.Errorf("%w: payload too short", ErrDecryptionFailure)
	}

	keys, err := c.keysFor(district)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(keys.aead)
	if err != nil {
		return "", fmt.Errorf("cipher: init aead: %w", err)
	}

	nonce, sealed := payload[:chacha20poly1305.NonceSizeX], payload[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, sealed, []byte(district))
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailure)
	}
	if !hmac.Equal(nonce, syntheticNonce(keys.siv, string(plain))) {
		return "", fmt.Errorf("%w: synthetic iv mismatch", ErrDecryptionFailure)
	}
	return string(plain), nil
}

func (c *DistrictCipher) keysFor(district string) (districtKeys, error) {
	c.mu.RLock()
	keys, ok := c.keys[district]
	c.mu.RUnlock()
	if ok {
		return keys, nil
	}

	reader := hkdf.New(sha256.New, c.master, hkdfSalt, []byte("district:"+district))
	material := make([]byte, 2*keySize)
	if _, err := io.ReadFull(reader, material); err != nil {
		return districtKeys{}, fmt.Errorf("cipher: derive district key: %w", err)
	}
	keys = districtKeys{aead: material[:keySize], siv: material[keySize:]}

	c.mu.Lock()
	c.keys[district] = keys
	c.mu.Unlock()
	return keys, nil
}

func syntheticNonce(key []byte, plaintext string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(plaintext))
	return mac.Sum(nil)[:chacha20poly1305.NonceSizeX]
}

func normalizeDistrict(code string) (string, error) {
	district := strings.ToUpper(strings.TrimSpace(code))
	if district == "" {
		return "", ErrDistrictRequired
	}
	return district, nil
}
