// Package crypto seals client profiles at rest and signs screening records.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sealer encrypts payloads with versioned AES-256-GCM keys and signs records
// with HMAC-SHA256
type Sealer struct {
	mu             sync.RWMutex
	keys           map[int]cipher.AEAD
	currentVersion int
	hmacSecret     []byte
}

// NewSealer creates a sealer. Key i of keysBase64 is version i+1.
func NewSealer(keysBase64 []string, currentVersion int, hmacSecretBase64 string) (*Sealer, error) {
	if len(keysBase64) == 0 {
		return nil, errors.New("at least one encryption key is required")
	}

	s := &Sealer{keys: make(map[int]cipher.AEAD, len(keysBase64))}
	for i, keyB64 := range keysBase64 {
		aead, err := newAEAD(keyB64)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i+1, err)
		}
		s.keys[i+1] = aead
	}
	if _, ok := s.keys[currentVersion]; !ok {
		return nil, fmt.Errorf("current version %d not found in keys", currentVersion)
	}
	s.currentVersion = currentVersion

	secret, err := base64.StdEncoding.DecodeString(hmacSecretBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HMAC secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("HMAC secret is required")
	}
	s.hmacSecret = secret

	return s, nil
}

func newAEAD(keyBase64 string) (cipher.AEAD, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes for AES-256, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// Seal encrypts plaintext with the current key and returns it base64 encoded
// together with the key version
func (s *Sealer) Seal(plaintext []byte) (string, int, error) {
	s.mu.RLock()
	aead, version := s.keys[s.currentVersion], s.currentVersion
	s.mu.RUnlock()

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", 0, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), version, nil
}

// Open decrypts a value produced by Seal
func (s *Sealer) Open(sealed string, keyVersion int) ([]byte, error) {
	s.mu.RLock()
	aead, ok := s.keys[keyVersion]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("key version %d not found", keyVersion)
	}

	decoded, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	nonceSize := aead.NonceSize()
	if len(decoded) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	plaintext, err := aead.Open(nil, decoded[:nonceSize], decoded[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// CurrentKeyVersion returns the version new values are sealed with
func (s *Sealer) CurrentKeyVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentVersion
}

// RotateKey adds a key and makes it current. Values sealed with older
// versions stay readable.
func (s *Sealer) RotateKey(keyBase64 string, version int) error {
	aead, err := newAEAD(keyBase64)
	if err != nil {
		return fmt.Errorf("new key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[version] = aead
	s.currentVersion = version
	return nil
}

func (s *Sealer) mac(data string) string {
	h := hmac.New(sha256.New, s.hmacSecret)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint is a keyed digest of data. It identifies equal inputs without
// revealing them, e.g. in cache keys.
func (s *Sealer) Fingerprint(data []byte) string {
	return s.mac(string(data))
}

func recordPayload(recordID uuid.UUID, externalID string, riskScore int, recommendation string, screenedAt time.Time) string {
	return recordID.String() + "|" + externalID + "|" + strconv.Itoa(riskScore) + "|" +
		recommendation + "|" + screenedAt.UTC().Format(time.RFC3339Nano)
}

// SignRecord signs the verdict fields of a screening record
func (s *Sealer) SignRecord(recordID uuid.UUID, externalID string, riskScore int, recommendation string, screenedAt time.Time) string {
	return s.mac(recordPayload(recordID, externalID, riskScore, recommendation, screenedAt))
}

// VerifyRecord checks a signature produced by SignRecord
func (s *Sealer) VerifyRecord(recordID uuid.UUID, externalID string, riskScore int, recommendation string, screenedAt time.Time, signature string) bool {
	expected := s.SignRecord(recordID, externalID, riskScore, recommendation, screenedAt)
	return hmac.Equal([]byte(expected), []byte(signature))
}
