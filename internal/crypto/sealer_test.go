package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := NewSealer([]string{randomKey(t)}, 1, base64.StdEncoding.EncodeToString([]byte("record-secret")))
	require.NoError(t, err)
	return s
}

func TestNewSealerValidation(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("s"))

	_, err := NewSealer(nil, 1, secret)
	assert.Error(t, err)

	_, err = NewSealer([]string{base64.StdEncoding.EncodeToString([]byte("short"))}, 1, secret)
	assert.ErrorContains(t, err, "32 bytes")

	_, err = NewSealer([]string{randomKey(t)}, 2, secret)
	assert.ErrorContains(t, err, "current version 2")

	_, err = NewSealer([]string{randomKey(t)}, 1, "")
	assert.Error(t, err)
}

func TestSealOpen(t *testing.T) {
	s := newTestSealer(t)

	sealed, version, err := s.Seal([]byte(`{"full_name":"Ivan Petrov"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.NotContains(t, sealed, "Ivan")

	plain, err := s.Open(sealed, version)
	require.NoError(t, err)
	assert.Equal(t, `{"full_name":"Ivan Petrov"}`, string(plain))

	_, err = s.Open(sealed, 7)
	assert.ErrorContains(t, err, "key version 7")

	_, err = s.Open("c2hvcnQ=", 1)
	assert.Error(t, err)
}

func TestRotateKeyKeepsOldValuesReadable(t *testing.T) {
	s := newTestSealer(t)
	old, oldVersion, err := s.Seal([]byte("before rotation"))
	require.NoError(t, err)

	require.NoError(t, s.RotateKey(randomKey(t), 2))
	assert.Equal(t, 2, s.CurrentKeyVersion())

	plain, err := s.Open(old, oldVersion)
	require.NoError(t, err)
	assert.Equal(t, "before rotation", string(plain))

	_, version, err := s.Seal([]byte("after rotation"))
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestSignAndVerifyRecord(t *testing.T) {
	s := newTestSealer(t)
	id := uuid.New()
	at := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	sig := s.SignRecord(id, "client-42", 95, "REJECT", at)
	assert.True(t, s.VerifyRecord(id, "client-42", 95, "REJECT", at, sig))
	assert.True(t, s.VerifyRecord(id, "client-42", 95, "REJECT", at.In(time.FixedZone("CET", 3600)), sig))

	assert.False(t, s.VerifyRecord(id, "client-42", 40, "CLEAR", at, sig))
	assert.False(t, s.VerifyRecord(uuid.New(), "client-42", 95, "REJECT", at, sig))
}

func TestFingerprint(t *testing.T) {
	s := newTestSealer(t)
	a := s.Fingerprint([]byte("ivan petrov"))
	assert.Equal(t, a, s.Fingerprint([]byte("ivan petrov")))
	assert.NotEqual(t, a, s.Fingerprint([]byte("olga petrova")))
	assert.Len(t, a, 64)
}

func TestMaskName(t *testing.T) {
	assert.Equal(t, "U*** b*** L***", MaskName("Usama bin Laden"))
	assert.Equal(t, "王***", MaskName("王伟"))
	assert.Equal(t, "", MaskName("   "))

	assert.Equal(t, "Ivan", NameMasker(false)("Ivan"))
	assert.Equal(t, "I***", NameMasker(true)("Ivan"))
}
