package cipher

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaster = "unit-test-master-key-0123456789abcdef"

func newTestCipher(t *testing.T) *DistrictCipher {
	t.Helper()
	c, err := New(testMaster)
	require.NoError(t, err)
	return c
}

func TestNewRejectsShortMasterKey(t *testing.T) {
	_, err := New("short")
	require.Error(t, err)
}

func TestEncryptIsDeterministic(t *testing.T) {
	c := newTestCipher(t)

	first, err := c.Encrypt("Juan Dela Cruz", "D-101")
	require.NoError(t, err)
	second, err := c.Encrypt("Juan Dela Cruz", "D-101")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, versionPrefix))
	assert.NotContains(t, first, "Juan")
}

func TestEncryptDiffersAcrossDistricts(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("REG-0001", "D-101")
	require.NoError(t, err)
	b, err := c.Encrypt("REG-0001", "D-202")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plain := range []string{"Juan", "María José", "1990-02-14", "REG-0001"} {
		sealed, err := c.Encrypt(plain, "d-101")
		require.NoError(t, err)
		opened, err := c.Decrypt(sealed, "D-101")
		require.NoError(t, err)
		assert.Equal(t, plain, opened)
	}
}

func TestDecryptWithOtherDistrictFails(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt("Juan", "D-101")
	require.NoError(t, err)

	_, err = c.Decrypt(sealed, "D-202")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryptionFailure))
}

func TestDecryptWithOtherMasterFails(t *testing.T) {
	c := newTestCipher(t)
	other, err := New("another-master-key-0123456789abcdefgh")
	require.NoError(t, err)

	sealed, err := c.Encrypt("Juan", "D-101")
	require.NoError(t, err)

	_, err = other.Decrypt(sealed, "D-101")
	assert.ErrorIs(t, err, ErrDecryptionFailure)
}

func TestDecryptRejectsCorruptPayloads(t *testing.T) {
	c := newTestCipher(t)
	sealed, err := c.Encrypt("Juan", "D-101")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, versionPrefix))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := versionPrefix + base64.RawURLEncoding.EncodeToString(raw)

	cases := map[string]string{
		"tampered":    tampered,
		"no version":  "Juan",
		"bad base64":  versionPrefix + "!!!",
		"too short":   versionPrefix + base64.RawURLEncoding.EncodeToString([]byte("abc")),
		"old version": "v0." + strings.TrimPrefix(sealed, versionPrefix),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			plain, err := c.Decrypt(payload, "D-101")
			assert.ErrorIs(t, err, ErrDecryptionFailure)
			assert.Empty(t, plain)
		})
	}
}

func TestEmptyValuesStayEmpty(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Encrypt("", "D-101")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := c.Decrypt("", "D-101")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestDistrictRequired(t *testing.T) {
	c := newTestCipher(t)
	_, err := c.Encrypt("Juan", " ")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDecryptionFailure))
	assert.ErrorIs(t, err, ErrDistrictRequired)
}

func TestDecryptBlankDistrictIsDecryptionFailure(t *testing.T) {
	c := newTestCipher(t)
	sealed, err := c.Encrypt("Juan", "D-101")
	require.NoError(t, err)

	_, err = c.Decrypt(sealed, " ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecryptionFailure)
	assert.ErrorIs(t, err, ErrDistrictRequired)
}

func TestNormalizeText(t *testing.T) {
	decomposed := "Jose\u0301  Ma.\tDela   Cruz "
	assert.Equal(t, "Jos\u00e9 Ma. Dela Cruz", NormalizeText(decomposed))
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, "REG-0001", NormalizeNumber(" reg-0001 "))
	assert.Equal(t, "AB12", NormalizeNumber("ａｂ 12"))
}
