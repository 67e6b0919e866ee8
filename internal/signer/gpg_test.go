package signer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ralt/rpmorder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	s, err := NewGPGSigner(testutil.PrivateKeyFile(t), "")
	require.NoError(t, err)

	data := []byte("<repomd/>")
	sig, err := s.SignDetached(data)
	require.NoError(t, err)

	pub, err := s.PublicKey()
	require.NoError(t, err)

	v, err := NewVerifierFromArmored(pub)
	require.NoError(t, err)

	who, err := v.VerifyDetached(data, sig)
	require.NoError(t, err)
	assert.Contains(t, who, "signer@example.com")

	_, err = v.VerifyDetached([]byte("<repomd>tampered</repomd>"), sig)
	assert.Error(t, err)
}

func TestKeyRingVerifierFromFile(t *testing.T) {
	s, err := NewGPGSigner(testutil.PrivateKeyFile(t), "")
	require.NoError(t, err)

	pub, err := s.PublicKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pub.asc")
	require.NoError(t, os.WriteFile(path, pub, 0644))

	v, err := NewKeyRingVerifier(path)
	require.NoError(t, err)

	sig, err := s.SignDetached([]byte("x"))
	require.NoError(t, err)
	_, err = v.VerifyDetached([]byte("x"), sig)
	assert.NoError(t, err)
}

func TestNewGPGSignerErrors(t *testing.T) {
	_, err := NewGPGSigner("", "")
	assert.Error(t, err)

	_, err = NewGPGSigner(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)

	junk := filepath.Join(t.TempDir(), "junk")
	require.NoError(t, os.WriteFile(junk, []byte("not a key"), 0644))
	_, err = NewGPGSigner(junk, "")
	assert.Error(t, err)
}
