package signer

import (
	"bytes"
	"crypto"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// GPGSigner implements Signer using an OpenPGP private key
type GPGSigner struct {
	entity *openpgp.Entity
}

// NewGPGSigner creates a new GPG signer from a private key file
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	entities, err := readKeyRing(keyPath)
	if err != nil {
		return nil, err
	}

	entity := entities[0]
	if entity.PrivateKey == nil {
		return nil, fmt.Errorf("%s does not hold a private key", keyPath)
	}

	if passphrase != "" {
		if entity.PrivateKey.Encrypted {
			if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return nil, fmt.Errorf("failed to decrypt private key: %w", err)
			}
		}
		for _, subkey := range entity.Subkeys {
			if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
				if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
					return nil, fmt.Errorf("failed to decrypt subkey: %w", err)
				}
			}
		}
	}

	return &GPGSigner{entity: entity}, nil
}

// SignDetached creates an armored detached signature
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), &packet.Config{
		DefaultHash: crypto.SHA512,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create detached signature: %w", err)
	}

	return buf.Bytes(), nil
}

// PublicKey returns the public key in armored format
func (s *GPGSigner) PublicKey() ([]byte, error) {
	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}

	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// KeyRingVerifier implements Verifier against a set of public keys
type KeyRingVerifier struct {
	keyring openpgp.EntityList
}

// NewKeyRingVerifier loads an armored or binary public keyring
func NewKeyRingVerifier(keyPath string) (*KeyRingVerifier, error) {
	entities, err := readKeyRing(keyPath)
	if err != nil {
		return nil, err
	}
	return &KeyRingVerifier{keyring: entities}, nil
}

// NewVerifierFromArmored builds a verifier from an armored public key
func NewVerifierFromArmored(key []byte) (*KeyRingVerifier, error) {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	return &KeyRingVerifier{keyring: entities}, nil
}

// VerifyDetached checks an armored detached signature
func (v *KeyRingVerifier) VerifyDetached(data, sig []byte) (string, error) {
	signer, err := openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		return "", fmt.Errorf("signature check failed: %w", err)
	}
	for name := range signer.Identities {
		return name, nil
	}
	return fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint), nil
}

func readKeyRing(keyPath string) (openpgp.EntityList, error) {
	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer keyFile.Close()

	entities, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		if _, serr := keyFile.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		entities, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}
	return entities, nil
}
