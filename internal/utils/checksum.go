package utils

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Digest is the checksum and size of a file
type Digest struct {
	SHA256 string
	Size   int64
}

// FileDigest streams a file through sha256
func FileDigest(path string) (*Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, err
	}

	return &Digest{
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Size:   n,
	}, nil
}

// CalculateChecksum calculates a checksum of data with the named algorithm
// as used in repomd.xml ("sha", "sha1", "sha256", "sha512")
func CalculateChecksum(data []byte, hashType string) (string, error) {
	var h hash.Hash

	switch hashType {
	case "sha", "sha1":
		h = sha1.New()
	case "sha256", "":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("unsupported checksum type %q", hashType)
	}

	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
