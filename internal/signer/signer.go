package signer

// Signer signs repository metadata
type Signer interface {
	// SignDetached creates an armored detached signature (repomd.xml.asc)
	SignDetached(data []byte) ([]byte, error)

	// PublicKey returns the armored public key
	PublicKey() ([]byte, error)
}

// Verifier checks detached signatures made by a Signer
type Verifier interface {
	// VerifyDetached returns the signer identity when sig is a valid
	// signature of data
	VerifyDetached(data, sig []byte) (string, error)
}
