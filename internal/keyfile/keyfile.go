// Package keyfile loads the RSA key pair that signs and verifies
// registry tokens from a PEM file, following the pem.Decode +
// x509.Parse*PrivateKey pattern used throughout dexidp/dex (e.g.
// server/signer_vault.go's parsePEMToJWK, db/postgresql/key.go's
// PKCS1 round-trip). Key-file I/O is an external collaborator per spec.md
// section 1, but startup still needs to load it once and fail fast.
package keyfile

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Load reads path, decodes a single PEM block, and parses it as an RSA
// private key in either PKCS1 or PKCS8 form. An unreadable or
// unparseable key file is fatal at startup (spec.md section 6, section
// 7); Load returns an error so the caller can log and exit non-zero.
func Load(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: read %s: %w", path, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("keyfile: %s contains no PEM block", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("keyfile: %s: %w", path, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("keyfile: key is not RSA")
	}
	return key, nil
}
