package signer

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

// CertificateBase64 returns the DER certificate as base64, for embedding in
// signed documents.
func (s *Signer) CertificateBase64() string {
	if s == nil || s.cert == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(s.cert.Raw)
}

// ParseCertificateBase64 decodes a base64 DER certificate.
func ParseCertificateBase64(encoded string) (*x509.Certificate, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("signer: decode certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("signer: parse certificate: %w", err)
	}
	return cert, nil
}

// VerifyWithCertificate checks an RSA-SHA256 signature over data against the
// given certificate's public key.
func VerifyWithCertificate(cert *x509.Certificate, data, sig []byte) error {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("signer: certificate does not carry an RSA key")
	}
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}
