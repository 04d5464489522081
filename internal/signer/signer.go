package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"
)

// Signer is the identity used to sign composition documents.
type Signer struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
}

// New wraps an already-parsed identity.
func New(cert *x509.Certificate, key *rsa.PrivateKey) *Signer {
	return &Signer{cert: cert, key: key}
}

// Load reads a PEM certificate and PEM private key from disk.
func Load(certPath, keyPath string) (*Signer, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	cert, err := parseCertificate(certData)
	if err != nil {
		return nil, err
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	key, err := parseKey(keyData)
	if err != nil {
		return nil, err
	}

	return &Signer{cert: cert, key: key}, nil
}

// Valid reports whether the identity can sign: both halves present, key
// matching the certificate, and the certificate inside its validity window.
func (s *Signer) Valid() error {
	if s == nil || s.cert == nil || s.key == nil {
		return errors.New("signer: incomplete identity")
	}
	pub, ok := s.cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("signer: certificate does not carry an RSA key")
	}
	if pub.N.Cmp(s.key.N) != 0 || pub.E != s.key.E {
		return errors.New("signer: private key does not match certificate")
	}
	now := time.Now()
	if now.Before(s.cert.NotBefore) {
		return fmt.Errorf("signer: certificate not valid until %s", s.cert.NotBefore)
	}
	if now.After(s.cert.NotAfter) {
		return fmt.Errorf("signer: certificate expired %s", s.cert.NotAfter)
	}
	return nil
}

// Sign returns an RSA-SHA256 signature over data.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	if err := s.Valid(); err != nil {
		return nil, err
	}
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}
	return sig, nil
}

// Verify checks an RSA-SHA256 signature over data against the certificate.
func (s *Signer) Verify(data, sig []byte) error {
	pub, ok := s.cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("signer: certificate does not carry an RSA key")
	}
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}

// SubjectName returns the certificate subject for embedding in signatures.
func (s *Signer) SubjectName() string {
	if s == nil || s.cert == nil {
		return ""
	}
	return s.cert.Subject.String()
}

// SerialNumber returns the certificate serial for embedding in signatures.
func (s *Signer) SerialNumber() string {
	if s == nil || s.cert == nil || s.cert.SerialNumber == nil {
		return ""
	}
	return s.cert.SerialNumber.String()
}

// SelfSigned generates a fresh RSA identity with a one-year self-signed
// certificate. Used by `reelpress keygen` and by tests.
func SelfSigned(commonName string) (*Signer, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	return &Signer{cert: cert, key: key}, nil
}

// WriteFiles writes the identity as PEM certificate and key files.
func (s *Signer) WriteFiles(certPath, keyPath string) error {
	certOut := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: s.cert.Raw})
	if err := os.WriteFile(certPath, certOut, 0o644); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	keyOut := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(s.key)})
	if err := os.WriteFile(keyPath, keyOut, 0o600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}

func parseCertificate(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("signer: no certificate PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	return cert, nil
}

func parseKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("signer: no key PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("signer: key is not RSA")
	}
	return key, nil
}
