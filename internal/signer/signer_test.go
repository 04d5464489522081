package signer_test

import (
	"path/filepath"
	"testing"

	"reelpress/internal/signer"
)

func TestSelfSignedRoundTrip(t *testing.T) {
	s, err := signer.SelfSigned("test identity")
	if err != nil {
		t.Fatalf("SelfSigned failed: %v", err)
	}
	if err := s.Valid(); err != nil {
		t.Fatalf("Valid failed: %v", err)
	}

	data := []byte("composition bytes")
	sig, err := s.Sign(data)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := s.Verify(data, sig); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if err := s.Verify([]byte("tampered"), sig); err == nil {
		t.Fatal("expected verification failure on tampered data")
	}
}

func TestWriteAndLoadFiles(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")

	s, err := signer.SelfSigned("roundtrip")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFiles(certPath, keyPath); err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}

	loaded, err := signer.Load(certPath, keyPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := loaded.Valid(); err != nil {
		t.Fatalf("loaded identity invalid: %v", err)
	}
	if loaded.SubjectName() != s.SubjectName() {
		t.Fatalf("subject mismatch: %q vs %q", loaded.SubjectName(), s.SubjectName())
	}
}

func TestIncompleteIdentityInvalid(t *testing.T) {
	var s *signer.Signer
	if err := s.Valid(); err == nil {
		t.Fatal("nil signer should be invalid")
	}
	if err := signer.New(nil, nil).Valid(); err == nil {
		t.Fatal("empty signer should be invalid")
	}
}

func TestMismatchedKeyInvalid(t *testing.T) {
	a, err := signer.SelfSigned("a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := signer.SelfSigned("b")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := a.WriteFiles(filepath.Join(dir, "a.pem"), filepath.Join(dir, "a.key")); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteFiles(filepath.Join(dir, "b.pem"), filepath.Join(dir, "b.key")); err != nil {
		t.Fatal(err)
	}

	mixed, err := signer.Load(filepath.Join(dir, "a.pem"), filepath.Join(dir, "b.key"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := mixed.Valid(); err == nil {
		t.Fatal("mismatched key should be invalid")
	}
}
