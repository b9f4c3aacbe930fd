package gateway

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnsureSelfSignedCert_MintsAndReuses(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "haya.crt")
	keyPath := filepath.Join(dir, "haya.key")

	cert, err := EnsureSelfSignedCert(certPath, keyPath, "127.0.0.1")
	if err != nil {
		t.Fatalf("EnsureSelfSignedCert: %v", err)
	}
	if len(cert.Certificate) == 0 {
		t.Fatal("expected at least one certificate in the chain")
	}

	info, err := os.Stat(certPath)
	if err != nil {
		t.Fatalf("stat cert: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("cert file mode = %v, want 0600", info.Mode().Perm())
	}

	keyInfo, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("stat key: %v", err)
	}
	if keyInfo.Mode().Perm() != 0o600 {
		t.Errorf("key file mode = %v, want 0600", keyInfo.Mode().Perm())
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	if time.Until(leaf.NotAfter) < certValidity-24*time.Hour {
		t.Errorf("expected roughly %v of validity", certValidity)
	}

	// Second call should reuse the existing cert rather than minting a new one.
	reused, err := EnsureSelfSignedCert(certPath, keyPath, "127.0.0.1")
	if err != nil {
		t.Fatalf("EnsureSelfSignedCert (reuse): %v", err)
	}
	if string(reused.Certificate[0]) != string(cert.Certificate[0]) {
		t.Error("expected the second call to reuse the existing certificate")
	}
}
