package gateway

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	certValidity   = 10 * 365 * 24 * time.Hour
	certRenewSlack = 7 * 24 * time.Hour
)

// EnsureSelfSignedCert loads certPath/keyPath if present and still valid for
// more than certRenewSlack, or mints a fresh self-signed RSA-2048 certificate
// for the given bind address otherwise (§4.8). Cert and key files are written
// with mode 0o600.
func EnsureSelfSignedCert(certPath, keyPath, bindAddress string) (tls.Certificate, error) {
	if cert, err := loadValidCert(certPath, keyPath); err == nil {
		return cert, nil
	}
	if err := mintSelfSignedCert(certPath, keyPath, bindAddress); err != nil {
		return tls.Certificate{}, fmt.Errorf("gateway: mint tls cert: %w", err)
	}
	return tls.LoadX509KeyPair(certPath, keyPath)
}

func loadValidCert(certPath, keyPath string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, err
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return tls.Certificate{}, err
	}
	if time.Until(leaf.NotAfter) < certRenewSlack {
		return tls.Certificate{}, fmt.Errorf("gateway: certificate expires within renewal window")
	}
	return cert, nil
}

func mintSelfSignedCert(certPath, keyPath, bindAddress string) error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("generate serial: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "haya-gateway"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	if ip := net.ParseIP(bindAddress); ip != nil {
		template.IPAddresses = append(template.IPAddresses, ip)
	} else if bindAddress != "" {
		template.DNSNames = append(template.DNSNames, bindAddress)
	}
	template.DNSNames = append(template.DNSNames, "localhost")
	template.IPAddresses = append(template.IPAddresses, net.ParseIP("127.0.0.1"), net.ParseIP("::1"))

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}

	for _, path := range []string{certPath, keyPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("create cert dir: %w", err)
			}
		}
	}

	certOut, err := os.OpenFile(certPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open cert file: %w", err)
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		return fmt.Errorf("encode cert: %w", err)
	}

	keyOut, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open key file: %w", err)
	}
	defer keyOut.Close()
	keyBytes := x509.MarshalPKCS1PrivateKey(key)
	if err := pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: keyBytes}); err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	return nil
}
